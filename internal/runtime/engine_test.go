package runtime_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/domain"
)

func sample() *domain.Flowchart {
	return &domain.Flowchart{
		Name: "Sample",
		Nodes: []domain.Node{
			{ID: "1", Text: "Q1", Type: domain.NodeTypeYesNo, Yes: "Q2", No: "Q3"},
			{ID: "2", Text: "Q2", Type: domain.NodeTypeInfo},
			{ID: "3", Text: "Q3", Type: domain.NodeTypeInfo},
		},
	}
}

func linear() *domain.Flowchart {
	return &domain.Flowchart{
		Nodes: []domain.Node{
			{ID: "a", Text: "Intro", Type: domain.NodeTypeInfo, Next: "Ask"},
			{ID: "b", Text: "Ask", Type: domain.NodeTypeYesNo, Yes: "Done"},
			{ID: "c", Text: "Done", Type: domain.NodeTypeInfo},
		},
	}
}

func TestEngine_Start(t *testing.T) {
	e := runtime.NewEngine()
	state, err := e.Start(context.Background(), sample())
	require.NoError(t, err)

	assert.Equal(t, "1", state.CurrentNodeID)
	assert.Empty(t, state.History)
	assert.False(t, state.IsEnd)

	_, err = e.Start(context.Background(), &domain.Flowchart{})
	assert.ErrorIs(t, err, domain.ErrEmptyFlowchart)
}

func TestEngine_AnswerReachesTerminal(t *testing.T) {
	ctx := context.Background()
	e := runtime.NewEngine()
	fc := sample()

	state, err := e.Start(ctx, fc)
	require.NoError(t, err)

	next, err := e.Answer(ctx, fc, state, domain.AnswerYes)
	require.NoError(t, err)

	assert.Equal(t, "2", next.CurrentNodeID)
	assert.True(t, next.IsEnd)
	assert.Equal(t, []domain.HistoryEntry{
		{ID: "1", Question: "Q1", Answer: "yes"},
		{ID: "2", Question: "Q2", Answer: "End"},
	}, next.History)

	// The input state is never mutated.
	assert.Equal(t, "1", state.CurrentNodeID)
	assert.Empty(t, state.History)
}

func TestEngine_RefreshDoesNotDuplicateEnd(t *testing.T) {
	ctx := context.Background()
	e := runtime.NewEngine()
	fc := sample()

	state, _ := e.Start(ctx, fc)
	state, err := e.Answer(ctx, fc, state, domain.AnswerNo)
	require.NoError(t, err)
	require.Len(t, state.History, 2)

	for i := 0; i < 3; i++ {
		state, err = e.Refresh(ctx, fc, state)
		require.NoError(t, err)
	}
	assert.Len(t, state.History, 2)
	assert.True(t, state.IsEnd)
}

func TestEngine_AnswerOnOpenBranchEnds(t *testing.T) {
	ctx := context.Background()
	e := runtime.NewEngine()
	fc := linear()

	state, _ := e.Start(ctx, fc)
	state, err := e.Next(ctx, fc, state)
	require.NoError(t, err)
	require.Equal(t, "b", state.CurrentNodeID)

	ended, err := e.Answer(ctx, fc, state, domain.AnswerNo)
	require.NoError(t, err)
	assert.True(t, ended.IsEnd)
	assert.Equal(t, "b", ended.CurrentNodeID)
	assert.Equal(t, domain.HistoryEntry{ID: "b", Question: "Ask", Answer: "no"}, ended.History[len(ended.History)-1])

	refreshed, err := e.Refresh(ctx, fc, ended)
	require.NoError(t, err)
	assert.True(t, refreshed.IsEnd, "refresh keeps an ended walk ended")

	_, err = e.Answer(ctx, fc, ended, domain.AnswerYes)
	assert.ErrorIs(t, err, domain.ErrInvalidAction)
}

func TestEngine_DanglingLinkKeepsState(t *testing.T) {
	ctx := context.Background()
	e := runtime.NewEngine()
	fc := sample()
	fc.Nodes[0].Yes = "Missing"

	state, _ := e.Start(ctx, fc)
	next, err := e.Answer(ctx, fc, state, domain.AnswerYes)

	assert.Nil(t, next)
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
	assert.Equal(t, "1", state.CurrentNodeID)
	assert.Empty(t, state.History)
}

func TestEngine_InvalidActions(t *testing.T) {
	ctx := context.Background()
	e := runtime.NewEngine()
	fc := linear()
	state, _ := e.Start(ctx, fc)

	_, err := e.Answer(ctx, fc, state, domain.AnswerYes)
	assert.ErrorIs(t, err, domain.ErrInvalidAction, "info node cannot be answered")

	_, err = e.Answer(ctx, fc, state, "maybe")
	assert.ErrorIs(t, err, domain.ErrInvalidAction)

	state, _ = e.Next(ctx, fc, state)
	_, err = e.Next(ctx, fc, state)
	assert.ErrorIs(t, err, domain.ErrInvalidAction, "yesno node has no next")
}

func TestEngine_BackFromEnd(t *testing.T) {
	ctx := context.Background()
	e := runtime.NewEngine()
	fc := sample()

	state, _ := e.Start(ctx, fc)
	state, _ = e.Answer(ctx, fc, state, domain.AnswerYes)
	require.True(t, state.IsEnd)

	back, err := e.Back(ctx, fc, state)
	require.NoError(t, err)

	assert.Equal(t, "1", back.CurrentNodeID)
	assert.False(t, back.IsEnd)
	assert.False(t, back.HasLoggedEnd)
	assert.Empty(t, back.History, "End marker and the answer are both removed")

	// Walking forward again logs End again.
	again, err := e.Answer(ctx, fc, back, domain.AnswerNo)
	require.NoError(t, err)
	assert.Equal(t, domain.AnswerEnd, again.History[len(again.History)-1].Answer)
}

func TestEngine_BackOnEmptyHistory(t *testing.T) {
	ctx := context.Background()
	e := runtime.NewEngine()
	fc := linear()

	state := &domain.State{CurrentNodeID: "b", IsEnd: true, History: []domain.HistoryEntry{}}
	back, err := e.Back(ctx, fc, state)
	require.NoError(t, err)
	assert.Equal(t, "a", back.CurrentNodeID)
	assert.False(t, back.IsEnd)
	assert.Empty(t, back.History)
}

func TestEngine_BackToTerminalEntryStaysOpen(t *testing.T) {
	ctx := context.Background()
	e := runtime.NewEngine()
	fc := &domain.Flowchart{Nodes: []domain.Node{{ID: "only", Text: "Nothing to ask", Type: domain.NodeTypeInfo}}}

	state, err := e.Start(ctx, fc)
	require.NoError(t, err)
	require.True(t, state.IsEnd)
	require.Len(t, state.History, 1)

	back, err := e.Back(ctx, fc, state)
	require.NoError(t, err)
	assert.Equal(t, "only", back.CurrentNodeID)
	assert.False(t, back.IsEnd)
	assert.False(t, back.HasLoggedEnd)
	assert.Empty(t, back.History)
}

func TestEngine_BackMidWalk(t *testing.T) {
	ctx := context.Background()
	e := runtime.NewEngine()
	fc := linear()

	state, _ := e.Start(ctx, fc)
	state, _ = e.Next(ctx, fc, state)
	require.Len(t, state.History, 1)

	back, err := e.Back(ctx, fc, state)
	require.NoError(t, err)
	assert.Equal(t, "a", back.CurrentNodeID)
	assert.Empty(t, back.History)
}

func TestEngine_BackAfterRename(t *testing.T) {
	ctx := context.Background()
	e := runtime.NewEngine()
	fc := linear()

	state, _ := e.Start(ctx, fc)
	state, _ = e.Next(ctx, fc, state)

	fc.Nodes[0].Text = "Welcome"
	back, err := e.Back(ctx, fc, state)
	require.NoError(t, err)
	assert.Equal(t, "a", back.CurrentNodeID, "falls back to the recorded id")
}

func TestEngine_Restart(t *testing.T) {
	ctx := context.Background()
	e := runtime.NewEngine()
	fc := sample()

	state, _ := e.Start(ctx, fc)
	state.SessionID = "s1"
	state.FlowchartKey = "flowchart.json"
	state, _ = e.Answer(ctx, fc, state, domain.AnswerYes)

	restarted, err := e.Restart(ctx, fc, state)
	require.NoError(t, err)
	assert.Equal(t, "1", restarted.CurrentNodeID)
	assert.Empty(t, restarted.History)
	assert.False(t, restarted.IsEnd)
	assert.False(t, restarted.HasLoggedEnd)
	assert.Equal(t, "s1", restarted.SessionID)
	assert.Equal(t, "flowchart.json", restarted.FlowchartKey)
}

func TestEngine_Render(t *testing.T) {
	ctx := context.Background()
	e := runtime.NewEngine()
	fc := sample()

	state, _ := e.Start(ctx, fc)
	v, err := e.Render(fc, state)
	require.NoError(t, err)
	assert.Equal(t, "Sample", v.Title)
	assert.Equal(t, []string{runtime.ActionYes, runtime.ActionNo}, v.Actions)
	assert.False(t, v.CanBack)

	state, _ = e.Answer(ctx, fc, state, domain.AnswerYes)
	v, err = e.Render(fc, state)
	require.NoError(t, err)
	assert.True(t, v.IsEnd)
	assert.Equal(t, []string{runtime.ActionRestart, runtime.ActionBack}, v.Actions)
}
