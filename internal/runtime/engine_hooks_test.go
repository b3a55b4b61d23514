package runtime_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/domain"
)

func TestEngine_LifecycleHooks(t *testing.T) {
	var entered, answers []string
	var ended int

	hooks := domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			entered = append(entered, e.NodeID)
		},
		OnAnswer: func(_ context.Context, e *domain.AnswerEvent) {
			answers = append(answers, e.Answer)
		},
		OnFlowEnd: func(_ context.Context, _ *domain.NodeEvent) {
			ended++
		},
	}

	ctx := context.Background()
	engine := runtime.NewEngine(runtime.WithLifecycleHooks(hooks))
	fc := sample()

	state, err := engine.Start(ctx, fc)
	require.NoError(t, err)
	_, err = engine.Answer(ctx, fc, state, domain.AnswerNo)
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "3"}, entered)
	assert.Equal(t, []string{"no", "End"}, answers)
	assert.Equal(t, 1, ended)
}
