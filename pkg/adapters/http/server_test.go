package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/catalog"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/editor"
)

const printerChart = `{
  "name": "Printer",
  "nodes": [
    {"id": "1", "text": "Is it plugged in?", "type": "yesno", "yes": "Does it print?", "no": "Plug it in"},
    {"id": "2", "text": "Does it print?", "type": "yesno", "yes": "Done", "no": null},
    {"id": "3", "text": "Plug it in", "type": "info", "next": "Does it print?", "subheading": "Power"},
    {"id": "4", "text": "Done", "type": "info"}
  ]
}`

type fixture struct {
	handler http.Handler
	repo    *catalog.Repository
	streams *StreamManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	repo := catalog.New(memory.NewObjectStore(), catalog.WithCache(memory.NewCache()))
	_, err := repo.Import(ctx, "flowchart.json", []byte(printerChart), false)
	require.NoError(t, err)

	streams := NewStreamManager(nil)
	player := arbor.New(repo, memory.NewStore(), arbor.WithDiffListener(streams.Publish))
	h, err := NewHandler(ctx, player, editor.NewService(repo), WithStreams(streams))
	require.NoError(t, err)
	return &fixture{handler: h, repo: repo, streams: streams}
}

func (f *fixture) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestSpecValidates(t *testing.T) {
	doc, err := Spec(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", doc.Info.Version)
}

func TestHealthAndInfo(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/info", nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := decode[map[string]string](t, w)
	assert.Equal(t, arbor.Version, info["version"])
	assert.Equal(t, "1.0.0", info["api_version"])

	w = f.do(t, http.MethodGet, "/openapi.yaml", nil)
	assert.Contains(t, w.Body.String(), "title: Arbor API")
}

func TestFlowchartRoutes(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/flowcharts", map[string]any{
		"name": "Router Reset",
		"nodes": []map[string]any{
			{"id": 1, "text": "Lights on?", "type": "yesno", "yes": "All good"},
			{"id": 2, "text": "All good", "type": "info"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[editor.Result](t, w)
	assert.Equal(t, "Flowchart saved successfully!", created.Message)
	key := created.Document.Key
	assert.True(t, strings.HasPrefix(key, "flowcharts/router-reset-"), key)

	w = f.do(t, http.MethodGet, "/flowcharts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decode[[]catalog.Entry](t, w)
	require.Len(t, entries, 1)
	assert.Equal(t, "Router Reset", entries[0].DisplayName)

	w = f.do(t, http.MethodGet, "/flowcharts/"+url.PathEscape(key), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	doc := decode[domain.Document](t, w)
	assert.Equal(t, "Router Reset", doc.Flowchart.Name)
	assert.Equal(t, "1", doc.Flowchart.Nodes[0].ID)
	assert.NotEmpty(t, w.Header().Get("ETag"))

	w = f.do(t, http.MethodGet, "/flowcharts/"+url.PathEscape("flowcharts/missing.json"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decode[errorBody](t, w).Error, "not found")
}

func TestNodeEditing(t *testing.T) {
	f := newFixture(t)
	base := "/flowcharts/flowchart.json"

	w := f.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	version := decode[domain.Document](t, w).Version

	w = f.do(t, http.MethodPost, base+"/nodes", map[string]any{"text": "Call support", "type": "info"}, "If-Match", `"`+version+`"`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	res := decode[editor.Result](t, w)
	assert.Equal(t, "New node added successfully!", res.Message)
	newID := res.Node.ID
	require.NotEmpty(t, newID)

	// The version moved on, so the old tag is stale.
	w = f.do(t, http.MethodPut, base+"/nodes/"+newID, map[string]any{"text": "Phone support", "type": "info"}, "If-Match", version)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPut, base+"/nodes/"+newID, map[string]any{"text": "Phone support", "type": "info"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Phone support", decode[editor.Result](t, w).Node.Text)

	w = f.do(t, http.MethodPost, base+"/nodes", map[string]any{"text": "", "type": "info"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, base+"/nodes/2/connect", map[string]any{"field": "no", "target": "Reboot it"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res = decode[editor.Result](t, w)
	require.NotNil(t, res.Created)
	assert.Equal(t, "Reboot it", res.Created.Text)
	assert.Equal(t, "Reboot it", res.Node.No)

	w = f.do(t, http.MethodPost, base+"/nodes/2/connect", map[string]any{"field": "no", "target": ""})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[editor.Result](t, w).Node.No)

	w = f.do(t, http.MethodPost, base+"/nodes/2/connect", map[string]any{"field": "next", "target": "4"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodDelete, base+"/nodes/"+newID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Node deleted successfully!", decode[editor.Result](t, w).Message)

	w = f.do(t, http.MethodDelete, base+"/nodes/"+newID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGraphRoutes(t *testing.T) {
	f := newFixture(t)
	base := "/flowcharts/flowchart.json"

	w := f.do(t, http.MethodGet, base+"/check", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, base+"/layout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var g struct {
		Nodes []struct {
			ID string  `json:"id"`
			X  float64 `json:"x"`
		} `json:"nodes"`
		Edges []json.RawMessage `json:"edges"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &g))
	assert.Len(t, g.Nodes, 4)
	assert.Len(t, g.Edges, 4)

	w = f.do(t, http.MethodPost, "/sessions", map[string]string{"session_id": "s1"})
	require.Equal(t, http.StatusCreated, w.Code)
	f.do(t, http.MethodPost, "/sessions/s1/answer", map[string]string{"answer": "no"})

	w = f.do(t, http.MethodGet, base+"/mermaid?session_id=s1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "graph TD")
	assert.Contains(t, w.Body.String(), "class n_3 current;")
	assert.Contains(t, w.Body.String(), "class n_1 visited;")

	w = f.do(t, http.MethodGet, base+"/mermaid?format=dot", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "digraph")

	w = f.do(t, http.MethodGet, base+"/mermaid?format=svg", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionRoutes(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/sessions", map[string]string{"session_id": "s1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	v := decode[arbor.View](t, w)
	assert.Equal(t, "1", v.Node.ID)
	assert.Equal(t, "flowchart.json", v.FlowchartKey)

	w = f.do(t, http.MethodPost, "/sessions", map[string]string{"session_id": "s1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPost, "/sessions/s1/next", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = f.do(t, http.MethodPost, "/sessions/s1/answer", map[string]string{"answer": "no"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "3", decode[arbor.View](t, w).Node.ID)

	w = f.do(t, http.MethodPost, "/sessions/s1/next", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", decode[arbor.View](t, w).Node.ID)

	w = f.do(t, http.MethodPost, "/sessions/s1/back", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "3", decode[arbor.View](t, w).Node.ID)

	w = f.do(t, http.MethodGet, "/sessions/s1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "3", decode[arbor.View](t, w).Node.ID)

	w = f.do(t, http.MethodGet, "/sessions/s1/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rep := decode[struct {
		Title string `json:"title"`
		Items []struct {
			Question   string `json:"question"`
			Answer     string `json:"answer"`
			Subheading string `json:"subheading"`
		} `json:"items"`
	}](t, w)
	assert.Equal(t, "Printer", rep.Title)
	require.Len(t, rep.Items, 1)
	assert.Equal(t, "NO", rep.Items[0].Answer)

	w = f.do(t, http.MethodGet, "/sessions/s1/history.pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Printer Report.pdf")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = f.do(t, http.MethodPost, "/sessions/s1/restart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[arbor.View](t, w).History)

	w = f.do(t, http.MethodPost, "/sessions/s1/jump", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, "/sessions", nil)
	assert.Equal(t, []string{"s1"}, decode[[]string](t, w))

	w = f.do(t, http.MethodDelete, "/sessions/s1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodGet, "/sessions/s1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubscribeEvents_Session(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/sessions", "application/json", strings.NewReader(`{"session_id":"s1"}`))
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?session_id=s1&watch=node", nil)
	require.NoError(t, err)
	stream, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer stream.Body.Close()
	assert.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))

	lines := bufio.NewScanner(stream.Body)
	readData := func() string {
		for lines.Scan() {
			if data, ok := strings.CutPrefix(lines.Text(), "data: "); ok {
				return data
			}
		}
		return ""
	}
	require.Equal(t, "connected", readData())

	resp, err = http.Post(srv.URL+"/sessions/s1/answer", "application/json", strings.NewReader(`{"answer":"no"}`))
	require.NoError(t, err)
	resp.Body.Close()

	var diff domain.StateDiff
	require.NoError(t, json.Unmarshal([]byte(readData()), &diff))
	assert.Equal(t, "s1", diff.SessionID)
	require.NotNil(t, diff.CurrentNodeID)
	assert.Equal(t, "3", *diff.CurrentNodeID)
}

func TestSubscribeEvents_NoWatcher(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/events", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

type chanWatcher chan string

func (c chanWatcher) Watch(ctx context.Context) (<-chan string, error) { return c, nil }

func TestSubscribeEvents_Reload(t *testing.T) {
	repo := catalog.New(memory.NewObjectStore())
	events := make(chanWatcher, 1)
	events <- "flowchart.json"
	close(events)

	h, err := NewHandler(context.Background(), arbor.New(repo, memory.NewStore()), editor.NewService(repo), WithWatcher(events))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Contains(t, w.Body.String(), "event: reload\ndata: flowchart.json\n\n")
}

func TestStreamManager(t *testing.T) {
	sm := NewStreamManager(nil)
	ch, cancel := sm.Subscribe("s1")
	assert.Equal(t, 1, sm.Subscribers("s1"))

	id := "2"
	sm.Publish(context.Background(), &domain.StateDiff{SessionID: "s1", CurrentNodeID: &id})
	sm.Publish(context.Background(), &domain.StateDiff{SessionID: "other"})
	sm.Publish(context.Background(), nil)

	got := <-ch
	assert.Equal(t, "2", *got.CurrentNodeID)
	assert.Empty(t, ch)

	cancel()
	cancel()
	assert.Equal(t, 0, sm.Subscribers("s1"))
}

func TestMatches(t *testing.T) {
	end := true
	diff := &domain.StateDiff{SessionID: "s", IsEnd: &end}
	assert.True(t, matches(diff, nil))
	assert.True(t, matches(diff, []string{"node", " status"}))
	assert.False(t, matches(diff, []string{"history"}))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&domain.ValidationError{Field: "text", Reason: "is required"}, http.StatusBadRequest},
		{&domain.NotFoundError{Kind: "node", Key: "x"}, http.StatusNotFound},
		{&domain.NotFoundError{Kind: "session", Key: "x"}, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", domain.ErrVersionConflict), http.StatusConflict},
		{domain.ErrSessionExists, http.StatusConflict},
		{domain.ErrInvalidAction, http.StatusUnprocessableEntity},
		{&domain.StorageError{Op: "get", Key: "k", Err: errors.New("timeout")}, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
