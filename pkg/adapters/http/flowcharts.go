package http

import (
	"net/http"

	"github.com/aretw0/arbor/internal/layout"
	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/catalog"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/editor"
)

type newFlowchartRequest struct {
	Name  string           `json:"name"`
	Nodes []map[string]any `json:"nodes"`
}

type connectRequest struct {
	Field  string `json:"field"`
	Target string `json:"target"`
}

func (s *Server) listFlowcharts(w http.ResponseWriter, r *http.Request) {
	entries, err := s.player.Catalog().List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []catalog.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) createFlowchart(w http.ResponseWriter, r *http.Request) {
	var body newFlowchartRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	raws, err := decodeNodes(body.Nodes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.editor.NewFlowchart(r.Context(), body.Name, raws)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	setETag(w, res.Document)
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) getFlowchart(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadDocument(w, r)
	if !ok {
		return
	}
	setETag(w, doc)
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) checkFlowchart(w http.ResponseWriter, r *http.Request) {
	key, err := keyParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	issues, err := s.editor.Check(r.Context(), key)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if issues == nil {
		issues = []editor.Issue{}
	}
	writeJSON(w, http.StatusOK, issues)
}

func (s *Server) layoutFlowchart(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadDocument(w, r)
	if !ok {
		return
	}
	g := layout.Build(doc.Flowchart)
	if err := s.layout.Layout(r.Context(), g); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// renderFlowchart returns Mermaid source, or DOT with ?format=dot. A
// session_id highlights the path that session has walked.
func (s *Server) renderFlowchart(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadDocument(w, r)
	if !ok {
		return
	}

	var overlay *graph.GraphOverlay
	if id := r.URL.Query().Get("session_id"); id != "" {
		state, _, err := s.player.Session(r.Context(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		overlay = graph.OverlayFromState(state)
	}

	var out string
	switch r.URL.Query().Get("format") {
	case "", "mermaid":
		out = graph.GenerateMermaid(doc.Flowchart, overlay)
	case "dot":
		var err error
		if out, err = graph.GenerateDOT(doc.Flowchart, overlay); err != nil {
			s.writeError(w, r, err)
			return
		}
	default:
		s.writeError(w, r, &domain.ValidationError{Field: "format", Reason: "must be mermaid or dot"})
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(out))
}

func (s *Server) createNode(w http.ResponseWriter, r *http.Request) {
	key, raw, ok := s.nodeRequest(w, r)
	if !ok {
		return
	}
	res, err := s.editor.CreateNode(r.Context(), key, raw, editOptions(r)...)
	s.writeEdit(w, r, http.StatusCreated, res, err)
}

func (s *Server) updateNode(w http.ResponseWriter, r *http.Request) {
	key, raw, ok := s.nodeRequest(w, r)
	if !ok {
		return
	}
	res, err := s.editor.UpdateNode(r.Context(), key, pathParam(r, "id"), raw, editOptions(r)...)
	s.writeEdit(w, r, http.StatusOK, res, err)
}

func (s *Server) deleteNode(w http.ResponseWriter, r *http.Request) {
	key, err := keyParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.editor.DeleteNode(r.Context(), key, pathParam(r, "id"), editOptions(r)...)
	s.writeEdit(w, r, http.StatusOK, res, err)
}

// connectNode sets a link. An empty target clears it.
func (s *Server) connectNode(w http.ResponseWriter, r *http.Request) {
	key, err := keyParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body connectRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	field, err := domain.ParseLinkField(body.Field)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	id := pathParam(r, "id")
	var res *editor.Result
	if body.Target == "" {
		res, err = s.editor.Disconnect(r.Context(), key, id, field, editOptions(r)...)
	} else {
		res, err = s.editor.Connect(r.Context(), key, id, field, body.Target, editOptions(r)...)
	}
	s.writeEdit(w, r, http.StatusOK, res, err)
}

func (s *Server) loadDocument(w http.ResponseWriter, r *http.Request) (*domain.Document, bool) {
	key, err := keyParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	doc, err := s.player.Catalog().Load(r.Context(), key)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return doc, true
}

func (s *Server) nodeRequest(w http.ResponseWriter, r *http.Request) (string, editor.RawNode, bool) {
	key, err := keyParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return "", editor.RawNode{}, false
	}
	var body map[string]any
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return "", editor.RawNode{}, false
	}
	raw, err := editor.DecodeRaw(body)
	if err != nil {
		s.writeError(w, r, err)
		return "", editor.RawNode{}, false
	}
	return key, raw, true
}

func (s *Server) writeEdit(w http.ResponseWriter, r *http.Request, status int, res *editor.Result, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	setETag(w, res.Document)
	writeJSON(w, status, res)
}

func decodeNodes(in []map[string]any) ([]editor.RawNode, error) {
	out := make([]editor.RawNode, 0, len(in))
	for _, m := range in {
		raw, err := editor.DecodeRaw(m)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}
