package http

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/report"
	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/domain"
)

type startRequest struct {
	FlowchartKey string `json:"flowchart_key"`
	SessionID    string `json:"session_id"`
}

type answerRequest struct {
	Answer string `json:"answer"`
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.player.Sessions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	var body startRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := s.player.Start(r.Context(), body.FlowchartKey, body.SessionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) viewSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.player.View(r.Context(), pathParam(r, "id"))
	s.writeView(w, r, view, err)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.player.Delete(r.Context(), pathParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) stepSession(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	ctx := r.Context()

	var (
		view *arbor.View
		err  error
	)
	switch action := pathParam(r, "action"); action {
	case "answer":
		var body answerRequest
		if err := decodeBody(r, &body); err != nil {
			s.writeError(w, r, err)
			return
		}
		view, err = s.player.Answer(ctx, id, body.Answer)
	case runtime.ActionNext:
		view, err = s.player.Next(ctx, id)
	case runtime.ActionBack:
		view, err = s.player.Back(ctx, id)
	case runtime.ActionRestart:
		view, err = s.player.Restart(ctx, id)
	default:
		err = &domain.NotFoundError{Kind: "action", Key: action}
	}
	s.writeView(w, r, view, err)
}

func (s *Server) sessionHistory(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.report(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) sessionHistoryPDF(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.report(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := rep.WritePDF(&buf); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rep.Filename()))
	w.Write(buf.Bytes())
}

// report builds the history report. A missing document still yields a
// report, without subheadings.
func (s *Server) report(w http.ResponseWriter, r *http.Request) (*report.Report, bool) {
	state, doc, err := s.player.Session(r.Context(), pathParam(r, "id"))
	if state == nil {
		s.writeError(w, r, err)
		return nil, false
	}
	var fc *domain.Flowchart
	if doc != nil {
		fc = doc.Flowchart
	} else if err != nil {
		s.logger.Warn("history without flowchart", "session_id", state.SessionID, "err", err)
	}
	return report.Build(fc, state.History), true
}

func (s *Server) writeView(w http.ResponseWriter, r *http.Request, view *arbor.View, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
