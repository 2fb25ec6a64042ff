// Package server exposes the wizard over HTTP. The handlers hold no
// quote logic of their own: each one loads the session, applies one
// wizard or export operation and writes the resulting state back.
package server

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"quote-service/internal/catalog"
	"quote-service/internal/export"
	"quote-service/internal/pricing"
	"quote-service/internal/wizard"
)

type Server struct {
	store    wizard.Store
	cat      *catalog.Catalog
	engine   *pricing.Engine
	exporter *export.Exporter
	logger   *zap.Logger
}

func New(store wizard.Store, cat *catalog.Catalog, engine *pricing.Engine, exporter *export.Exporter, logger *zap.Logger) *Server {
	return &Server{
		store:    store,
		cat:      cat,
		engine:   engine,
		exporter: exporter,
		logger:   logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/catalog", s.handleCatalog)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Post("/next", s.handleNext)
			r.Post("/previous", s.handlePrevious)
			r.Post("/selection", s.handleUpdateSelection)
			r.Post("/features/{featureID}", s.handleToggleFeature)
			r.Get("/document", s.handleDocument)
			r.Post("/submit", s.handleSubmit)
		})
	})

	return r
}

// sessionState is the response body for every session read or mutation.
// The breakdown is recomputed on each request, never stored.
type sessionState struct {
	SessionID string            `json:"session_id"`
	Selection wizard.Selection  `json:"selection"`
	Breakdown pricing.Breakdown `json:"breakdown"`
	CanSubmit bool              `json:"can_submit"`
	Moved     *bool             `json:"moved,omitempty"`
}

func (s *Server) state(id string, sel wizard.Selection) sessionState {
	return sessionState{
		SessionID: id,
		Selection: sel,
		Breakdown: s.engine.ComputeBreakdown(sel),
		CanSubmit: sel.CanSubmit(),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.cat)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	sel := wizard.NewSelection()

	if err := s.store.Save(r.Context(), id, sel); err != nil {
		s.serverError(w, "create session", err)
		return
	}

	s.logger.Info("Session created", zap.String("session_id", id))
	s.writeJSON(w, http.StatusCreated, s.state(id, sel))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, sel, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, s.state(id, sel))
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.step(w, r, (*wizard.Selection).Next)
}

func (s *Server) handlePrevious(w http.ResponseWriter, r *http.Request) {
	s.step(w, r, (*wizard.Selection).Previous)
}

func (s *Server) step(w http.ResponseWriter, r *http.Request, move func(*wizard.Selection) bool) {
	id, sel, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	moved := move(&sel)
	if moved {
		if err := s.store.Save(r.Context(), id, sel); err != nil {
			s.serverError(w, "save session", err)
			return
		}
	}

	state := s.state(id, sel)
	state.Moved = &moved
	s.writeJSON(w, http.StatusOK, state)
}

// selectionUpdate carries a partial update: only the fields present in
// the request body are applied.
type selectionUpdate struct {
	ProjectType  *string         `json:"project_type"`
	BudgetHint   *string         `json:"budget_hint"`
	TimelineNote *string         `json:"timeline_note"`
	Urgency      *string         `json:"urgency"`
	Contact      *wizard.Contact `json:"contact"`
}

func (s *Server) handleUpdateSelection(w http.ResponseWriter, r *http.Request) {
	id, sel, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	var upd selectionUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		s.clientError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if upd.ProjectType != nil {
		sel.SetProjectType(*upd.ProjectType)
	}
	if upd.BudgetHint != nil {
		sel.SetBudgetHint(*upd.BudgetHint)
	}
	if upd.TimelineNote != nil {
		sel.SetTimelineNote(*upd.TimelineNote)
	}
	if upd.Urgency != nil {
		sel.SetUrgency(*upd.Urgency)
	}
	if upd.Contact != nil {
		sel.SetContact(*upd.Contact)
	}

	if err := s.store.Save(r.Context(), id, sel); err != nil {
		s.serverError(w, "save session", err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.state(id, sel))
}

func (s *Server) handleToggleFeature(w http.ResponseWriter, r *http.Request) {
	id, sel, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	sel.ToggleFeature(chi.URLParam(r, "featureID"))

	if err := s.store.Save(r.Context(), id, sel); err != nil {
		s.serverError(w, "save session", err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.state(id, sel))
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	_, sel, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "pdf"
	}

	artifact, err := s.exporter.GenerateDocument(r.Context(), sel, format, time.Now())
	if errors.Is(err, export.ErrIncomplete) {
		s.clientError(w, http.StatusUnprocessableEntity, "contact name and a valid email are required")
		return
	}
	if errors.Is(err, export.ErrUnknownFormat) {
		s.clientError(w, http.StatusBadRequest, "unknown document format")
		return
	}
	if err != nil {
		s.serverError(w, "render document", err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": artifact.Filename,
	}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifact.Content)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	id, sel, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	outcome := s.exporter.Submit(r.Context(), id, sel)
	if outcome.OK {
		// The session has served its purpose; drop it so a fresh quote
		// starts clean. A failed delete only costs an early expiry.
		if err := s.store.Delete(r.Context(), id); err != nil {
			s.logger.Warn("Session cleanup failed",
				zap.String("session_id", id),
				zap.Error(err))
		}
	}

	// The outcome is display-ready either way; the body carries the
	// success flag, so failures still answer 200.
	s.writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (string, wizard.Selection, bool) {
	id := chi.URLParam(r, "sessionID")

	sel, err := s.store.Get(r.Context(), id)
	if errors.Is(err, wizard.ErrSessionNotFound) {
		s.clientError(w, http.StatusNotFound, "session not found")
		return "", wizard.Selection{}, false
	}
	if err != nil {
		s.serverError(w, "load session", err)
		return "", wizard.Selection{}, false
	}
	return id, sel, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Response encoding failed", zap.Error(err))
	}
}

func (s *Server) clientError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	s.logger.Error("Request failed", zap.String("op", op), zap.Error(err))
	s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
