package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"example.com/johar/internal/analytics"
	"example.com/johar/internal/assistant"
)

func (s *Server) handleListSites(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sites": s.catalog.All()})
}

func (s *Server) handleGetSite(w http.ResponseWriter, r *http.Request) {
	site, ok := s.catalog.Get(chi.URLParam(r, "siteID"))
	if !ok {
		writeError(w, http.StatusNotFound, "site not found")
		return
	}
	writeJSON(w, http.StatusOK, site)
}

func (s *Server) handleInterests(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"interests": s.planner.Interests()})
}

type planRequest struct {
	Days      int      `json:"days" validate:"min=1,max=30"`
	Interests []string `json:"interests" validate:"max=10,dive,required"`
	Lang      string   `json:"lang" validate:"max=16"`
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	interests := make([]string, 0, len(req.Interests))
	for _, in := range req.Interests {
		interests = append(interests, strings.ToLower(strings.TrimSpace(in)))
	}
	plan := s.planner.Plan(req.Days, interests)
	s.analytics.Record(r.Context(), analytics.Event{analytics.FieldVisits: req.Days})
	writeJSON(w, http.StatusOK, map[string]any{
		"days":      req.Days,
		"interests": interests,
		"lang":      langOrDefault(req.Lang),
		"plan":      plan,
	})
}

func (s *Server) handleIntents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"intents": s.classifier.Rules()})
}

type chatRequest struct {
	Message string `json:"message" validate:"max=2000"`
	Lang    string `json:"lang" validate:"max=16"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	resp := s.classifier.Classify(req.Message)
	s.analytics.Record(r.Context(), analytics.Event{analytics.FieldVisits: 1})
	// speech is fire-and-forget and must outlive the request
	go s.speaker.Speak(context.WithoutCancel(r.Context()), resp.Text, langOrDefault(req.Lang))
	writeJSON(w, http.StatusOK, resp)
}

type feedbackRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	fb, err := s.feedback.Submit(r.Context(), req.Text)
	if errors.Is(err, assistant.ErrEmptyFeedback) {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "%v", err)
		return
	}
	s.analytics.Record(r.Context(), analytics.Event{analytics.FieldVisits: 1})
	writeJSON(w, http.StatusCreated, map[string]any{"sentiment": fb.Sentiment, "score": fb.Score})
}

func (s *Server) handleListFeedback(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"feedback": s.feedback.List(r.Context())})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.analytics.Snapshot(r.Context()))
}

func langOrDefault(lang string) string {
	if strings.TrimSpace(lang) == "" {
		return assistant.DefaultLanguage
	}
	return lang
}
