package api

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"example.com/johar/internal/registry"
)

type guideRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Location string `json:"location" validate:"required,max=120"`
}

func (s *Server) handleListGuides(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"guides": s.registry.List(r.Context())})
}

func (s *Server) handleRegisterGuide(w http.ResponseWriter, r *http.Request) {
	var req guideRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	g, err := s.registry.Register(r.Context(), req.Name, req.Location)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "%v", err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) handleGetGuide(w http.ResponseWriter, r *http.Request) {
	g, ok := s.registry.Get(r.Context(), chi.URLParam(r, "regID"))
	if !ok {
		writeError(w, http.StatusNotFound, "%v", registry.ErrGuideNotFound)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleCertificate(w http.ResponseWriter, r *http.Request) {
	regID := chi.URLParam(r, "regID")
	g, ok := s.registry.Get(r.Context(), regID)
	if !ok {
		writeError(w, http.StatusNotFound, "%v", registry.ErrGuideNotFound)
		return
	}
	if g.Cert == nil {
		writeError(w, http.StatusNotFound, "%v", registry.ErrNoCertificate)
		return
	}
	payload := map[string]any{
		"regId":       g.RegID,
		"verified":    g.Verified,
		"certificate": g.Cert,
	}
	if s.issuer != nil {
		payload["valid"] = s.issuer.Valid(g.RegID, *g.Cert)
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleCertificatePDF(w http.ResponseWriter, r *http.Request) {
	regID := chi.URLParam(r, "regID")
	g, ok := s.registry.Get(r.Context(), regID)
	if !ok {
		writeError(w, http.StatusNotFound, "%v", registry.ErrGuideNotFound)
		return
	}
	var buf bytes.Buffer
	err := registry.WriteCertificatePDF(&buf, g)
	if errors.Is(err, registry.ErrNoCertificate) {
		writeError(w, http.StatusNotFound, "%v", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "%v", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=certificate-"+g.Cert.CertID+".pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleToggleGuide(w http.ResponseWriter, r *http.Request) {
	regID := chi.URLParam(r, "regID")
	g, found, err := s.registry.ToggleVerify(r.Context(), regID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "%v", err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "%v", registry.ErrGuideNotFound)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleBatch(op registry.BatchOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		outcome, err := s.runner.RunBatch(r.Context(), registry.BatchInput{Op: op, Reason: "admin api"})
		if err != nil {
			s.logger.ErrorContext(r.Context(), "registry batch failed", "op", op, "error", err)
			writeError(w, http.StatusBadGateway, "run %s: %v", op, err)
			return
		}
		writeJSON(w, http.StatusOK, outcome)
	}
}
