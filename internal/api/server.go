// Package api exposes the tourism core over a JSON HTTP interface.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"example.com/johar/internal/analytics"
	"example.com/johar/internal/assistant"
	"example.com/johar/internal/market"
	"example.com/johar/internal/planner"
	"example.com/johar/internal/registry"
	"example.com/johar/internal/sites"
)

// Options carries the collaborators a Server needs. Speaker and Runner fall
// back to no-op and in-process defaults when nil; Registerer and Gatherer
// default to a private registry unless both are set.
type Options struct {
	Catalog    *sites.Catalog
	Planner    *planner.Planner
	Classifier *assistant.Classifier
	Speaker    assistant.Speaker
	Feedback   *assistant.FeedbackLog
	Market     *market.Market
	Registry   *registry.Registry
	Issuer     *registry.HMACIssuer
	Runner     registry.BatchRunner
	Analytics  *analytics.Accumulator

	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	JWTSecret   string
	CORSOrigins []string
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Only enable it behind a proxy that overwrites those headers.
	TrustProxy  bool
	ChatRate    float64
	ChatBurst   int

	Logger *slog.Logger
}

// Server owns the HTTP surface. Handlers validate input before touching the
// core, so the core never sees malformed requests.
type Server struct {
	catalog    *sites.Catalog
	planner    *planner.Planner
	classifier *assistant.Classifier
	speaker    assistant.Speaker
	feedback   *assistant.FeedbackLog
	market     *market.Market
	registry   *registry.Registry
	issuer     *registry.HMACIssuer
	runner     registry.BatchRunner
	analytics  *analytics.Accumulator

	gatherer    prometheus.Gatherer
	metrics     *httpMetrics
	jwtSecret   []byte
	corsOrigins []string
	trustProxy  bool
	limiter     *rateLimiter
	validate    *validator.Validate
	logger      *slog.Logger
}

func NewServer(opts Options) *Server {
	s := &Server{
		catalog:     opts.Catalog,
		planner:     opts.Planner,
		classifier:  opts.Classifier,
		speaker:     opts.Speaker,
		feedback:    opts.Feedback,
		market:      opts.Market,
		registry:    opts.Registry,
		issuer:      opts.Issuer,
		runner:      opts.Runner,
		analytics:   opts.Analytics,
		gatherer:    opts.Gatherer,
		jwtSecret:   []byte(opts.JWTSecret),
		corsOrigins: opts.CORSOrigins,
		trustProxy:  opts.TrustProxy,
		limiter:     newRateLimiter(opts.ChatRate, opts.ChatBurst),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      opts.Logger,
	}
	if s.speaker == nil {
		s.speaker = assistant.NopSpeaker{}
	}
	if s.runner == nil {
		s.runner = registry.NewDirectRunner(opts.Registry)
	}
	reg := opts.Registerer
	if reg == nil || s.gatherer == nil {
		own := prometheus.NewRegistry()
		reg, s.gatherer = own, own
	}
	s.metrics = newHTTPMetrics(reg)
	return s
}

// Router wires all routes under a single chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	if s.trustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler)
	r.Use(s.metrics.instrument)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/sites", s.handleListSites)
		r.Get("/sites/{siteID}", s.handleGetSite)

		r.Get("/itinerary/interests", s.handleInterests)
		r.Post("/itinerary", s.handlePlan)

		r.Get("/chat/intents", s.handleIntents)
		r.With(s.rateLimit).Post("/chat", s.handleChat)
		r.Post("/feedback", s.handleFeedback)

		r.Route("/market", func(r chi.Router) {
			r.Get("/items", s.handleListItems)
			r.Post("/items", s.handleAddItem)
			r.Post("/items/{itemID}/buy", s.handleBuy)
			r.Get("/transactions", s.handleTransactions)
		})

		r.Route("/guides", func(r chi.Router) {
			r.Get("/", s.handleListGuides)
			r.Post("/", s.handleRegisterGuide)
			r.Get("/{regID}", s.handleGetGuide)
			r.Get("/{regID}/certificate", s.handleCertificate)
			r.Get("/{regID}/certificate.pdf", s.handleCertificatePDF)
		})

		r.Get("/analytics", s.handleAnalytics)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/guides/{regID}/toggle", s.handleToggleGuide)
			r.Post("/guides/verify-all", s.handleBatch(registry.OpVerifyAll))
			r.Post("/guides/certificates", s.handleBatch(registry.OpIssueCertificates))
			r.Get("/feedback", s.handleListFeedback)
		})
	})

	return r
}

// decode reads a JSON body into dst and runs struct validation on it.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": strings.TrimSpace(fmt.Sprintf(format, args...)),
			"status":  status,
		},
	})
}
