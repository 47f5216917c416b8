package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/weather-verify-service/internal/domain"
	"github.com/couchcryptid/weather-verify-service/internal/pipeline"
	"github.com/couchcryptid/weather-verify-service/internal/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	headerRequestID   = "X-Request-ID"
	headerReportToken = "X-Report-Token"
)

var validate = validator.New()

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Verifier runs one weather verification.
type Verifier interface {
	Verify(ctx context.Context, req pipeline.Request) (domain.Report, error)
}

// ReportPublisher receives every successfully verified report.
type ReportPublisher interface {
	Publish(ctx context.Context, report domain.Report, requestID string) error
}

// Server exposes the report API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer  *http.Server
	verifier    Verifier
	publisher   ReportPublisher
	accessToken string
	logger      *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithPublisher forwards successful reports to p.
func WithPublisher(p ReportPublisher) Option {
	return func(s *Server) { s.publisher = p }
}

// WithAccessToken restricts the full report to callers presenting token in
// the X-Report-Token header. An empty token grants everyone full access.
func WithAccessToken(token string) Option {
	return func(s *Server) { s.accessToken = token }
}

// NewServer creates an HTTP server with /api/v1/reports, /healthz, /readyz, and /metrics routes.
func NewServer(addr string, ready ReadinessChecker, verifier Verifier, logger *slog.Logger, opts ...Option) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		verifier: verifier,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux.HandleFunc("GET /api/v1/reports", s.handleReport)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// reportQuery holds the query parameters of the report endpoint.
type reportQuery struct {
	Place  string `validate:"required,max=200"`
	Date   string `validate:"required,datetime=2006-01-02"`
	Format string `validate:"omitempty,oneof=json text"`
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get(headerRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(headerRequestID, requestID)
	logger := s.logger.With("request_id", requestID)

	q := reportQuery{
		Place:  r.URL.Query().Get("place"),
		Date:   r.URL.Query().Get("date"),
		Format: r.URL.Query().Get("format"),
	}
	if q.Format == "" {
		q.Format = render.FormatJSON
	}
	if err := validate.Struct(q); err != nil {
		writeFailure(w, http.StatusBadRequest, domain.KindInvalidInput, queryError(err), requestID)
		return
	}

	date, err := domain.ParseIncidentDate(q.Date)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, domain.KindInvalidInput, err.Error(), requestID)
		return
	}

	access := s.accessFor(r)
	renderer, err := render.For(q.Format)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, domain.KindInvalidInput, err.Error(), requestID)
		return
	}
	if q.Format == render.FormatText && access != domain.AccessFull {
		writeFailure(w, http.StatusPaymentRequired, "", render.ErrFullAccessRequired.Error(), requestID)
		return
	}

	report, err := s.verifier.Verify(r.Context(), pipeline.Request{Place: q.Place, Date: date, Access: access})
	if err != nil {
		kind := domain.KindOf(err)
		writeFailure(w, statusFor(kind), kind, messageFor(kind, err), requestID)
		return
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(r.Context(), report, requestID); err != nil {
			logger.Error("report publish failed", "error", err, "report_id", report.ID)
		}
	}

	w.Header().Set("Content-Type", renderer.ContentType())
	if q.Format == render.FormatText {
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", report.Display.FileName+renderer.Extension()))
	}
	w.WriteHeader(http.StatusOK)
	if err := renderer.Render(w, report); err != nil {
		logger.Error("render report failed", "error", err, "report_id", report.ID)
	}
}

func (s *Server) accessFor(r *http.Request) domain.Access {
	if s.accessToken == "" {
		return domain.AccessFull
	}
	presented := r.Header.Get(headerReportToken)
	if subtle.ConstantTimeCompare([]byte(presented), []byte(s.accessToken)) == 1 {
		return domain.AccessFull
	}
	return domain.AccessPreview
}

func statusFor(kind domain.FailureKind) int {
	switch kind {
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindLocationNotFound:
		return http.StatusNotFound
	case domain.KindDataUnavailable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusServiceUnavailable
	}
}

func messageFor(kind domain.FailureKind, err error) string {
	var f *pipeline.Failure
	if errors.As(err, &f) {
		err = f.Err
	}
	switch kind {
	case domain.KindServiceUnavailable:
		return "weather service temporarily unavailable, please try again later"
	case domain.KindCancelled:
		return "request cancelled"
	default:
		return err.Error()
	}
}

func queryError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Field() {
	case "Place":
		return "place is required (at most 200 characters)"
	case "Date":
		return "date is required in YYYY-MM-DD form"
	default:
		return "format must be json or text"
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeFailure(w http.ResponseWriter, status int, kind domain.FailureKind, msg, requestID string) {
	body := map[string]string{"error": msg, "request_id": requestID}
	if kind != domain.KindNone {
		body["kind"] = string(kind)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
