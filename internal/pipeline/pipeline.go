package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-verify-service/internal/domain"
	"github.com/couchcryptid/weather-verify-service/internal/observability"
)

// Stage is a state of one verification run.
type Stage string

const (
	StageValidating  Stage = "validating"
	StageResolving   Stage = "resolving"
	StageFetching    Stage = "fetching"
	StageClassifying Stage = "classifying"
	StageAssembling  Stage = "assembling"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// Request is the input of one verification.
type Request struct {
	Place  string
	Date   domain.IncidentDate
	Access domain.Access // empty means preview
}

// Failure is the terminal failed state. Stage names the step that failed.
type Failure struct {
	Stage Stage
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Stage, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Kind returns the failure's stable tag.
func (f *Failure) Kind() domain.FailureKind {
	return domain.KindOf(f.Err)
}

// ReadinessChecker is implemented by collaborators that can report health.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Pipeline sequences validation, geocoding, the archive lookup, classification
// and assembly. It keeps no per-request state, so one instance may serve
// concurrent verifications.
type Pipeline struct {
	geocoder    domain.Geocoder
	archive     domain.ArchiveFetcher
	logger      *slog.Logger
	metrics     *observability.Metrics
	historyDays int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithHistoryDays sets how far back an incident date may lie. Zero disables
// the check.
func WithHistoryDays(days int) Option {
	return func(p *Pipeline) {
		p.historyDays = days
	}
}

// New creates a Pipeline with the given collaborators and observability.
func New(g domain.Geocoder, a domain.ArchiveFetcher, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		geocoder:    g,
		archive:     a,
		logger:      logger,
		metrics:     metrics,
		historyDays: domain.DefaultHistoryDays,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness returns the first error reported by a collaborator.
func (p *Pipeline) CheckReadiness(ctx context.Context) error {
	for _, c := range []any{p.geocoder, p.archive} {
		if rc, ok := c.(ReadinessChecker); ok {
			if err := rc.CheckReadiness(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// Verify runs one verification to completion. On failure the returned error
// is a *Failure and the Report is the zero value.
func (p *Pipeline) Verify(ctx context.Context, req Request) (domain.Report, error) {
	start := time.Now()
	logger := p.logger.With("place", req.Place, "date", req.Date.String())

	report, f := p.run(ctx, req, logger)
	p.metrics.VerificationDuration.Observe(time.Since(start).Seconds())

	if f != nil {
		p.recordFailure(logger, f)
		return domain.Report{}, f
	}

	p.metrics.Verifications.WithLabelValues("success").Inc()
	p.metrics.Verdicts.WithLabelValues(string(report.Verdict.Class)).Inc()
	logger.Info("verification complete",
		"report_id", report.ID,
		"verdict", report.Verdict.Class,
		"precipitation_mm", report.Verdict.PrecipitationMm,
		"access", report.Access,
	)
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, req Request, logger *slog.Logger) (domain.Report, *Failure) {
	logger.Debug("stage", "stage", StageValidating)
	place, access, err := p.validate(req)
	if err != nil {
		return domain.Report{}, &Failure{Stage: StageValidating, Err: err}
	}

	logger.Debug("stage", "stage", StageResolving)
	if err := checkCancelled(ctx); err != nil {
		return domain.Report{}, &Failure{Stage: StageResolving, Err: err}
	}
	loc, err := p.geocoder.Resolve(ctx, place)
	if err != nil {
		return domain.Report{}, &Failure{Stage: StageResolving, Err: err}
	}

	logger.Debug("stage", "stage", StageFetching, "location", loc.DisplayName)
	if err := checkCancelled(ctx); err != nil {
		return domain.Report{}, &Failure{Stage: StageFetching, Err: err}
	}
	metrics, err := p.archive.Fetch(ctx, loc, req.Date)
	if err != nil {
		return domain.Report{}, &Failure{Stage: StageFetching, Err: err}
	}

	logger.Debug("stage", "stage", StageClassifying)
	verdict := domain.Classify(metrics.PrecipitationSumMm)

	logger.Debug("stage", "stage", StageAssembling)
	report := domain.Assemble(loc, req.Date, metrics, verdict, domain.Now())

	logger.Debug("stage", "stage", StageDone)
	return report.WithAccess(access), nil
}

func (p *Pipeline) validate(req Request) (string, domain.Access, error) {
	place, err := domain.NormalizePlace(req.Place)
	if err != nil {
		return "", "", err
	}

	today := domain.DateOf(domain.Now())
	if err := domain.ValidateDate(req.Date, today, p.historyDays); err != nil {
		return "", "", err
	}

	access := req.Access
	if access == "" {
		access = domain.AccessPreview
	}
	if !access.Valid() {
		return "", "", fmt.Errorf("%w: unknown access level %q", domain.ErrInvalidInput, access)
	}
	return place, access, nil
}

func (p *Pipeline) recordFailure(logger *slog.Logger, f *Failure) {
	kind := f.Kind()
	p.metrics.Verifications.WithLabelValues(string(kind)).Inc()
	p.metrics.StageFailures.WithLabelValues(string(f.Stage)).Inc()

	attrs := []any{"stage", f.Stage, "kind", kind, "error", f.Err}
	switch {
	case kind == domain.KindCancelled:
		logger.Info("verification cancelled", attrs...)
	case kind.UserCorrectable() || kind == domain.KindDataUnavailable:
		logger.Warn("verification failed", attrs...)
	default:
		logger.Error("verification failed", attrs...)
	}
}

func checkCancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCancelled, err)
	}
	return nil
}
