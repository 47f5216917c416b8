// Package openmeteo resolves place names and fetches archived daily weather
// from the public Open-Meteo APIs. Requests are never retried: each upstream
// call is guarded by a circuit breaker and a client-side rate limiter instead.
package openmeteo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/weather-verify-service/internal/domain"
	"github.com/couchcryptid/weather-verify-service/internal/observability"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 1 << 20

// Settings configures one Open-Meteo client.
type Settings struct {
	BaseURL    string
	Timeout    time.Duration
	RatePerSec float64 // <= 0 disables client-side limiting
}

type upstream struct {
	name       string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// reply is a completed exchange below the breaker's failure threshold.
type reply struct {
	status    int
	body      []byte
	cancelled bool
}

type statusError struct {
	status int
	body   []byte
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.status, e.body)
}

func newUpstream(name string, s Settings, metrics *observability.Metrics, logger *slog.Logger) *upstream {
	limit := rate.Inf
	if s.RatePerSec > 0 {
		limit = rate.Limit(s.RatePerSec)
	}

	u := &upstream{
		name:    name,
		baseURL: s.BaseURL,
		timeout: s.Timeout,
		httpClient: &http.Client{
			Timeout: s.Timeout,
		},
		limiter: rate.NewLimiter(limit, 1),
		metrics: metrics,
		logger:  logger.With("upstream", name),
	}

	u.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo-" + name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			u.metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			u.logger.Warn("circuit breaker state change", "from", from.String(), "to", to.String())
		},
	})
	u.metrics.BreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))

	return u
}

// get performs one GET against fullURL. Transport failures, 5xx and 429 trip
// the breaker and surface as domain.ErrServiceUnavailable; any other status is
// returned to the caller for interpretation. The configured timeout covers
// both the rate limiter wait and the request itself.
func (u *upstream) get(ctx context.Context, fullURL string) (reply, error) {
	if err := ctx.Err(); err != nil {
		return reply{}, u.contextError(ctx, err)
	}
	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}
	if err := u.limiter.Wait(ctx); err != nil {
		return reply{}, u.contextError(ctx, err)
	}

	start := time.Now()
	defer func() {
		u.metrics.UpstreamDuration.WithLabelValues(u.name).Observe(time.Since(start).Seconds())
	}()

	result, err := u.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := u.httpClient.Do(req)
		if err != nil {
			// Caller cancellation is not an upstream failure.
			if errors.Is(ctx.Err(), context.Canceled) {
				return reply{cancelled: true}, nil
			}
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			return nil, &statusError{status: resp.StatusCode, body: body}
		}
		return reply{status: resp.StatusCode, body: body}, nil
	})

	switch {
	case err == nil:
		r := result.(reply)
		if r.cancelled {
			return reply{}, fmt.Errorf("%w: %s request", domain.ErrCancelled, u.name)
		}
		return r, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		u.metrics.UpstreamRequests.WithLabelValues(u.name, "rejected").Inc()
		return reply{}, fmt.Errorf("%w: %s circuit open", domain.ErrServiceUnavailable, u.name)
	default:
		u.metrics.UpstreamRequests.WithLabelValues(u.name, "error").Inc()
		u.logger.Warn("upstream request failed", "error", err)
		return reply{}, fmt.Errorf("%w: %s request: %w", domain.ErrServiceUnavailable, u.name, err)
	}
}

func (u *upstream) contextError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%w: %s request", domain.ErrCancelled, u.name)
	}
	return fmt.Errorf("%w: %s request: %w", domain.ErrServiceUnavailable, u.name, err)
}

// fail counts a completed exchange whose payload could not be used.
func (u *upstream) fail(format string, args ...any) error {
	u.metrics.UpstreamRequests.WithLabelValues(u.name, "error").Inc()
	return fmt.Errorf("%w: %s: %s", domain.ErrServiceUnavailable, u.name, fmt.Sprintf(format, args...))
}

// CheckReadiness reports an error while the breaker is open.
func (u *upstream) CheckReadiness(_ context.Context) error {
	if u.breaker.State() == gobreaker.StateOpen {
		return fmt.Errorf("%s circuit breaker open", u.name)
	}
	return nil
}
