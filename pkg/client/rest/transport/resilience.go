// Package transport provides http.RoundTripper decorators used by REST clients.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/abgdnv/gocommerce-inventory/pkg/config"
	"github.com/sony/gobreaker/v2"
)

// upstreamStatusError marks a response the circuit breaker must count as a failure.
// It never leaves this package: the response itself is handed back to the caller.
type upstreamStatusError struct {
	code int
}

func (e *upstreamStatusError) Error() string {
	return fmt.Sprintf("upstream responded with status %d", e.code)
}

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// NewCircuitBreaker creates a circuit breaker for HTTP responses.
// Network errors and 5xx responses are failures; 4xx responses are answers from a healthy backend.
func NewCircuitBreaker(name string, cfg config.CircuitBreakerConfig) *gobreaker.CircuitBreaker[*http.Response] {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > cfg.ConsecutiveFailures ||
				(counts.TotalSuccesses+counts.TotalFailures > cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(counts.TotalSuccesses+counts.TotalFailures)*100 > float64(cfg.ErrorRatePercent))
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// The caller gave up, the backend is not to blame.
			return errors.Is(err, context.Canceled)
		},
	}
	return gobreaker.NewCircuitBreaker[*http.Response](st)
}

// CircuitBreaker wraps next so that every round trip is executed through cb.
// While the breaker is open requests fail immediately with gobreaker.ErrOpenState.
func CircuitBreaker(cb *gobreaker.CircuitBreaker[*http.Response], next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		resp, err := cb.Execute(func() (*http.Response, error) {
			resp, err := next.RoundTrip(req)
			if err != nil {
				return nil, err
			}
			if resp.StatusCode >= http.StatusInternalServerError {
				return resp, &upstreamStatusError{code: resp.StatusCode}
			}
			return resp, nil
		})
		var statusErr *upstreamStatusError
		if errors.As(err, &statusErr) {
			return resp, nil
		}
		return resp, err
	})
}
