package httpclient

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned while the breaker rejects requests.
var ErrCircuitOpen = gobreaker.ErrOpenState

// errServerStatus marks a 5xx response as a breaker failure while the
// response itself is still handed back to the caller.
var errServerStatus = errors.New("server error status")

// BreakerConfig configures a circuit breaker.
type BreakerConfig struct {
	// Name identifies the breaker in logs and metrics.
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// FailureRatio trips the breaker once at least MinRequests were seen.
	FailureRatio float64
	MinRequests  uint32
}

// DefaultBreakerConfig returns a breaker that opens at 50% failures over at
// least five requests and probes again after 30s.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// BreakerMetrics exposes breaker state and rejections.
type BreakerMetrics struct {
	state    *prometheus.GaugeVec
	rejected *prometheus.CounterVec
}

// NewBreakerMetrics registers breaker metrics on reg.
func NewBreakerMetrics(reg prometheus.Registerer) *BreakerMetrics {
	f := promauto.With(reg)
	return &BreakerMetrics{
		state: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current state of the circuit breaker (0=closed, 1=half-open, 2=open)",
		}, []string{"name"}),
		rejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "circuit_breaker_rejected_total",
			Help: "Total number of requests rejected by an open circuit breaker",
		}, []string{"name"}),
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// BreakerTransport is an http.RoundTripper guarded by a circuit breaker.
// Transport errors and 5xx responses count as failures.
type BreakerTransport struct {
	base    http.RoundTripper
	breaker *gobreaker.CircuitBreaker[*http.Response]
	metrics *BreakerMetrics
	name    string
}

// NewBreakerTransport wraps base. metrics may be nil.
func NewBreakerTransport(base http.RoundTripper, cfg BreakerConfig, metrics *BreakerMetrics, logger *slog.Logger) *BreakerTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.Requests < cfg.MinRequests {
				return false
			}
			return float64(c.TotalFailures)/float64(c.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			if metrics != nil {
				metrics.state.WithLabelValues(name).Set(stateValue(to))
			}
		},
	}
	if metrics != nil {
		metrics.state.WithLabelValues(cfg.Name).Set(0)
	}

	return &BreakerTransport{
		base:    base,
		breaker: gobreaker.NewCircuitBreaker[*http.Response](settings),
		metrics: metrics,
		name:    cfg.Name,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *BreakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.breaker.Execute(func() (*http.Response, error) {
		resp, err := t.base.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, errServerStatus
		}
		return resp, nil
	})

	switch {
	case errors.Is(err, errServerStatus):
		return resp, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		if t.metrics != nil {
			t.metrics.rejected.WithLabelValues(t.name).Inc()
		}
		return nil, fmt.Errorf("%s: %w", t.name, ErrCircuitOpen)
	case err != nil:
		return nil, err
	}
	return resp, nil
}

// State returns the breaker's current state.
func (t *BreakerTransport) State() gobreaker.State {
	return t.breaker.State()
}
