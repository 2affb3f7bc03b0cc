package intra

import (
	"errors"
	"net/url"
	"path"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/epitok/epitok/internal/domain/shared"
)

// Metrics records intranet request outcomes.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the client collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "epitok",
			Subsystem: "intra",
			Name:      "requests_total",
			Help:      "Intranet requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "epitok",
			Subsystem: "intra",
			Name:      "request_duration_seconds",
			Help:      "Intranet request latency.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration)
	}
	return m
}

func (m *Metrics) observe(endpoint string, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(endpoint, outcomeOf(err)).Inc()
	m.duration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// outcomeOf maps a transport error to a metric label.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, shared.ErrIntraEmpty):
		return "empty"
	case errors.Is(err, shared.ErrIntraAccessDenied):
		return "access_denied"
	case errors.Is(err, shared.ErrIntraNotFound):
		return "not_found"
	case errors.Is(err, shared.ErrIntraUnavailable):
		return "unavailable"
	case errors.Is(err, shared.ErrIntraMalformedResponse):
		return "malformed"
	case errors.Is(err, shared.ErrIntraNetwork):
		return "network"
	default:
		return "error"
	}
}

// endpointOf labels a request by the last segment of its path,
// e.g. "user", "planning", "registered", "updateregistered".
func endpointOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "unknown"
	}
	base := path.Base(u.Path)
	if base == "load" {
		return "planning"
	}
	if base == "." || base == "/" {
		return "root"
	}
	return base
}
