package metrics

import "github.com/prometheus/client_golang/prometheus"

// ProviderMetrics exposes counters/histograms for outbound generation and speech calls.
type ProviderMetrics struct {
	requestsTotal *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

func NewProviderMetrics(reg prometheus.Registerer) *ProviderMetrics {
	m := &ProviderMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wellbot",
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Total outbound provider requests by outcome",
		}, []string{"provider", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wellbot",
			Subsystem: "provider",
			Name:      "latency_seconds",
			Help:      "Latency of outbound provider requests",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"provider"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.latency)
	return m
}

// ObserveRequest records one provider call. outcome is "success" or "error".
func (m *ProviderMetrics) ObserveRequest(provider, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(provider, outcome).Inc()
	m.latency.WithLabelValues(provider).Observe(seconds)
}

// BookingMetrics counts booking lifecycle transitions.
type BookingMetrics struct {
	transitionsTotal *prometheus.CounterVec
	createdTotal     prometheus.Counter
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wellbot",
			Subsystem: "booking",
			Name:      "transitions_total",
			Help:      "Booking status transitions applied by clinics",
		}, []string{"from", "to"}),
		createdTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wellbot",
			Subsystem: "booking",
			Name:      "created_total",
			Help:      "Bookings created by users",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.transitionsTotal, m.createdTotal)
	return m
}

func (m *BookingMetrics) ObserveCreated() {
	if m == nil {
		return
	}
	m.createdTotal.Inc()
}

func (m *BookingMetrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(from, to).Inc()
}
