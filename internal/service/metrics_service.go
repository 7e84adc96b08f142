package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Admission outcomes recorded by ObserveAdmission.
const (
	OutcomeAdmitted            = "admitted"
	OutcomeOutsideAvailability = "outside_availability"
	OutcomeSlotConflict        = "slot_conflict"
	OutcomeLockTimeout         = "lock_timeout"
	OutcomeRejected            = "rejected"
)

// MetricsService owns the Prometheus registry and the collectors the API
// updates. A nil *MetricsService is a valid no-op.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	admissions      *prometheus.CounterVec
	lockWait        prometheus.Histogram
	paymentsTotal   *prometheus.CounterVec
	paymentAmount   prometheus.Counter
	slotResolve     prometheus.Histogram
}

// NewMetricsService registers the HTTP, cache and booking collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slot_cache_lookups_total",
			Help: "Slot cache lookups by result",
		}, []string{"result"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "slot_cache_latency_seconds",
			Help:    "Latency of slot cache operations",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		}),
		admissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_admissions_total",
			Help: "Booking proposals by admission outcome",
		}, []string{"outcome"}),
		lockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "booking_lock_wait_seconds",
			Help:    "Time spent inside the tutor/date critical section",
			Buckets: prometheus.DefBuckets,
		}),
		paymentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Mock payments by resulting status",
		}, []string{"status"}),
		paymentAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "payments_captured_amount_total",
			Help: "Sum of captured payment amounts",
		}),
		slotResolve: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "slot_resolution_seconds",
			Help:    "Time to resolve bookable slots for a tutor and date",
			Buckets: prometheus.DefBuckets,
		}),
	}

	registry.MustRegister(
		m.requestDuration, m.requestTotal,
		m.cacheLookups, m.cacheLatency,
		m.admissions, m.lockWait,
		m.paymentsTotal, m.paymentAmount,
		m.slotResolve,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a slot cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
	m.cacheLatency.Observe(duration.Seconds())
}

// ObserveAdmission counts a booking proposal outcome.
func (m *MetricsService) ObserveAdmission(outcome string) {
	if m == nil {
		return
	}
	m.admissions.WithLabelValues(outcome).Inc()
}

// ObserveCriticalSection records how long the booking lock was held.
func (m *MetricsService) ObserveCriticalSection(d time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.Observe(d.Seconds())
}

// ObservePayment counts a payment status change and, on capture, its amount.
func (m *MetricsService) ObservePayment(status string, amount float64) {
	if m == nil {
		return
	}
	m.paymentsTotal.WithLabelValues(status).Inc()
	if amount > 0 {
		m.paymentAmount.Add(amount)
	}
}

// ObserveSlotResolution records resolver latency.
func (m *MetricsService) ObserveSlotResolution(d time.Duration) {
	if m == nil {
		return
	}
	m.slotResolve.Observe(d.Seconds())
}
