package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StorefrontMetrics records client-side observations of backend calls, checkout
// submissions and payment verification.
type StorefrontMetrics struct {
	apiDuration         *prometheus.HistogramVec
	checkoutSubmissions *prometheus.CounterVec
	bookkeepingFailures prometheus.Counter
	pollAttempts        *prometheus.CounterVec
	verifications       *prometheus.CounterVec
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
// A nil registerer yields a recorder that drops every observation.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	apiDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_api_request_duration_seconds",
		Help:    "Duration of commerce backend calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "outcome"})
	checkoutSubmissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkout_submissions_total",
		Help: "Checkout submissions by payment method and outcome.",
	}, []string{"method", "outcome"})
	bookkeepingFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_order_bookkeeping_failures_total",
		Help: "Orders that failed to record after a payment session was created.",
	})
	pollAttempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_payment_poll_attempts_total",
		Help: "Payment status queries by result.",
	}, []string{"result"})
	verifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_payment_verifications_total",
		Help: "Completed payment verifications by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(apiDuration, checkoutSubmissions, bookkeepingFailures, pollAttempts, verifications)
	return &StorefrontMetrics{
		apiDuration:         apiDuration,
		checkoutSubmissions: checkoutSubmissions,
		bookkeepingFailures: bookkeepingFailures,
		pollAttempts:        pollAttempts,
		verifications:       verifications,
	}
}

// ObserveRequest records the latency of one backend operation.
func (m *StorefrontMetrics) ObserveRequest(operation, outcome string, duration time.Duration) {
	if m == nil || m.apiDuration == nil {
		return
	}
	m.apiDuration.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Observe(duration.Seconds())
}

func (m *StorefrontMetrics) IncCheckoutSubmission(method, outcome string) {
	if m == nil || m.checkoutSubmissions == nil {
		return
	}
	m.checkoutSubmissions.WithLabelValues(normalizeLabel(method), normalizeLabel(outcome)).Inc()
}

func (m *StorefrontMetrics) IncBookkeepingFailure() {
	if m == nil || m.bookkeepingFailures == nil {
		return
	}
	m.bookkeepingFailures.Inc()
}

func (m *StorefrontMetrics) IncPollAttempt(result string) {
	if m == nil || m.pollAttempts == nil {
		return
	}
	m.pollAttempts.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *StorefrontMetrics) IncVerification(outcome string) {
	if m == nil || m.verifications == nil {
		return
	}
	m.verifications.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
