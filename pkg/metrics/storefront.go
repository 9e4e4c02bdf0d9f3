package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StorefrontMetrics records cart, checkout and HTTP activity for the local agent.
type StorefrontMetrics struct {
	cartMutations        *prometheus.CounterVec
	checkoutSubmissions  *prometheus.CounterVec
	paymentVerifications *prometheus.CounterVec
	httpDuration         *prometheus.HistogramVec
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
// A nil registerer yields a recorder that drops every observation.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Completed cart mutations by operation.",
	}, []string{"operation"})
	checkoutSubmissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_submissions_total",
		Help: "Checkout submit attempts by final state.",
	}, []string{"state"})
	paymentVerifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verifications_total",
		Help: "Payment callback verifications by outcome.",
	}, []string{"outcome"})
	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of local HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	reg.MustRegister(cartMutations, checkoutSubmissions, paymentVerifications, httpDuration)
	return &StorefrontMetrics{
		cartMutations:        cartMutations,
		checkoutSubmissions:  checkoutSubmissions,
		paymentVerifications: paymentVerifications,
		httpDuration:         httpDuration,
	}
}

// CartMutated counts one completed cart mutation.
func (m *StorefrontMetrics) CartMutated(operation string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(operation)).Inc()
}

// CheckoutSubmitted counts a submit attempt by the state it ended in.
func (m *StorefrontMetrics) CheckoutSubmitted(state string) {
	if m == nil || m.checkoutSubmissions == nil {
		return
	}
	m.checkoutSubmissions.WithLabelValues(normalizeLabel(state)).Inc()
}

// PaymentVerified counts one callback verification by outcome.
func (m *StorefrontMetrics) PaymentVerified(outcome string) {
	if m == nil || m.paymentVerifications == nil {
		return
	}
	m.paymentVerifications.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveHTTPRequest records the duration of a served request.
func (m *StorefrontMetrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil || m.httpDuration == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, normalizeLabel(route), strconv.Itoa(status)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
