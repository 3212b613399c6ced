package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records how checkout submissions and their payments fare.
type CheckoutMetrics struct {
	duration       *prometheus.HistogramVec
	ordersCreated  prometheus.Counter
	paymentOutcome *prometheus.CounterVec
	webhookEvents  *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout submissions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orders_created_total",
		Help: "Supplier orders persisted by checkout submissions.",
	})
	paymentOutcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_payment_attempts_total",
		Help: "Payment attempts by outcome.",
	}, []string{"outcome"})
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_webhook_events_total",
		Help: "Settlement webhook events by source and result.",
	}, []string{"source", "result"})
	reg.MustRegister(duration, ordersCreated, paymentOutcome, webhookEvents)
	return &CheckoutMetrics{
		duration:       duration,
		ordersCreated:  ordersCreated,
		paymentOutcome: paymentOutcome,
		webhookEvents:  webhookEvents,
	}
}

// ObserveDuration records the duration of one submission with its outcome.
func (c *CheckoutMetrics) ObserveDuration(outcome string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncOrdersCreated counts persisted supplier orders.
func (c *CheckoutMetrics) IncOrdersCreated(n int) {
	if c == nil || c.ordersCreated == nil || n <= 0 {
		return
	}
	c.ordersCreated.Add(float64(n))
}

// IncPaymentOutcome counts one payment attempt result.
func (c *CheckoutMetrics) IncPaymentOutcome(outcome string) {
	if c == nil || c.paymentOutcome == nil {
		return
	}
	c.paymentOutcome.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncWebhookEvent counts one settlement webhook delivery.
func (c *CheckoutMetrics) IncWebhookEvent(source, result string) {
	if c == nil || c.webhookEvents == nil {
		return
	}
	c.webhookEvents.WithLabelValues(normalizeLabel(source), normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
