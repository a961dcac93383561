package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Total HTTP requests partitioned by method, route, and status code
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	// Request duration in seconds partitioned by method, route, and status code
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// In-flight HTTP requests
	httpInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	ticketsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_tickets_created_total",
			Help: "Tickets created, partitioned by resolved priority and department",
		},
		[]string{"priority", "department"},
	)

	assignmentRuleMatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_assignment_rule_evaluations_total",
			Help: "Assignment rule evaluations at intake, partitioned by whether a rule matched",
		},
		[]string{"matched"},
	)

	formRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedback_form_rejections_total",
			Help: "Form submissions rejected by dynamic field validation",
		},
	)

	formFieldErrors = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedback_form_field_errors",
			Help:    "Number of failing fields per rejected form submission",
			Buckets: []float64{1, 2, 3, 5, 8, 13},
		},
	)

	ticketNumberCollisionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedback_ticket_number_collisions_total",
			Help: "Ticket number unique violations that triggered a retry",
		},
	)
)

// IntakeMetrics records ticket intake observations in Prometheus
type IntakeMetrics struct{}

func NewIntakeMetrics() *IntakeMetrics { return &IntakeMetrics{} }

func (IntakeMetrics) TicketCreated(priority, department string) {
	ticketsCreatedTotal.WithLabelValues(priority, department).Inc()
}

func (IntakeMetrics) RuleMatched(matched bool) {
	assignmentRuleMatchesTotal.WithLabelValues(strconv.FormatBool(matched)).Inc()
}

func (IntakeMetrics) FormRejected(failedFields int) {
	formRejectionsTotal.Inc()
	formFieldErrors.Observe(float64(failedFields))
}

func (IntakeMetrics) TicketNumberCollision() {
	ticketNumberCollisionsTotal.Inc()
}

// Metrics returns a Fiber v3 middleware that records basic Prometheus metrics.
// Labels are kept low-cardinality by using the matched route path when available.
func Metrics() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		// Call the next handler in the chain
		err := c.Next()

		status := c.Response().StatusCode()
		method := c.Method()
		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path // Use route template to avoid high cardinality
		}

		labels := prometheus.Labels{
			"method": method,
			"route":  route,
			"status": strconv.Itoa(status),
		}
		httpRequestsTotal.With(labels).Inc()
		httpRequestDuration.With(labels).Observe(time.Since(start).Seconds())

		return err
	}
}
