// Package metrics holds the prometheus collectors of the service. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"invoiceledger/internal/domain"
)

// Invoice outcomes.
const (
	OutcomeApplied   = "applied"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// Metrics groups the collectors.
type Metrics struct {
	invoices     *prometheus.CounterVec
	skippedLines *prometheus.CounterVec
	mailboxPolls *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		invoices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invoiceledger",
			Name:      "invoices_processed_total",
			Help:      "Invoice documents processed, by source and outcome.",
		}, []string{"source", "outcome"}),
		skippedLines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invoiceledger",
			Name:      "invoice_skipped_lines_total",
			Help:      "Item rows that could not be read from invoice documents.",
		}, []string{"source"}),
		mailboxPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invoiceledger",
			Name:      "mailbox_polls_total",
			Help:      "Mailbox polls, by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invoiceledger",
			Name:      "http_requests_total",
			Help:      "HTTP requests, by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "invoiceledger",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.invoices, m.skippedLines, m.mailboxPolls, m.httpRequests, m.httpDuration)
	return m
}

// ObserveInvoice counts one processed invoice document.
func (m *Metrics) ObserveInvoice(source domain.InvoiceSource, outcome string, skippedLines int) {
	if m == nil {
		return
	}
	m.invoices.WithLabelValues(string(source), outcome).Inc()
	if skippedLines > 0 {
		m.skippedLines.WithLabelValues(string(source)).Add(float64(skippedLines))
	}
}

// ObserveMailboxPoll counts one mailbox poll.
func (m *Metrics) ObserveMailboxPoll(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.mailboxPolls.WithLabelValues(result).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
