package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceledger/internal/domain"
	"invoiceledger/internal/metrics"
)

func TestObserveInvoice(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveInvoice(domain.InvoiceSourceEmail, metrics.OutcomeApplied, 2)
	m.ObserveInvoice(domain.InvoiceSourceEmail, metrics.OutcomeApplied, 0)
	m.ObserveInvoice(domain.InvoiceSourceUpload, metrics.OutcomeDuplicate, 0)

	n, err := testutil.GatherAndCount(reg, "invoiceledger_invoices_processed_total", "invoiceledger_invoice_skipped_lines_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestObserveMailboxPollAndHTTP(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveMailboxPoll(nil)
	m.ObserveMailboxPoll(errors.New("dial tcp: timeout"))
	m.ObserveHTTP("GET", "/api/v1/projects", 200, 15*time.Millisecond)

	n, err := testutil.GatherAndCount(reg, "invoiceledger_mailbox_polls_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = testutil.GatherAndCount(reg, "invoiceledger_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.ObserveInvoice(domain.InvoiceSourceUpload, metrics.OutcomeFailed, 1)
		m.ObserveMailboxPoll(nil)
		m.ObserveHTTP("GET", "/healthz", 200, time.Millisecond)
	})
}
