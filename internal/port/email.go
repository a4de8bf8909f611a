package port

import (
	"context"

	"invoiceledger/internal/domain"
)

// InvoiceNotice describes an applied invoice that needs the operator's attention.
type InvoiceNotice struct {
	ProjectName string
	Source      domain.InvoiceSource
	Filename    string
	Invoice     *domain.ParsedInvoice
}

// Notifier tells the operator about invoices that were applied with warnings.
type Notifier interface {
	NotifyInvoiceWarnings(ctx context.Context, notice InvoiceNotice) error
}
