package noop

import (
	"context"

	"github.com/rs/zerolog"

	"invoiceledger/internal/logger"
	"invoiceledger/internal/port"
)

type noopSender struct {
	log zerolog.Logger
}

// NewNoopSender creates a Notifier that only logs the warnings.
func NewNoopSender() port.Notifier {
	return &noopSender{log: logger.WithComponent("notifier")}
}

func (s *noopSender) NotifyInvoiceWarnings(_ context.Context, n port.InvoiceNotice) error {
	s.log.Info().
		Str("project", n.ProjectName).
		Str("source", string(n.Source)).
		Str("filename", n.Filename).
		Str("invoice", n.Invoice.InvoiceNumber).
		Strs("skipped", n.Invoice.SkippedLines).
		Str("warnings", n.Invoice.ErrorMessage).
		Msg("[NOOP EMAIL] invoice applied with warnings")
	return nil
}
