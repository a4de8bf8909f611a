package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoiceledger/internal/port"
)

// MockNotifier is a mock implementation of port.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyInvoiceWarnings(ctx context.Context, notice port.InvoiceNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}
