package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoiceledger/internal/port"
)

// MockMailbox is a mock implementation of port.Mailbox.
type MockMailbox struct {
	mock.Mock
}

func (m *MockMailbox) FetchUnread(ctx context.Context, filter port.MailFilter) ([]port.MailMessage, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]port.MailMessage), args.Error(1)
}

func (m *MockMailbox) MarkSeen(ctx context.Context, uid uint32) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}
