package mocks

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"invoiceledger/internal/domain"
	"invoiceledger/internal/service"
)

// MockIngestionService is a mock implementation of service.IngestionService.
type MockIngestionService struct {
	mock.Mock
}

func (m *MockIngestionService) ApplyUpload(ctx context.Context, projectID uuid.UUID, filename string, r io.Reader) (*domain.ParsedInvoice, error) {
	args := m.Called(ctx, projectID, filename, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParsedInvoice), args.Error(1)
}

func (m *MockIngestionService) ProcessMailbox(ctx context.Context) (*service.IngestionReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IngestionReport), args.Error(1)
}
