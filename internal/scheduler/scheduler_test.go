package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"invoiceledger/internal/domain"
	"invoiceledger/internal/service"
	"invoiceledger/mocks"
)

func TestStart_InvalidSchedule(t *testing.T) {
	s := NewScheduler(new(mocks.MockIngestionService), "not a schedule")
	assert.Error(t, s.Start())
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(new(mocks.MockIngestionService), "@every 1h")
	assert.NoError(t, s.Start())
	<-s.Stop().Done()
}

func TestProcessMailbox(t *testing.T) {
	tests := []struct {
		name   string
		report *service.IngestionReport
		err    error
	}{
		{"completed", &service.IngestionReport{ProcessedCount: 2, Message: "Successfully processed 2 invoices from email"}, nil},
		{"overlapping run", nil, domain.ErrIngestionInProgress},
		{"failure", nil, errors.New("imap dial: connection refused")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ing := new(mocks.MockIngestionService)
			ing.On("ProcessMailbox", mock.Anything).Return(tt.report, tt.err).Once()

			s := NewScheduler(ing, "@every 1h")
			s.processMailbox()

			ing.AssertExpectations(t)
		})
	}
}

func TestRunNow(t *testing.T) {
	ing := new(mocks.MockIngestionService)
	done := make(chan struct{})
	ing.On("ProcessMailbox", mock.Anything).
		Return(&service.IngestionReport{Message: service.MsgNoNewInvoices}, nil).
		Run(func(mock.Arguments) { close(done) }).
		Once()

	NewScheduler(ing, "@every 1h").RunNow()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("mailbox run was not triggered")
	}
}
