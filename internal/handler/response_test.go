package handler_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"invoiceledger/internal/domain"
	"invoiceledger/internal/handler"
)

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrProjectNotFound, http.StatusNotFound, "PROJECT_NOT_FOUND"},
		{fmt.Errorf("projectRepo.GetByID: %w", domain.ErrProjectNotFound), http.StatusNotFound, "PROJECT_NOT_FOUND"},
		{domain.ErrDuplicateProjectName, http.StatusConflict, "DUPLICATE_PROJECT_NAME"},
		{domain.ErrProjectNameRequired, http.StatusBadRequest, "PROJECT_NAME_REQUIRED"},
		{domain.ErrInvalidBudgetItem, http.StatusBadRequest, "INVALID_BUDGET_ITEM"},
		{domain.ErrDuplicateSKU, http.StatusBadRequest, "DUPLICATE_SKU"},
		{fmt.Errorf("ledger.Reconcile: %w: %q", domain.ErrInvalidTotal, "N/A"), http.StatusUnprocessableEntity, "INVALID_TOTAL"},
		{domain.ErrUnreadablePDF, http.StatusUnprocessableEntity, "UNREADABLE_PDF"},
		{domain.ErrNoExtractableText, http.StatusUnprocessableEntity, "NO_EXTRACTABLE_TEXT"},
		{domain.ErrAddressMissing, http.StatusUnprocessableEntity, "ADDRESS_MISSING"},
		{domain.ErrUnsupportedFileType, http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE"},
		{domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
		{domain.ErrIngestionInProgress, http.StatusConflict, "INGESTION_IN_PROGRESS"},
		{domain.ErrMailboxDisabled, http.StatusServiceUnavailable, "MAILBOX_DISABLED"},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{domain.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, code, _ := handler.MapDomainError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}
