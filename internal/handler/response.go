package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"invoiceledger/internal/domain"
	"invoiceledger/internal/logger"
	"invoiceledger/internal/middleware"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *ListMeta   `json:"meta,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ListMeta holds collection metadata.
type ListMeta struct {
	Total int `json:"total"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondList sends a 200 success response with the item count.
func RespondList(c *gin.Context, data interface{}, total int) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &ListMeta{Total: total}})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrProjectNotFound):
		return http.StatusNotFound, "PROJECT_NOT_FOUND", "project not found"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials"
	case errors.Is(err, domain.ErrDuplicateProjectName):
		return http.StatusConflict, "DUPLICATE_PROJECT_NAME", "a project with that name already exists"
	case errors.Is(err, domain.ErrProjectNameRequired):
		return http.StatusBadRequest, "PROJECT_NAME_REQUIRED", "project name is required"
	case errors.Is(err, domain.ErrInvalidBudgetItem):
		return http.StatusBadRequest, "INVALID_BUDGET_ITEM", domain.ErrInvalidBudgetItem.Error()
	case errors.Is(err, domain.ErrDuplicateSKU):
		return http.StatusBadRequest, "DUPLICATE_SKU", "sku appears more than once in this project"
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type; allowed: pdf"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrUnreadablePDF):
		return http.StatusUnprocessableEntity, "UNREADABLE_PDF", "pdf could not be read"
	case errors.Is(err, domain.ErrNoExtractableText):
		return http.StatusUnprocessableEntity, "NO_EXTRACTABLE_TEXT", "document contains no extractable text"
	case errors.Is(err, domain.ErrInvalidTotal):
		return http.StatusUnprocessableEntity, "INVALID_TOTAL", "invoice total could not be parsed"
	case errors.Is(err, domain.ErrAddressMissing):
		return http.StatusUnprocessableEntity, "ADDRESS_MISSING", "invoice has no ship-to address"
	case errors.Is(err, domain.ErrUnsupportedExportFormat):
		return http.StatusBadRequest, "UNSUPPORTED_EXPORT_FORMAT", "unsupported export format; allowed: csv, xlsx"
	case errors.Is(err, domain.ErrIngestionInProgress):
		return http.StatusConflict, "INGESTION_IN_PROGRESS", "mailbox ingestion already running"
	case errors.Is(err, domain.ErrMailboxDisabled):
		return http.StatusServiceUnavailable, "MAILBOX_DISABLED", "mailbox ingestion is not configured"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		log := logger.WithRequestID(c.GetString(middleware.ContextKeyRequestID))
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("internal error")
	}
	RespondError(c, status, code, msg)
}

// parseID reads the :id path parameter. Returns false if the response was
// already written.
func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid project ID")
		return uuid.Nil, false
	}
	return id, true
}
