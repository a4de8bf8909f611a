package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"invoiceledger/internal/service"
)

// InvoiceHandler handles invoice ingestion endpoints.
type InvoiceHandler struct {
	ingestionService service.IngestionService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(ingestionService service.IngestionService) *InvoiceHandler {
	return &InvoiceHandler{ingestionService: ingestionService}
}

// ApplyPDF handles POST /api/v1/projects/:id/apply-pdf
// The response carries the parsed invoice, flagged when it was already used.
func (h *InvoiceHandler) ApplyPDF(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_FILE", "could not read uploaded file")
		return
	}
	defer file.Close()

	inv, err := h.ingestionService.ApplyUpload(c.Request.Context(), id, fileHeader.Filename, file)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, inv)
}

// ProcessInvoices handles POST /api/v1/process-invoices
func (h *InvoiceHandler) ProcessInvoices(c *gin.Context) {
	report, err := h.ingestionService.ProcessMailbox(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, report)
}
