package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"invoiceledger/internal/export"
	"invoiceledger/internal/service"
)

// ProjectHandler handles project and ledger endpoints.
type ProjectHandler struct {
	projectService service.ProjectService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

type budgetItemRequest struct {
	SKU          string           `json:"sku"`
	MaterialName string           `json:"material_name"`
	Quantity     int              `json:"quantity"`
	Received     int              `json:"received"`
	TotalPaid    *decimal.Decimal `json:"total_paid"`
}

type createProjectRequest struct {
	Name        string              `json:"name"`
	BudgetItems []budgetItemRequest `json:"budget_items"`
}

type updateProjectRequest struct {
	Name        *string             `json:"name"`
	BudgetItems []budgetItemRequest `json:"budget_items"`
}

func toItemInputs(items []budgetItemRequest) []service.BudgetItemInput {
	if items == nil {
		return nil
	}
	out := make([]service.BudgetItemInput, len(items))
	for i, it := range items {
		out[i] = service.BudgetItemInput{
			SKU:          it.SKU,
			MaterialName: it.MaterialName,
			Quantity:     it.Quantity,
			Received:     it.Received,
			TotalPaid:    it.TotalPaid,
		}
	}
	return out
}

// Create handles POST /api/v1/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), &service.CreateProjectInput{
		Name:  req.Name,
		Items: toItemInputs(req.BudgetItems),
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, project)
}

// List handles GET /api/v1/projects
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projectService.List(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondList(c, projects, len(projects))
}

// Get handles GET /api/v1/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	project, err := h.projectService.Get(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, project)
}

// Update handles PUT /api/v1/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	project, err := h.projectService.Update(c.Request.Context(), &service.UpdateProjectInput{
		ID:    id,
		Name:  req.Name,
		Items: toItemInputs(req.BudgetItems),
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, project)
}

// Delete handles DELETE /api/v1/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.projectService.Delete(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "project deleted"})
}

// ListInvoices handles GET /api/v1/projects/:id/invoices
func (h *ProjectHandler) ListInvoices(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	invoices, err := h.projectService.ListInvoices(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondList(c, invoices, len(invoices))
}

// Export handles GET /api/v1/projects/:id/export?format=csv|xlsx
func (h *ProjectHandler) Export(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		HandleError(c, err)
		return
	}

	project, err := h.projectService.Get(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	var buf bytes.Buffer
	if format == export.FormatXLSX {
		err = export.WriteXLSX(&buf, project)
	} else {
		err = export.WriteCSV(&buf, project)
	}
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := export.BuildFilename(project.Name, format, time.Now())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, export.ContentTypes[format], buf.Bytes())
}
