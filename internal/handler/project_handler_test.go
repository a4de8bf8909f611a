package handler_test

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invoiceledger/internal/domain"
	"invoiceledger/internal/export"
	"invoiceledger/internal/handler"
	"invoiceledger/internal/service"
	"invoiceledger/mocks"
)

func withID(c *gin.Context, id string) {
	c.Params = gin.Params{{Key: "id", Value: id}}
}

func TestProjectHandler_Create(t *testing.T) {
	svc := new(mocks.MockProjectService)
	h := handler.NewProjectHandler(svc)

	id := uuid.New()
	svc.On("Create", mock.Anything, mock.MatchedBy(func(in *service.CreateProjectInput) bool {
		return in.Name == "123MAINST" && len(in.Items) == 1 &&
			in.Items[0].SKU == "PVC-200" && in.Items[0].MaterialName == "PVC PIPE" && in.Items[0].Quantity == 12
	})).Return(&domain.Project{ID: id, Name: "123MAINST"}, nil)

	c, w := newJSONContext(http.MethodPost, "/api/v1/projects", map[string]interface{}{
		"name": "123MAINST",
		"budget_items": []map[string]interface{}{
			{"sku": "PVC-200", "material_name": "PVC PIPE", "quantity": 12, "received": 0},
		},
	})
	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), id.String())
	svc.AssertExpectations(t)
}

func TestProjectHandler_Create_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"duplicate name", domain.ErrDuplicateProjectName, http.StatusConflict, "DUPLICATE_PROJECT_NAME"},
		{"invalid item", domain.ErrInvalidBudgetItem, http.StatusBadRequest, "INVALID_BUDGET_ITEM"},
		{"missing name", domain.ErrProjectNameRequired, http.StatusBadRequest, "PROJECT_NAME_REQUIRED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.MockProjectService)
			h := handler.NewProjectHandler(svc)
			svc.On("Create", mock.Anything, mock.Anything).Return(nil, tt.err)

			c, w := newJSONContext(http.MethodPost, "/api/v1/projects", map[string]interface{}{"name": "x"})
			h.Create(c)

			assertErrorCode(t, w, tt.status, tt.code)
		})
	}
}

func TestProjectHandler_Create_MalformedJSON(t *testing.T) {
	h := handler.NewProjectHandler(new(mocks.MockProjectService))

	c, w := newJSONContext(http.MethodPost, "/api/v1/projects", nil)
	c.Request.Body = http.NoBody
	h.Create(c)

	assertErrorCode(t, w, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestProjectHandler_List(t *testing.T) {
	svc := new(mocks.MockProjectService)
	h := handler.NewProjectHandler(svc)
	svc.On("List", mock.Anything).Return([]domain.Project{{Name: "B"}, {Name: "A"}}, nil)

	c, w := newJSONContext(http.MethodGet, "/api/v1/projects", nil)
	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 2, resp.Meta.Total)
}

func TestProjectHandler_Get(t *testing.T) {
	svc := new(mocks.MockProjectService)
	h := handler.NewProjectHandler(svc)
	id := uuid.New()
	svc.On("Get", mock.Anything, id).Return(&domain.Project{ID: id, Name: "123MAINST"}, nil)

	c, w := newJSONContext(http.MethodGet, "/api/v1/projects/"+id.String(), nil)
	withID(c, id.String())
	h.Get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "123MAINST")
}

func TestProjectHandler_Get_NotFound(t *testing.T) {
	svc := new(mocks.MockProjectService)
	h := handler.NewProjectHandler(svc)
	id := uuid.New()
	svc.On("Get", mock.Anything, id).Return(nil, domain.ErrProjectNotFound)

	c, w := newJSONContext(http.MethodGet, "/api/v1/projects/"+id.String(), nil)
	withID(c, id.String())
	h.Get(c)

	assertErrorCode(t, w, http.StatusNotFound, "PROJECT_NOT_FOUND")
}

func TestProjectHandler_Get_InvalidID(t *testing.T) {
	svc := new(mocks.MockProjectService)
	h := handler.NewProjectHandler(svc)

	c, w := newJSONContext(http.MethodGet, "/api/v1/projects/abc", nil)
	withID(c, "abc")
	h.Get(c)

	assertErrorCode(t, w, http.StatusBadRequest, "INVALID_ID")
	svc.AssertNotCalled(t, "Get")
}

func TestProjectHandler_Update(t *testing.T) {
	svc := new(mocks.MockProjectService)
	h := handler.NewProjectHandler(svc)
	id := uuid.New()

	svc.On("Update", mock.Anything, mock.MatchedBy(func(in *service.UpdateProjectInput) bool {
		return in.ID == id && in.Name == nil && len(in.Items) == 1 &&
			in.Items[0].TotalPaid != nil && in.Items[0].TotalPaid.Equal(decimal.RequireFromString("12.5"))
	})).Return(&domain.Project{ID: id}, nil)

	c, w := newJSONContext(http.MethodPut, "/api/v1/projects/"+id.String(), map[string]interface{}{
		"budget_items": []map[string]interface{}{
			{"sku": "PVC-200", "material_name": "PVC PIPE", "quantity": 12, "received": 4, "total_paid": "12.50"},
		},
	})
	withID(c, id.String())
	h.Update(c)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestProjectHandler_Delete(t *testing.T) {
	svc := new(mocks.MockProjectService)
	h := handler.NewProjectHandler(svc)
	id := uuid.New()
	svc.On("Delete", mock.Anything, id).Return(nil)

	c, w := newJSONContext(http.MethodDelete, "/api/v1/projects/"+id.String(), nil)
	withID(c, id.String())
	h.Delete(c)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestProjectHandler_ListInvoices(t *testing.T) {
	svc := new(mocks.MockProjectService)
	h := handler.NewProjectHandler(svc)
	id := uuid.New()
	svc.On("ListInvoices", mock.Anything, id).Return([]domain.UsedInvoice{{InvoiceNumber: "1001"}}, nil)

	c, w := newJSONContext(http.MethodGet, "/api/v1/projects/"+id.String()+"/invoices", nil)
	withID(c, id.String())
	h.ListInvoices(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "1001")
}

func TestProjectHandler_ExportCSV(t *testing.T) {
	svc := new(mocks.MockProjectService)
	h := handler.NewProjectHandler(svc)
	id := uuid.New()
	svc.On("Get", mock.Anything, id).Return(&domain.Project{
		ID:          id,
		Name:        "123MAINST",
		TotalCost:   decimal.RequireFromString("10"),
		BudgetItems: []domain.BudgetItem{{SKU: "PVC-200", MaterialName: "PVC PIPE", Quantity: 12, Received: 2}},
	}, nil)

	c, w := newJSONContext(http.MethodGet, "/api/v1/projects/"+id.String()+"/export", nil)
	withID(c, id.String())
	h.Export(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentTypes[export.FormatCSV], w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "123MAINST_")

	rows, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(w.Body.Bytes(), export.BOM))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "PVC-200", rows[1][0])
}

func TestProjectHandler_Export_UnsupportedFormat(t *testing.T) {
	svc := new(mocks.MockProjectService)
	h := handler.NewProjectHandler(svc)
	id := uuid.New()

	c, w := newJSONContext(http.MethodGet, "/api/v1/projects/"+id.String()+"/export?format=pdf", nil)
	withID(c, id.String())
	h.Export(c)

	assertErrorCode(t, w, http.StatusBadRequest, "UNSUPPORTED_EXPORT_FORMAT")
	svc.AssertNotCalled(t, "Get")
}
