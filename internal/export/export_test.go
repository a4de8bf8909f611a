package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"invoiceledger/internal/domain"
)

var updated = time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)

func sampleProject() *domain.Project {
	return &domain.Project{
		Name:      "450 Dock Rd.",
		TotalCost: decimal.RequireFromString("61.50"),
		BudgetItems: []domain.BudgetItem{
			{SKU: "PVC-200", MaterialName: "PVC PIPE", Quantity: 12, Received: 10, TotalPaid: decimal.RequireFromString("45"), UpdatedAt: updated},
			{
				SKU: "SCR-10", MaterialName: "SCREWS", Quantity: domain.UnknownQuantity, Received: 3,
				TotalPaid: decimal.RequireFromString("16.5"), UpdatedAt: updated,
				ExtraData: domain.ItemExtraData{Ordered: 5, UnitMeasurement: "EA", Location: "A1", Units: "BOX", PricePer: "5.50"},
			},
		},
		UsedInvoices: []domain.UsedInvoice{
			{InvoiceNumber: "1001", TotalPrice: decimal.RequireFromString("61.5"), Address: "450DOCKRD", ItemCount: 2, Source: domain.InvoiceSourceEmail, AppliedAt: updated},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatCSV, false},
		{"CSV", FormatCSV, false},
		{" xlsx ", FormatXLSX, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrUnsupportedExportFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleProject()))

	require.True(t, bytes.HasPrefix(buf.Bytes(), BOM))
	rows, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, itemColumns, rows[0])
	assert.Equal(t, []string{"PVC-200", "PVC PIPE", "12", "10", "45.00", "", "", "", "", "", "2025-03-04T10:00:00Z"}, rows[1])
	assert.Equal(t, "", rows[2][2], "undeclared quantity is left blank")
	assert.Equal(t, "5", rows[2][5])
	assert.Equal(t, "16.50", rows[2][4])
	assert.Equal(t, "TOTAL", rows[3][0])
	assert.Equal(t, "61.50", rows[3][4])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleProject()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	ledger, err := f.GetRows(ledgerSheet)
	require.NoError(t, err)
	require.Len(t, ledger, 4)
	assert.Equal(t, "SKU", ledger[0][0])
	assert.Equal(t, "SCR-10", ledger[2][0])
	assert.Equal(t, "61.50", ledger[3][4])

	invoices, err := f.GetRows(invoicesSheet)
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	assert.Equal(t, []string{"1001", "61.50", "450DOCKRD", "2", "email", "2025-03-04T10:00:00Z"}, invoices[1])
}

func TestBuildFilename(t *testing.T) {
	assert.Equal(t, "450_Dock_Rd_2025-03-04.xlsx", BuildFilename("450 Dock Rd.", FormatXLSX, updated))
	assert.Equal(t, "ledger_2025-03-04.csv", BuildFilename("***", FormatCSV, updated))
}
