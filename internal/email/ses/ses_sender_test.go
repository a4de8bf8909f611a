package ses

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"invoiceledger/internal/domain"
	"invoiceledger/internal/port"
)

func sampleNotice() port.InvoiceNotice {
	inv := &domain.ParsedInvoice{InvoiceNumber: "1001", SkippedLines: []string{"PVC-200"}}
	inv.AddWarning("extension is not a number and was counted as 0 (sku PVC-200)")
	inv.AddWarning("<b>odd</b>")
	return port.InvoiceNotice{
		ProjectName: "450DOCKRD",
		Source:      domain.InvoiceSourceEmail,
		Filename:    "1001.pdf",
		Invoice:     inv,
	}
}

func TestBuildSubject(t *testing.T) {
	n := sampleNotice()
	assert.Equal(t, "Invoice 1001 applied to 450DOCKRD with warnings", buildSubject(n))

	n.Invoice.InvoiceNumber = ""
	assert.Equal(t, "Invoice (no number) applied to 450DOCKRD with warnings", buildSubject(n))
}

func TestBuildWarningText(t *testing.T) {
	text := buildWarningText(sampleNotice())

	assert.Contains(t, text, "Project: 450DOCKRD")
	assert.Contains(t, text, "  - extension is not a number and was counted as 0 (sku PVC-200)\n")
	assert.Contains(t, text, "Skipped lines: PVC-200")
}

func TestBuildWarningHTML_Escapes(t *testing.T) {
	body := buildWarningHTML(sampleNotice())

	assert.Contains(t, body, "<li>&lt;b&gt;odd&lt;/b&gt;</li>")
	assert.NotContains(t, body, "<b>odd</b>")
}
