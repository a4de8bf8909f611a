// Package export renders a project's ledger as CSV or XLSX.
package export

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"invoiceledger/internal/domain"
)

// Format is a supported export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ContentTypes maps export formats to their MIME types.
var ContentTypes = map[Format]string{
	FormatCSV:  "text/csv; charset=utf-8",
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// ParseFormat resolves a query value to a Format. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedExportFormat, s)
	}
}

var itemColumns = []string{
	"SKU",
	"Material Name",
	"Quantity",
	"Received",
	"Total Paid",
	"Ordered",
	"UM",
	"Location",
	"Units",
	"Price Per",
	"Updated At",
}

var invoiceColumns = []string{
	"Invoice Number",
	"Total Price",
	"Address",
	"Item Count",
	"Source",
	"Applied At",
}

// itemToRow converts a budget item to a row matching itemColumns. Items that
// were never pre-declared have an empty quantity.
func itemToRow(item *domain.BudgetItem) []string {
	qty := ""
	if item.Quantity != domain.UnknownQuantity {
		qty = strconv.Itoa(item.Quantity)
	}
	ordered := ""
	if item.ExtraData.Ordered != 0 {
		ordered = strconv.Itoa(item.ExtraData.Ordered)
	}
	return []string{
		item.SKU,
		item.MaterialName,
		qty,
		strconv.Itoa(item.Received),
		item.TotalPaid.StringFixed(2),
		ordered,
		item.ExtraData.UnitMeasurement,
		item.ExtraData.Location,
		item.ExtraData.Units,
		item.ExtraData.PricePer,
		item.UpdatedAt.Format(time.RFC3339),
	}
}

func invoiceToRow(inv *domain.UsedInvoice) []string {
	return []string{
		inv.InvoiceNumber,
		inv.TotalPrice.StringFixed(2),
		inv.Address,
		strconv.Itoa(inv.ItemCount),
		string(inv.Source),
		inv.AppliedAt.Format(time.RFC3339),
	}
}

func totalRow(p *domain.Project) []string {
	row := make([]string, len(itemColumns))
	row[0] = "TOTAL"
	row[4] = p.TotalCost.StringFixed(2)
	return row
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a project name for use in Content-Disposition.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "ledger"
	}
	return s
}

// BuildFilename returns {sanitized_name}_{YYYY-MM-DD}.{format}.
func BuildFilename(projectName string, f Format, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", SanitizeFilename(projectName), now.Format("2006-01-02"), f)
}
