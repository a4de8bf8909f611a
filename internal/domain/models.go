package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Project is a budget-tracked purchase order with its ledger of materials.
type Project struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	Name         string          `db:"name" json:"name"`
	TotalCost    decimal.Decimal `db:"total_cost" json:"total_cost"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
	BudgetItems  []BudgetItem    `db:"-" json:"budget_items"`
	UsedInvoices []UsedInvoice   `db:"-" json:"-"`
}

// FindItem returns the budget item with the given sku, or nil.
func (p *Project) FindItem(sku string) *BudgetItem {
	for i := range p.BudgetItems {
		if p.BudgetItems[i].SKU == sku {
			return &p.BudgetItems[i]
		}
	}
	return nil
}

// IsInvoiceUsed reports whether the invoice number was already applied.
func (p *Project) IsInvoiceUsed(invoiceNumber string) bool {
	for i := range p.UsedInvoices {
		if p.UsedInvoices[i].InvoiceNumber == invoiceNumber {
			return true
		}
	}
	return false
}

// BudgetItem is one sku-keyed ledger row of a project.
type BudgetItem struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	ProjectID    uuid.UUID       `db:"project_id" json:"project_id"`
	SKU          string          `db:"sku" json:"sku"`
	MaterialName string          `db:"material_name" json:"material_name"`
	Quantity     int             `db:"quantity" json:"quantity"`
	Received     int             `db:"received" json:"received"`
	TotalPaid    decimal.Decimal `db:"total_paid" json:"total_paid"`
	ExtraData    ItemExtraData   `db:"extra_data" json:"extra_data"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// ItemExtraData is the invoice metadata captured when an item is created from
// an invoice line. Stored as JSONB.
type ItemExtraData struct {
	Ordered         int    `json:"ordered,omitempty"`
	UnitMeasurement string `json:"um,omitempty"`
	Location        string `json:"location,omitempty"`
	Units           string `json:"units,omitempty"`
	PricePer        string `json:"price_per,omitempty"`
}

// Value implements driver.Valuer.
func (e ItemExtraData) Value() (driver.Value, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Scan implements sql.Scanner.
func (e *ItemExtraData) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*e = ItemExtraData{}
		return nil
	case []byte:
		return json.Unmarshal(v, e)
	case string:
		return json.Unmarshal([]byte(v), e)
	default:
		return fmt.Errorf("ItemExtraData.Scan: unsupported type %T", src)
	}
}

// UsedInvoice is an entry in a project's append-only log of applied invoices.
type UsedInvoice struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	ProjectID     uuid.UUID       `db:"project_id" json:"project_id"`
	InvoiceNumber string          `db:"invoice_number" json:"invoice_number"`
	TotalPrice    decimal.Decimal `db:"total_price" json:"total_price"`
	Address       string          `db:"address" json:"address"`
	ItemCount     int             `db:"item_count" json:"item_count"`
	Source        InvoiceSource   `db:"source" json:"source"`
	Payload       json.RawMessage `db:"payload" json:"payload"`
	AppliedAt     time.Time       `db:"applied_at" json:"applied_at"`
}

// LineItem is one shipped row of an invoice's item table.
type LineItem struct {
	Line            string `json:"line"`
	ShippedQty      int    `json:"shipped"`
	OrderedQty      int    `json:"ordered"`
	UnitMeasurement string `json:"unit_measurement"`
	SKU             string `json:"sku"`
	Description     string `json:"description"`
	Location        string `json:"location"`
	Units           string `json:"units"`
	PricePer        string `json:"price_per"`
	Extension       Amount `json:"extension"`
}

// ParsedInvoice is the structured result of parsing one invoice document.
// It lives for a single reconciliation call.
type ParsedInvoice struct {
	InvoiceNumber      string     `json:"invoice_number"`
	TotalPrice         Amount     `json:"total_price"`
	Address            string     `json:"address"`
	Items              []LineItem `json:"items"`
	SkippedLines       []string   `json:"skipped_lines"`
	ErrorMessage       string     `json:"error"`
	InvoiceAlreadyUsed bool       `json:"invoice_used"`
}

// AddWarning appends a non-fatal message for the operator.
func (p *ParsedInvoice) AddWarning(msg string) {
	p.ErrorMessage += msg + "\n"
}

// ReplaceWarnings discards earlier messages and records msg alone.
func (p *ParsedInvoice) ReplaceWarnings(msg string) {
	p.ErrorMessage = msg + "\n"
}

// HasWarnings reports whether any soft failure was recorded.
func (p *ParsedInvoice) HasWarnings() bool {
	return p.ErrorMessage != ""
}

// LedgerChange is the set of writes one accepted invoice makes to a project.
// The repository persists it as a single transaction.
type LedgerChange struct {
	ProjectID    uuid.UUID
	UpdatedItems []BudgetItem
	NewItems     []BudgetItem
	Invoice      UsedInvoice
	TotalDelta   decimal.Decimal
}

var errNilProject = errors.New("nil project")

// Validate checks the structural invariants of a project before it is written.
func (p *Project) Validate() error {
	if p == nil {
		return errNilProject
	}
	if p.Name == "" {
		return ErrProjectNameRequired
	}
	seen := make(map[string]struct{}, len(p.BudgetItems))
	for i := range p.BudgetItems {
		sku := p.BudgetItems[i].SKU
		if _, dup := seen[sku]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateSKU, sku)
		}
		seen[sku] = struct{}{}
	}
	return nil
}
