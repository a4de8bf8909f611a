// Package ledger merges parsed invoices into a project's budget ledger.
package ledger

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"invoiceledger/internal/domain"
)

// Operator-facing warnings added during reconciliation.
const (
	WarnAlreadyUsed      = "INVOICE HAS ALREADY BEEN USED"
	WarnNoInvoiceNumber  = "invoice number not found"
	WarnInvalidExtension = "extension is not a number and was counted as 0"
	WarnInvalidTotal     = "invoice total is not a number and was counted as 0"
)

// Options tune a single reconciliation.
type Options struct {
	// MissingTotalAsZero accepts an invoice whose total could not be read,
	// adding nothing to the project cost. When false such an invoice is rejected.
	MissingTotalAsZero bool
	Source             domain.InvoiceSource
	Now                func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now().UTC()
}

// Reconcile applies inv to project in place and returns the writes that make
// the change durable. project must be the current state read inside the
// caller's critical section.
//
// An invoice already applied to the project is flagged on inv and yields
// domain.ErrInvoiceAlreadyUsed; project is left untouched. So is the case of
// an unreadable total unless opts.MissingTotalAsZero is set.
func Reconcile(project *domain.Project, inv *domain.ParsedInvoice, opts Options) (*domain.LedgerChange, error) {
	if project == nil || inv == nil {
		return nil, fmt.Errorf("ledger.Reconcile: nil project or invoice")
	}

	if project.IsInvoiceUsed(inv.InvoiceNumber) {
		inv.InvoiceAlreadyUsed = true
		inv.ReplaceWarnings(WarnAlreadyUsed)
		return nil, domain.ErrInvoiceAlreadyUsed
	}

	total := inv.TotalPrice.Rounded()
	if !inv.TotalPrice.Valid {
		if !opts.MissingTotalAsZero {
			return nil, fmt.Errorf("ledger.Reconcile: %w: %q", domain.ErrInvalidTotal, inv.TotalPrice.Raw)
		}
		inv.AddWarning(WarnInvalidTotal)
	}
	if inv.InvoiceNumber == "" {
		inv.AddWarning(WarnNoInvoiceNumber)
	}

	now := opts.now()
	existing := len(project.BudgetItems)
	var touched []int

	for _, li := range inv.Items {
		paid := li.Extension.Rounded()
		if !li.Extension.Valid {
			inv.SkippedLines = append(inv.SkippedLines, li.SKU)
			inv.AddWarning(fmt.Sprintf("%s (sku %s)", WarnInvalidExtension, li.SKU))
		}

		idx := indexOf(project.BudgetItems, li.SKU)
		if idx < 0 {
			project.BudgetItems = append(project.BudgetItems, newItem(project.ID, li, paid, now))
			continue
		}

		item := &project.BudgetItems[idx]
		item.Received += li.ShippedQty
		item.TotalPaid = item.TotalPaid.Add(paid)
		item.UpdatedAt = now
		if idx < existing && !contains(touched, idx) {
			touched = append(touched, idx)
		}
	}

	change := &domain.LedgerChange{
		ProjectID:  project.ID,
		TotalDelta: total,
	}
	for _, idx := range touched {
		change.UpdatedItems = append(change.UpdatedItems, project.BudgetItems[idx])
	}
	change.NewItems = append(change.NewItems, project.BudgetItems[existing:]...)

	payload, err := json.Marshal(inv)
	if err != nil {
		return nil, fmt.Errorf("ledger.Reconcile: encode payload: %w", err)
	}
	change.Invoice = domain.UsedInvoice{
		ID:            uuid.New(),
		ProjectID:     project.ID,
		InvoiceNumber: inv.InvoiceNumber,
		TotalPrice:    total,
		Address:       inv.Address,
		ItemCount:     len(inv.Items),
		Source:        opts.Source,
		Payload:       payload,
		AppliedAt:     now,
	}

	project.UsedInvoices = append(project.UsedInvoices, change.Invoice)
	project.TotalCost = project.TotalCost.Add(total)
	project.UpdatedAt = now

	return change, nil
}

func newItem(projectID uuid.UUID, li domain.LineItem, paid decimal.Decimal, now time.Time) domain.BudgetItem {
	return domain.BudgetItem{
		ID:           uuid.New(),
		ProjectID:    projectID,
		SKU:          li.SKU,
		MaterialName: li.Description,
		Quantity:     domain.UnknownQuantity,
		Received:     li.ShippedQty,
		TotalPaid:    paid,
		ExtraData: domain.ItemExtraData{
			Ordered:         li.OrderedQty,
			UnitMeasurement: li.UnitMeasurement,
			Location:        li.Location,
			Units:           li.Units,
			PricePer:        li.PricePer,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func indexOf(items []domain.BudgetItem, sku string) int {
	for i := range items {
		if items[i].SKU == sku {
			return i
		}
	}
	return -1
}

func contains(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
