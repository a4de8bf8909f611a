package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"invoiceledger/internal/domain"
)

const (
	ledgerSheet   = "Ledger"
	invoicesSheet = "Invoices"
)

// WriteXLSX writes a workbook with a Ledger sheet of budget items and an
// Invoices sheet listing every applied invoice.
func WriteXLSX(w io.Writer, p *domain.Project) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ledgerSheet); err != nil {
		return fmt.Errorf("export.WriteXLSX: %w", err)
	}
	rows := make([][]string, 0, len(p.BudgetItems)+2)
	rows = append(rows, itemColumns)
	for i := range p.BudgetItems {
		rows = append(rows, itemToRow(&p.BudgetItems[i]))
	}
	rows = append(rows, totalRow(p))
	if err := writeRows(f, ledgerSheet, rows); err != nil {
		return err
	}

	if _, err := f.NewSheet(invoicesSheet); err != nil {
		return fmt.Errorf("export.WriteXLSX: %w", err)
	}
	rows = [][]string{invoiceColumns}
	for i := range p.UsedInvoices {
		rows = append(rows, invoiceToRow(&p.UsedInvoices[i]))
	}
	if err := writeRows(f, invoicesSheet, rows); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export.WriteXLSX write: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]string) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("export.WriteXLSX %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
