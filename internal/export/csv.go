package export

import (
	"encoding/csv"
	"io"

	"invoiceledger/internal/domain"
)

// BOM makes Excel on Windows read the file as UTF-8.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes the budget items of p followed by a TOTAL row.
func WriteCSV(w io.Writer, p *domain.Project) error {
	if _, err := w.Write(BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(itemColumns); err != nil {
		return err
	}
	for i := range p.BudgetItems {
		if err := cw.Write(itemToRow(&p.BudgetItems[i])); err != nil {
			return err
		}
	}
	if err := cw.Write(totalRow(p)); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
