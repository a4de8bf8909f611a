// Package invoice turns the text of a supplier invoice into a ParsedInvoice.
//
// The layout is fixed: header fields (INVOICE:, TOTAL, SHIP TO:) followed by an
// item table that starts after the EXTENSION column header and ends at the
// weekday of the date stamp. Malformed rows never abort parsing; they are
// recorded in SkippedLines and ErrorMessage for the operator.
package invoice

import (
	"fmt"
	"regexp"
	"strings"

	"invoiceledger/internal/domain"
)

// Operator-facing warnings.
const (
	WarnSkippedLine = "Lines were skipped due to failure in pdf parsing, please forward the pdf to the operator"
	WarnShortage    = "LESS ITEMS SHIPPED THAN ORDERED"
)

// totalPattern matches the first money amount with two fraction digits.
var totalPattern = regexp.MustCompile(`(\d{1,3}(?:,\d{3})*(?:\.\d{2})|\d+\.\d{2})`)

// Transition records how a single line was handled.
type Transition struct {
	LineNo int
	From   State
	To     State
	Kind   LineKind
	Line   string
}

// ParseText splits text into lines and parses them.
func ParseText(text string) *domain.ParsedInvoice {
	return Parse(SplitLines(text))
}

// SplitLines splits extracted text on line breaks, accepting \n, \r\n and \r.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// Parse runs the state machine over lines in a single forward pass.
func Parse(lines []string) *domain.ParsedInvoice {
	inv, _ := run(lines, false)
	return inv
}

// Trace parses lines and also returns the transition taken for every line.
func Trace(lines []string) (*domain.ParsedInvoice, []Transition) {
	return run(lines, true)
}

func run(lines []string, trace bool) (*domain.ParsedInvoice, []Transition) {
	inv := &domain.ParsedInvoice{
		Items:        []domain.LineItem{},
		SkippedLines: []string{},
	}
	var transitions []Transition
	var addr strings.Builder

	state := Searching
	for i, line := range lines {
		next, kind := Step(state, line)
		if trace {
			transitions = append(transitions, Transition{LineNo: i + 1, From: state, To: next, Kind: kind, Line: line})
		}

		switch {
		case kind.Has(KindInvoiceNumber):
			inv.InvoiceNumber = DigitsOnly(line)
		case kind.Has(KindTotal):
			inv.TotalPrice = ParseTotal(line)
		case kind.Has(KindAddress):
			tokens, _ := addressTokens(line)
			addr.WriteString(tokens)
		}

		if kind.Has(KindItemRow) {
			parseRow(inv, line)
		}
		state = next
	}

	inv.Address = addr.String()
	return inv, transitions
}

// ParseTotal extracts the invoice total from a TOTAL line. The result is
// invalid, with an empty Raw, when the line holds no amount.
func ParseTotal(line string) domain.Amount {
	m := totalPattern.FindStringSubmatch(strings.ReplaceAll(line, ",", ""))
	if m == nil {
		return domain.Amount{}
	}
	return domain.ParseAmount(m[1])
}

func parseRow(inv *domain.ParsedInvoice, line string) {
	tokens := strings.Fields(line)
	row, ok := decodeRow(RowSchema, tokens)
	if !ok {
		first := ""
		if len(tokens) > 0 {
			first = tokens[0]
		}
		inv.SkippedLines = append(inv.SkippedLines, first)
		inv.AddWarning(WarnSkippedLine)
		return
	}

	item := toLineItem(row)
	inv.Items = append(inv.Items, item)
	if row[ColShipped] != row[ColOrdered] {
		inv.AddWarning(fmt.Sprintf("%s (sku %s: shipped %d of %d)", WarnShortage, item.SKU, item.ShippedQty, item.OrderedQty))
	}
}
