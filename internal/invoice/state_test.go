package invoice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"invoiceledger/internal/invoice"
)

func TestStep(t *testing.T) {
	tests := []struct {
		name      string
		state     invoice.State
		line      string
		wantState invoice.State
		wantKind  invoice.LineKind
	}{
		{"noise while searching", invoice.Searching, "THANK YOU FOR YOUR BUSINESS", invoice.Searching, invoice.Noise},
		{"invoice number", invoice.Searching, "INVOICE: 004512", invoice.Searching, invoice.KindInvoiceNumber},
		{"total", invoice.Searching, "TOTAL 1,200.00", invoice.Searching, invoice.KindTotal},
		{"invoice wins over ship to", invoice.Searching, "INVOICE: 1 SHIP TO:", invoice.Searching, invoice.KindInvoiceNumber},
		{"ship to starts address", invoice.Searching, "SHIP TO:", invoice.CapturingAddress, invoice.KindShipTo},
		{"address continues", invoice.CapturingAddress, "ACME LLC 12 ELM", invoice.CapturingAddress, invoice.KindAddress},
		{"delivery marker ends address", invoice.CapturingAddress, "ACME LLC 12 ELM DEL. X", invoice.Searching, invoice.KindAddress},
		{"table header", invoice.Searching, "LN SHP ORD UM ITEM DESCRIPTION EXTENSION", invoice.ParsingItems, invoice.KindTableHeader},
		{"table header keeps address open", invoice.CapturingAddress, "QTY EXTENSION", invoice.ParsingItemsCapturingAddress, invoice.KindAddress | invoice.KindTableHeader},
		{"address and rows together", invoice.ParsingItemsCapturingAddress, "ACME LLC 12 ELM", invoice.ParsingItemsCapturingAddress, invoice.KindAddress | invoice.KindItemRow},
		{"delivery marker inside table", invoice.ParsingItemsCapturingAddress, "ACME LLC 12 ELM DEL.", invoice.ParsingItems, invoice.KindAddress | invoice.KindItemRow},
		{"weekday ends table not address", invoice.ParsingItemsCapturingAddress, "MONDAY", invoice.CapturingAddress, invoice.KindSectionEnd},
		{"item row", invoice.ParsingItems, "1 2 2 EA SKU1 A B C D LOC 1 1 X 5.00", invoice.ParsingItems, invoice.KindItemRow},
		{"repeated header stays in table", invoice.ParsingItems, "LN EXTENSION", invoice.ParsingItems, invoice.KindTableHeader},
		{"weekday ends table", invoice.ParsingItems, "MONDAY", invoice.Searching, invoice.KindSectionEnd},
		{"weekday is trimmed and upper-cased", invoice.ParsingItems, "  friday ", invoice.Searching, invoice.KindSectionEnd},
		{"weekday outside table is noise", invoice.Searching, "MONDAY", invoice.Searching, invoice.Noise},
		{"weekday with date is a row", invoice.ParsingItems, "MONDAY 03/04/2024", invoice.ParsingItems, invoice.KindItemRow},
		{"total inside table", invoice.ParsingItems, "SUBTOTAL 10.00", invoice.ParsingItems, invoice.KindTotal | invoice.KindItemRow},
		{"ship to inside table", invoice.ParsingItems, "SHIP TO:", invoice.ParsingItemsCapturingAddress, invoice.KindShipTo | invoice.KindItemRow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotState, gotKind := invoice.Step(tt.state, tt.line)
			assert.Equal(t, tt.wantState, gotState)
			assert.Equal(t, tt.wantKind, gotKind)
		})
	}
}

func TestLineKind_String(t *testing.T) {
	assert.Equal(t, "noise", invoice.Noise.String())
	assert.Equal(t, "total|item_row", (invoice.KindTotal | invoice.KindItemRow).String())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "searching", invoice.Searching.String())
	assert.Equal(t, "capturing_address", invoice.CapturingAddress.String())
	assert.Equal(t, "parsing_items", invoice.ParsingItems.String())
	assert.Equal(t, "parsing_items+address", invoice.ParsingItemsCapturingAddress.String())
}

func TestState_Flags(t *testing.T) {
	assert.False(t, invoice.Searching.InTable())
	assert.False(t, invoice.Searching.CapturesAddress())
	assert.True(t, invoice.CapturingAddress.CapturesAddress())
	assert.True(t, invoice.ParsingItems.InTable())
	assert.True(t, invoice.ParsingItemsCapturingAddress.InTable())
	assert.True(t, invoice.ParsingItemsCapturingAddress.CapturesAddress())
}
