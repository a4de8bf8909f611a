package invoice

import (
	"strconv"
	"strings"
	"unicode"

	"invoiceledger/internal/domain"
)

// Cleanse normalises a raw column value.
type Cleanse func(string) string

// Column describes one field of an item row: the token range it occupies
// (To is exclusive) and how it is cleaned. Multi-token columns are joined with
// a single space.
type Column struct {
	Name  string
	From  int
	To    int
	Clean Cleanse
}

// Column names of the item table.
const (
	ColLine        = "line"
	ColShipped     = "shipped"
	ColOrdered     = "ordered"
	ColUnit        = "unit_measurement"
	ColSKU         = "sku"
	ColDescription = "description"
	ColLocation    = "location"
	ColUnits       = "units"
	ColPricePer    = "price_per"
	ColExtension   = "extension"
)

// RowSchema is the supplier's item table layout. Token 12 (the price unit) is
// not used.
var RowSchema = []Column{
	{Name: ColLine, From: 0, To: 1, Clean: DigitsOnly},
	{Name: ColShipped, From: 1, To: 2, Clean: DigitsOnly},
	{Name: ColOrdered, From: 2, To: 3, Clean: DigitsOnly},
	{Name: ColUnit, From: 3, To: 4},
	{Name: ColSKU, From: 4, To: 5},
	{Name: ColDescription, From: 5, To: 9},
	{Name: ColLocation, From: 9, To: 10},
	{Name: ColUnits, From: 10, To: 11},
	{Name: ColPricePer, From: 11, To: 12, Clean: DigitsOnly},
	{Name: ColExtension, From: 13, To: 14},
}

// MinRowTokens is the number of whitespace separated tokens a row needs to be
// read as an item.
var MinRowTokens = minTokens(RowSchema)

func minTokens(schema []Column) int {
	n := 0
	for _, c := range schema {
		if c.To > n {
			n = c.To
		}
	}
	return n
}

// DigitsOnly drops every character that is not a decimal digit.
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// decodeRow maps tokens onto the schema. ok is false when the row is too short.
func decodeRow(schema []Column, tokens []string) (map[string]string, bool) {
	if len(tokens) < minTokens(schema) {
		return nil, false
	}
	row := make(map[string]string, len(schema))
	for _, c := range schema {
		v := strings.Join(tokens[c.From:c.To], " ")
		if c.Clean != nil {
			v = c.Clean(v)
		}
		row[c.Name] = v
	}
	return row, true
}

func toLineItem(row map[string]string) domain.LineItem {
	return domain.LineItem{
		Line:            row[ColLine],
		ShippedQty:      atoiOrZero(row[ColShipped]),
		OrderedQty:      atoiOrZero(row[ColOrdered]),
		UnitMeasurement: row[ColUnit],
		SKU:             row[ColSKU],
		Description:     row[ColDescription],
		Location:        row[ColLocation],
		Units:           row[ColUnits],
		PricePer:        row[ColPricePer],
		Extension:       domain.ParseAmount(row[ColExtension]),
	}
}

// atoiOrZero reads a digits-only column; an empty column counts as zero.
func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
