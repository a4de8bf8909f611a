package invoice

import "strings"

// State is the section of the document the parser is in. Address capture and
// the item table are tracked independently: a ship-to block may open inside the
// table and stays open after the table ends.
type State int

const (
	// Searching looks for header fields and the start of a section.
	Searching State = iota
	// CapturingAddress collects ship-to address tokens until the delivery marker.
	CapturingAddress
	// ParsingItems treats every line as a row of the item table.
	ParsingItems
	// ParsingItemsCapturingAddress parses table rows while the ship-to address
	// is still open.
	ParsingItemsCapturingAddress
)

func (s State) String() string {
	switch s {
	case Searching:
		return "searching"
	case CapturingAddress:
		return "capturing_address"
	case ParsingItems:
		return "parsing_items"
	case ParsingItemsCapturingAddress:
		return "parsing_items+address"
	default:
		return "unknown"
	}
}

// InTable reports whether lines are read as item rows.
func (s State) InTable() bool {
	return s == ParsingItems || s == ParsingItemsCapturingAddress
}

// CapturesAddress reports whether the ship-to address is open.
func (s State) CapturesAddress() bool {
	return s == CapturingAddress || s == ParsingItemsCapturingAddress
}

func stateOf(table, address bool) State {
	switch {
	case table && address:
		return ParsingItemsCapturingAddress
	case table:
		return ParsingItems
	case address:
		return CapturingAddress
	default:
		return Searching
	}
}

// LineKind classifies a line. A line can carry more than one kind, e.g. a
// TOTAL header that also sits inside the item table.
type LineKind uint16

const (
	KindInvoiceNumber LineKind = 1 << iota
	KindTotal
	KindShipTo
	KindAddress
	KindTableHeader
	KindItemRow
	KindSectionEnd
)

// Noise is a line that carries no information for the invoice.
const Noise LineKind = 0

// Has reports whether k includes every bit of other.
func (k LineKind) Has(other LineKind) bool {
	return k&other == other && other != 0
}

func (k LineKind) String() string {
	if k == Noise {
		return "noise"
	}
	names := []struct {
		kind LineKind
		name string
	}{
		{KindInvoiceNumber, "invoice_number"},
		{KindTotal, "total"},
		{KindShipTo, "ship_to"},
		{KindAddress, "address"},
		{KindTableHeader, "table_header"},
		{KindItemRow, "item_row"},
		{KindSectionEnd, "section_end"},
	}
	var parts []string
	for _, n := range names {
		if k.Has(n.kind) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// Markers of the supplier's invoice layout.
const (
	markerInvoice     = "INVOICE:"
	markerTotal       = "TOTAL"
	markerShipTo      = "SHIP TO:"
	markerTableHeader = "EXTENSION"
	tokenEntity       = "LLC"
	tokenDelivery     = "DEL."
)

// The item table ends at the date stamp, which starts with the weekday alone on a line.
var weekdays = map[string]struct{}{
	"MONDAY":    {},
	"TUESDAY":   {},
	"WEDNESDAY": {},
	"THURSDAY":  {},
	"FRIDAY":    {},
	"SATURDAY":  {},
	"SUNDAY":    {},
}

// Step is the transition function of the parser. It is pure: it classifies
// line given the current state and returns the state for the next line.
//
// Header fields are matched in priority order, first match wins: invoice
// number, total, ship-to, address continuation. Item handling is independent
// of the header match. A weekday footer closes the table but leaves an open
// address in place.
func Step(s State, line string) (State, LineKind) {
	table, address := s.InTable(), s.CapturesAddress()
	if table {
		if _, ok := weekdays[strings.ToUpper(strings.TrimSpace(line))]; ok {
			return stateOf(false, address), KindSectionEnd
		}
	}

	kind := Noise

	switch {
	case strings.Contains(line, markerInvoice):
		kind |= KindInvoiceNumber
	case strings.Contains(line, markerTotal):
		kind |= KindTotal
	case strings.Contains(line, markerShipTo):
		kind |= KindShipTo
		address = true
	case address:
		kind |= KindAddress
		if _, ended := addressTokens(line); ended {
			address = false
		}
	}

	if strings.Contains(line, markerTableHeader) {
		kind |= KindTableHeader
		table = true
	} else if table {
		kind |= KindItemRow
	}

	return stateOf(table, address), kind
}

// addressTokens returns the tokens that follow the entity marker on line,
// joined without separators, and whether the delivery marker was reached.
// The entity marker only opens capture for the line it appears on.
func addressTokens(line string) (string, bool) {
	var b strings.Builder
	capture := false
	for _, word := range strings.Fields(line) {
		if word == tokenDelivery {
			return b.String(), true
		}
		if capture {
			b.WriteString(word)
		}
		if word == tokenEntity {
			capture = true
		}
	}
	return b.String(), false
}
