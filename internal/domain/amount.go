package domain

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a money value read from document text. Raw keeps the text as it
// appeared; Valid is false when Raw did not hold a decimal number, so callers
// choose the fallback explicitly instead of receiving a silent zero.
type Amount struct {
	Raw   string
	Value decimal.Decimal
	Valid bool
}

// ParseAmount interprets s as a decimal amount. Thousands separators are ignored.
func ParseAmount(s string) Amount {
	raw := strings.TrimSpace(s)
	v, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return Amount{Raw: raw}
	}
	return Amount{Raw: raw, Value: v, Valid: true}
}

// Rounded returns the value rounded to cents. Invalid amounts yield zero.
func (a Amount) Rounded() decimal.Decimal {
	if !a.Valid {
		return decimal.Zero
	}
	return a.Value.Round(2)
}

// MarshalJSON encodes the raw text, so an unparseable amount is reported as
// the empty string it was read as.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Raw)
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// numbers written by older clients
		var n json.Number
		if err2 := json.Unmarshal(data, &n); err2 != nil {
			return err
		}
		s = n.String()
	}
	*a = ParseAmount(s)
	return nil
}
