package model

import (
	"fmt"
	"strings"
)

// String renders the canonical display form of a fee: "Free", "Varies",
// "$15", "$22.50". Unknown fees fall back to their raw text.
func (f FeeValue) String() string {
	switch f.Kind {
	case FeeFree:
		return "Free"
	case FeeVaries:
		return "Varies"
	case FeeAmount:
		s := fmt.Sprintf("%.2f", f.Amount)
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
		if f.Currency != "" && f.Currency != "USD" {
			return f.Currency + " " + s
		}
		return "$" + s
	default:
		return f.Raw
	}
}
