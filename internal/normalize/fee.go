package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/opencall-dev/opencall-cli/internal/model"
)

// DefaultCurrency tags parsed amounts whose raw text named no currency.
const DefaultCurrency = "USD"

var (
	amountRe     = regexp.MustCompile(`\$?\s*\d+(?:\.\d{1,2})?`)
	leadAmountRe = regexp.MustCompile(`^(?:USD|US\$|\$)?\s*(\d+(?:\.\d{1,2})?)`)
	rangeRe      = regexp.MustCompile(`\d\s*(?:-|\x{2013}|to)\s*\$?\s*\d`)
)

var tierWords = []string{"varies", "early bird", "member", "tier", "per entry", "each additional"}

// Fee extracts a canonical entry fee from raw text. "free"/"no fee"/zero
// map to the FREE sentinel; tiered or ranged text maps to VARIES with the
// raw text kept verbatim; a leading currency-prefixed number becomes a
// typed amount; everything else keeps only the raw text.
func Fee(raw string) model.FeeValue {
	v := model.FeeValue{Kind: model.FeeUnknown, Raw: raw}

	text := CleanText(raw)
	if text == "" {
		return v
	}
	lower := strings.ToLower(text)

	switch lower {
	case "free", "free to enter", "0", "0.00", "$0", "$0.00":
		v.Kind = model.FeeFree
		return v
	}
	if strings.Contains(lower, "no fee") || strings.Contains(lower, "free") {
		v.Kind = model.FeeFree
		return v
	}

	for _, w := range tierWords {
		if strings.Contains(lower, w) {
			v.Kind = model.FeeVaries
			return v
		}
	}
	if rangeRe.MatchString(text) || len(amountRe.FindAllString(text, -1)) > 1 {
		v.Kind = model.FeeVaries
		return v
	}

	if m := leadAmountRe.FindStringSubmatch(text); m != nil {
		amount, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			if amount == 0 {
				v.Kind = model.FeeFree
				return v
			}
			v.Kind = model.FeeAmount
			v.Amount = amount
			v.Currency = DefaultCurrency
			return v
		}
	}

	return v
}
