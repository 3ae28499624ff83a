package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/opencall-dev/opencall-cli/internal/model"
)

// Countries inferred from the resolved state code.
const (
	CountryUS     = "United States"
	CountryCanada = "Canada"
	CountryIntl   = "International"
)

var (
	zipRe       = regexp.MustCompile(`\s+\d{5}(?:-\d{4})?\b`)
	usSuffixRe  = regexp.MustCompile(`(?i),?\s*(united states|usa|u\.s\.a\.|u\.s\.)\s*$`)
	emptyComma  = regexp.MustCompile(`,\s*,`)
	onlineWords = []string{"online", "virtual", "zoom", "digital"}
)

// Location splits free location text into city, state/province code, and
// country. Online and virtual listings normalize to city "Online".
// Unresolvable text is retained verbatim with empty city and state.
func Location(raw string) model.LocationValue {
	v := model.LocationValue{Raw: raw}

	text := CleanText(raw)
	if text == "" {
		return v
	}

	lower := strings.ToLower(text)
	for _, w := range onlineWords {
		if strings.Contains(lower, w) {
			v.City = "Online"
			return v
		}
	}

	hadUSSuffix := usSuffixRe.MatchString(text)
	text = usSuffixRe.ReplaceAllString(text, "")
	text = zipRe.ReplaceAllString(text, "")
	text = emptyComma.ReplaceAllString(text, ",")
	text = strings.Trim(CleanText(text), " ,")
	if text == "" {
		return v
	}

	if i := strings.LastIndex(text, ","); i >= 0 {
		city := strings.Trim(text[:i], " ,")
		if state, country, ok := resolveState(text[i+1:]); ok {
			v.City = city
			v.State = state
			v.Country = country
			if v.Country == "" && hadUSSuffix {
				v.Country = CountryUS
			}
			return v
		}
		return v
	}

	// No comma: the whole text may itself be a state.
	if state, country, ok := resolveState(text); ok {
		v.State = state
		v.Country = country
		return v
	}

	return v
}

// resolveState recognizes a two-letter code, a spelled-out state or
// province name, or a CaFE numeric state code.
func resolveState(s string) (code, country string, ok bool) {
	s = strings.Trim(CleanText(s), " .")
	if s == "" {
		return "", "", false
	}

	if isDigits(s) {
		if c, found := cafeStateCodes[s]; found {
			return c, countryFor(c), true
		}
		return "", "", false
	}

	upper := strings.ToUpper(s)
	if len(upper) == 2 && (usStateCodes[upper] || caProvinceCodes[upper]) {
		return upper, countryFor(upper), true
	}

	if c, found := stateAbbrev[strings.ToLower(s)]; found {
		return c, countryFor(c), true
	}

	return "", "", false
}

func countryFor(code string) string {
	switch {
	case usStateCodes[code]:
		return CountryUS
	case caProvinceCodes[code]:
		return CountryCanada
	case code == "INTL":
		return CountryIntl
	default:
		return ""
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
