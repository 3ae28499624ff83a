package normalize

import (
	"regexp"
	"strings"
	"time"

	"github.com/opencall-dev/opencall-cli/internal/model"
)

// DefaultYearWindow is the grace period, in days, during which a
// year-less deadline that already passed in the current year is still
// interpreted as this year's date. Heuristic; tunable per config.
const DefaultYearWindow = 30

var ordinalRe = regexp.MustCompile(`(\d{1,2})(?:st|nd|rd|th)\b`)

// Layouts with an explicit year, tried in order.
var datedLayouts = []string{
	"2006-01-02",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"01/02/2006",
	"1/2/2006",
}

// Layouts without a year; the year is inferred from the run date.
var yearlessLayouts = []string{
	"January 2",
	"Jan 2",
}

// Deadline parses free-text deadline values. Recognized shapes: ISO dates,
// "Month Day, Year", and "Month Day" with no year. For the no-year case
// the year is inferred: if the month/day read in the run's current year
// passed more than windowDays before the run date, the next year is
// assumed; otherwise the current year. Unparseable text yields a nil date
// with the raw text retained.
func Deadline(raw string, runDate time.Time, windowDays int) model.DeadlineValue {
	v := model.DeadlineValue{Raw: raw}

	text := CleanText(raw)
	if text == "" {
		return v
	}
	text = ordinalRe.ReplaceAllString(text, "$1")
	text = strings.TrimRight(text, ".")

	for _, layout := range datedLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			d := atMidnight(t)
			v.Date = &d
			return v
		}
	}

	if windowDays < 0 {
		windowDays = DefaultYearWindow
	}
	run := atMidnight(runDate)
	for _, layout := range yearlessLayouts {
		t, err := time.Parse(layout, text)
		if err != nil {
			continue
		}
		d := time.Date(run.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		if run.Sub(d) > time.Duration(windowDays)*24*time.Hour {
			d = d.AddDate(1, 0, 0)
		}
		v.Date = &d
		return v
	}

	return v
}

func atMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
