package normalize

import (
	"strings"
	"time"

	"github.com/opencall-dev/opencall-cli/internal/model"
)

// DefaultMaxDescription caps stored description length.
const DefaultMaxDescription = 5000

// Normalizer derives canonical fields from raw per-platform records.
type Normalizer struct {
	// YearWindowDays is the grace period for year-less deadline inference.
	YearWindowDays int
	// MaxDescription truncates oversized description text; 0 disables.
	MaxDescription int
}

// New returns a Normalizer with default settings.
func New() *Normalizer {
	return &Normalizer{
		YearWindowDays: DefaultYearWindow,
		MaxDescription: DefaultMaxDescription,
	}
}

// Record normalizes one raw record against the given run date. It never
// fails: fields that resist parsing keep their raw text and a nil
// canonical value.
func (n *Normalizer) Record(raw model.RawRecord, runDate time.Time) model.NormalizedRecord {
	rec := model.NormalizedRecord{RawRecord: raw}

	rec.Title = CleanText(raw.Title)
	rec.Organization = CleanText(raw.Organization)
	rec.URL = strings.TrimSpace(raw.URL)
	rec.Description = Truncate(raw.Description, n.MaxDescription)
	rec.Eligibility = CleanText(raw.EligibilityRaw)

	rec.Deadline = Deadline(raw.DeadlineRaw, runDate, n.YearWindowDays)
	rec.Location = Location(raw.LocationRaw)
	rec.Fee = Fee(raw.FeeRaw)

	// Aggregator listings often link out to the organizer's own site;
	// backfill a missing organization from that domain.
	if rec.Organization == "" {
		if src := model.ParseExtras(raw.Platform, raw.Extras).OriginalSourceURL(); src != "" {
			rec.Organization = OrgFromURL(src)
		}
	}

	rec.NormTitle = Key(rec.Title)
	rec.NormOrg = Key(rec.Organization)

	return rec
}
