package reconcile

import (
	"time"

	"github.com/google/uuid"

	"github.com/opencall-dev/opencall-cli/internal/model"
)

// fieldSpec describes one best-known field for merge purposes. Values are
// compared and logged in canonical string form; apply copies the typed
// value from the record onto the opportunity.
type fieldSpec struct {
	name string

	// rich marks free-text fields where longer, more detailed values win
	// over shorter ones even across platforms.
	rich bool

	fromRec func(rec *model.NormalizedRecord) string
	fromOpp func(o *model.Opportunity) string
	apply   func(o *model.Opportunity, rec *model.NormalizedRecord)

	// richer, when set, overrides the default conflict handling and
	// applies the new value when it is structurally richer than the old.
	richer func(o *model.Opportunity, rec *model.NormalizedRecord) bool
}

func isoDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func recLocation(rec *model.NormalizedRecord) string {
	return locationString(rec.Location.City, rec.Location.State, rec.Location.Raw)
}

func oppLocation(o *model.Opportunity) string {
	return locationString(o.City, o.State, o.LocationText)
}

// locationString renders "City, ST" when resolved, the raw text otherwise.
func locationString(city, state, raw string) string {
	switch {
	case city != "" && state != "":
		return city + ", " + state
	case city != "":
		return city
	case state != "":
		return state
	default:
		return raw
	}
}

func recFee(rec *model.NormalizedRecord) string {
	return rec.Fee.String()
}

var mergeFields = []fieldSpec{
	{
		name:    "title",
		fromRec: func(rec *model.NormalizedRecord) string { return rec.Title },
		fromOpp: func(o *model.Opportunity) string { return o.Title },
		apply:   func(o *model.Opportunity, rec *model.NormalizedRecord) { o.Title = rec.Title },
	},
	{
		name:    "organization",
		fromRec: func(rec *model.NormalizedRecord) string { return rec.Organization },
		fromOpp: func(o *model.Opportunity) string { return o.Organization },
		apply:   func(o *model.Opportunity, rec *model.NormalizedRecord) { o.Organization = rec.Organization },
	},
	{
		name:    "deadline",
		fromRec: func(rec *model.NormalizedRecord) string { return isoDate(rec.Deadline.Date) },
		fromOpp: func(o *model.Opportunity) string { return isoDate(o.Deadline) },
		apply: func(o *model.Opportunity, rec *model.NormalizedRecord) {
			d := *rec.Deadline.Date
			o.Deadline = &d
			o.DeadlineRaw = rec.Deadline.Raw
		},
	},
	{
		name:    "location",
		fromRec: recLocation,
		fromOpp: oppLocation,
		apply: func(o *model.Opportunity, rec *model.NormalizedRecord) {
			o.City = rec.Location.City
			o.State = rec.Location.State
			o.Country = rec.Location.Country
			o.LocationText = rec.Location.Raw
		},
		// A resolved city/state is richer than retained raw text.
		richer: func(o *model.Opportunity, rec *model.NormalizedRecord) bool {
			return o.City == "" && o.State == "" && (rec.Location.City != "" || rec.Location.State != "")
		},
	},
	{
		name:    "fee",
		fromRec: recFee,
		fromOpp: func(o *model.Opportunity) string { return o.Fee.String() },
		apply:   func(o *model.Opportunity, rec *model.NormalizedRecord) { o.Fee = rec.Fee },
		// A typed fee is richer than unparsed raw text.
		richer: func(o *model.Opportunity, rec *model.NormalizedRecord) bool {
			return o.Fee.Kind == model.FeeUnknown && rec.Fee.Kind != model.FeeUnknown
		},
	},
	{
		name:    "eligibility",
		rich:    true,
		fromRec: func(rec *model.NormalizedRecord) string { return rec.Eligibility },
		fromOpp: func(o *model.Opportunity) string { return o.Eligibility },
		apply:   func(o *model.Opportunity, rec *model.NormalizedRecord) { o.Eligibility = rec.Eligibility },
	},
	{
		name:    "description",
		rich:    true,
		fromRec: func(rec *model.NormalizedRecord) string { return rec.Description },
		fromOpp: func(o *model.Opportunity) string { return o.Description },
		apply:   func(o *model.Opportunity, rec *model.NormalizedRecord) { o.Description = rec.Description },
	},
	{
		name:    "email",
		fromRec: func(rec *model.NormalizedRecord) string { return rec.Email },
		fromOpp: func(o *model.Opportunity) string { return o.Email },
		apply:   func(o *model.Opportunity, rec *model.NormalizedRecord) { o.Email = rec.Email },
	},
}

// mergeRecord folds one record's field values into the opportunity's
// best-known values. prev is the platform's previously recorded payload
// (nil for a first contribution); it anchors two decisions: a platform may
// revise a best value it supplied itself, and a standing conflict is only
// re-recorded when the platform newly reports a different value.
//
// Returned events are applied changes plus proposed (conflicting, not
// applied) values. Conflicting values are never dropped: the caller
// retains the full record in the platform's source link payload.
func mergeRecord(o *model.Opportunity, rec *model.NormalizedRecord, prev *model.NormalizedRecord, runDate time.Time) []model.ChangeEvent {
	var events []model.ChangeEvent

	emit := func(kind model.ChangeKind, field, oldV, newV string) {
		events = append(events, model.ChangeEvent{
			ID:            uuid.New().String(),
			OpportunityID: o.ID,
			Field:         field,
			OldValue:      oldV,
			NewValue:      newV,
			Platform:      rec.Platform,
			Kind:          kind,
			OccurredAt:    runDate,
		})
	}

	for _, f := range mergeFields {
		newV := f.fromRec(rec)
		if newV == "" {
			// Non-null beats null; absent values never degrade state.
			continue
		}
		oldV := f.fromOpp(o)
		if oldV == newV {
			continue
		}

		if oldV == "" {
			f.apply(o, rec)
			emit(model.ChangeApplied, f.name, oldV, newV)
			continue
		}

		if f.richer != nil && f.richer(o, rec) {
			f.apply(o, rec)
			emit(model.ChangeApplied, f.name, oldV, newV)
			continue
		}
		if f.rich && len(newV) > len(oldV) {
			f.apply(o, rec)
			emit(model.ChangeApplied, f.name, oldV, newV)
			continue
		}

		prevV := ""
		if prev != nil {
			prevV = f.fromRec(prev)
		}
		if prevV == oldV && prevV != "" {
			// This platform supplied the current best value and has
			// revised it.
			f.apply(o, rec)
			emit(model.ChangeApplied, f.name, oldV, newV)
			continue
		}

		// Conflict between platforms: keep the previous best, record the
		// proposal once per newly reported value.
		if prevV != newV {
			emit(model.ChangeProposed, f.name, oldV, newV)
		}
	}

	return events
}
