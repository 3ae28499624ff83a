// Package reconcile folds batches of normalized, source-tagged records
// into canonical, deduplicated opportunities with historical continuity
// across runs.
package reconcile

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opencall-dev/opencall-cli/internal/identity"
	"github.com/opencall-dev/opencall-cli/internal/match"
	"github.com/opencall-dev/opencall-cli/internal/model"
	"github.com/opencall-dev/opencall-cli/internal/normalize"
)

// Engine merges per-platform record batches into the opportunity set.
// A batch is processed as one logical transaction, single-threaded; no
// concurrent mutation of the opportunity set is supported.
type Engine struct {
	norm    *normalize.Normalizer
	matcher *match.Matcher
}

// New creates an Engine.
func New(norm *normalize.Normalizer, matcher *match.Matcher) *Engine {
	return &Engine{norm: norm, matcher: matcher}
}

// Reconcile folds the batch into the existing opportunity set and returns
// the updated set plus change events and run counters. Records created
// earlier in the same batch are matching candidates for later records.
//
// Reconcile is idempotent: replaying an identical batch against its own
// output yields no change events beyond last-checked/times-seen
// bookkeeping.
func (e *Engine) Reconcile(runDate time.Time, batch []model.RawRecord, existing []model.Opportunity) *Result {
	log := zap.L().With(zap.String("component", "reconcile"))

	res := &Result{
		Changes: make(map[string][]model.ChangeEvent),
		Summary: model.RunSummary{Processed: make(map[model.Platform]int)},
	}
	for i := range existing {
		o := existing[i]
		res.Opportunities = append(res.Opportunities, &o)
	}

	// touched tracks per-run bookkeeping: times_seen increments once per
	// opportunity per run regardless of how many records contribute.
	touched := make(map[string]bool)
	created := make(map[string]bool)

	for _, raw := range batch {
		if !raw.Platform.Known() || normalize.CleanText(raw.Title) == "" {
			res.Summary.RejectedRecords++
			log.Warn("reconcile: rejected corrupt record",
				zap.String("platform", string(raw.Platform)),
				zap.String("url", raw.URL),
			)
			continue
		}
		res.Summary.Processed[raw.Platform]++

		rec := e.norm.Record(raw, runDate)
		rec.IdentityKey = identity.Key(rec)

		if rec.Deadline.Date == nil && rec.Deadline.Raw != "" {
			res.Summary.UnparsedDeadlines++
		}

		target, link := e.resolve(&rec, res)
		if target == nil {
			target = e.create(&rec, runDate, res)
			created[target.ID] = true
			touched[target.ID] = true
			continue
		}

		if !touched[target.ID] {
			touched[target.ID] = true
			target.TimesSeen++
			target.LastChecked = runDate
		}
		e.contribute(target, link, &rec, runDate, res)
		target.RecomputeActive(runDate)
	}

	for id := range touched {
		if created[id] {
			res.Created = append(res.Created, id)
		} else {
			res.Updated = append(res.Updated, id)
		}
	}
	res.Summary.NewOpportunities = len(res.Created)
	res.Summary.UpdatedOpportunities = len(res.Updated)
	for _, evs := range res.Changes {
		res.Summary.ChangeEvents += len(evs)
	}

	return res
}

// resolve finds the opportunity a record belongs to. Identity keys are
// checked first: a source link on the same platform with the same key
// means this is the same record re-fetched, not a new contribution.
// Identity-key equality on a different platform is ignored — only the
// duplicate matcher merges across platforms.
func (e *Engine) resolve(rec *model.NormalizedRecord, res *Result) (*model.Opportunity, *model.SourceLink) {
	for _, o := range res.Opportunities {
		for i := range o.Links {
			l := &o.Links[i]
			if l.Platform == rec.Platform && l.IdentityKey == rec.IdentityKey {
				return o, l
			}
		}
	}

	m, amb := e.matcher.Find(*rec, res.Opportunities)
	if amb != nil {
		res.Summary.AmbiguousMatches++
	}
	if m == nil {
		return nil, nil
	}
	return m.Opportunity, m.Opportunity.Link(rec.Platform)
}

// create starts a new canonical opportunity from its first record. The
// surrogate id is generated here and never changes.
func (e *Engine) create(rec *model.NormalizedRecord, runDate time.Time, res *Result) *model.Opportunity {
	o := &model.Opportunity{
		ID:           uuid.New().String(),
		Title:        rec.Title,
		Organization: rec.Organization,
		DeadlineRaw:  rec.Deadline.Raw,
		City:         rec.Location.City,
		State:        rec.Location.State,
		Country:      rec.Location.Country,
		LocationText: rec.Location.Raw,
		Fee:          rec.Fee,
		Eligibility:  rec.Eligibility,
		Description:  rec.Description,
		Email:        rec.Email,
		Extras:       model.ParseExtras(rec.Platform, rec.Extras),
		FirstSeen:    runDate,
		LastChecked:  runDate,
		TimesSeen:    1,
	}
	if rec.Deadline.Date != nil {
		d := *rec.Deadline.Date
		o.Deadline = &d
	}
	e.upsertLink(o, nil, rec, runDate)
	o.RecomputeActive(runDate)

	res.Opportunities = append(res.Opportunities, o)
	return o
}

// contribute folds a record into an existing opportunity: field merge,
// change events, and source link upkeep.
func (e *Engine) contribute(o *model.Opportunity, link *model.SourceLink, rec *model.NormalizedRecord, runDate time.Time, res *Result) {
	var prev *model.NormalizedRecord
	if link != nil {
		prev = link.Payload
	}

	events := mergeRecord(o, rec, prev, runDate)
	if len(events) > 0 {
		res.Changes[o.ID] = append(res.Changes[o.ID], events...)
	}

	o.Extras.Merge(model.ParseExtras(rec.Platform, rec.Extras))
	e.upsertLink(o, link, rec, runDate)
}

// upsertLink updates the platform's source link, creating it on first
// contribution. The link payload always retains the platform's latest
// record, including values that lost a merge conflict.
func (e *Engine) upsertLink(o *model.Opportunity, link *model.SourceLink, rec *model.NormalizedRecord, runDate time.Time) {
	payload := *rec
	if link == nil {
		o.Links = append(o.Links, model.SourceLink{
			ID:            uuid.New().String(),
			OpportunityID: o.ID,
			Platform:      rec.Platform,
			URL:           rec.URL,
			PlatformID:    rec.PlatformID,
			IdentityKey:   rec.IdentityKey,
			FirstSeen:     runDate,
			LastSeen:      runDate,
			Payload:       &payload,
		})
	} else {
		link.URL = rec.URL
		link.PlatformID = rec.PlatformID
		link.IdentityKey = rec.IdentityKey
		link.LastSeen = runDate
		link.Payload = &payload
	}
	syncSets(o)
}

// syncSets rebuilds the platform and URL sets from the source links.
func syncSets(o *model.Opportunity) {
	o.Platforms = o.Platforms[:0]
	o.URLs = o.URLs[:0]
	for i := range o.Links {
		l := &o.Links[i]
		if !o.HasPlatform(l.Platform) {
			o.Platforms = append(o.Platforms, l.Platform)
		}
		if l.URL != "" && !o.HasURL(l.URL) {
			o.URLs = append(o.URLs, l.URL)
		}
	}
}
