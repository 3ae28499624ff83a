package model

import "time"

// Opportunity is the golden record for a deduplicated art call. It is
// created on first encounter of an unmatched record and mutated on every
// later run that contributes a matching record. Opportunities are never
// deleted; past-deadline entries stay with IsActive=false.
type Opportunity struct {
	ID           string `json:"id" db:"id"`
	Title        string `json:"title" db:"title"`
	Organization string `json:"organization,omitempty" db:"organization"`

	Deadline    *time.Time `json:"deadline,omitempty" db:"deadline"`
	DeadlineRaw string     `json:"deadline_raw,omitempty" db:"deadline_raw"`

	City         string `json:"city,omitempty" db:"city"`
	State        string `json:"state,omitempty" db:"state"`
	Country      string `json:"country,omitempty" db:"country"`
	LocationText string `json:"location_text,omitempty" db:"location_text"`

	Fee FeeValue `json:"fee" db:"fee"`

	Eligibility string `json:"eligibility,omitempty" db:"eligibility"`
	Description string `json:"description,omitempty" db:"description"`
	Email       string `json:"email,omitempty" db:"email"`

	// Platforms is the set of sources that have contributed, URLs the
	// deduplicated set of known listing URLs (one per platform).
	Platforms []Platform `json:"platforms" db:"platforms"`
	URLs      []string   `json:"urls" db:"urls"`

	Links []SourceLink `json:"source_links,omitempty"`

	Extras Extras `json:"extras,omitempty" db:"extras"`

	FirstSeen   time.Time `json:"first_seen" db:"first_seen"`
	LastChecked time.Time `json:"last_checked" db:"last_checked"`
	TimesSeen   int       `json:"times_seen" db:"times_seen"`
	IsActive    bool      `json:"is_active" db:"is_active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Link returns the SourceLink contributed by the given platform, or nil.
func (o *Opportunity) Link(p Platform) *SourceLink {
	for i := range o.Links {
		if o.Links[i].Platform == p {
			return &o.Links[i]
		}
	}
	return nil
}

// HasPlatform reports whether the platform already contributes to o.
func (o *Opportunity) HasPlatform(p Platform) bool {
	for _, q := range o.Platforms {
		if q == p {
			return true
		}
	}
	return false
}

// HasURL reports whether u is already among the opportunity's known URLs.
func (o *Opportunity) HasURL(u string) bool {
	for _, v := range o.URLs {
		if v == u {
			return true
		}
	}
	return false
}

// RecomputeActive derives IsActive from the parsed deadline and the run
// date. Opportunities without a parseable deadline stay active.
func (o *Opportunity) RecomputeActive(runDate time.Time) {
	if o.Deadline == nil {
		o.IsActive = true
		return
	}
	y, m, d := runDate.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	o.IsActive = !o.Deadline.Before(today)
}

// SourceLink records one platform's contribution to one Opportunity. There
// is at most one link per (opportunity, platform) pair; a repeat record
// from the same platform in the same run updates rather than duplicates it.
type SourceLink struct {
	ID            string    `json:"id" db:"id"`
	OpportunityID string    `json:"opportunity_id" db:"opportunity_id"`
	Platform      Platform  `json:"platform" db:"platform"`
	URL           string    `json:"url" db:"url"`
	PlatformID    string    `json:"platform_id,omitempty" db:"platform_id"`
	IdentityKey   string    `json:"identity_key" db:"identity_key"`
	FirstSeen     time.Time `json:"first_seen" db:"first_seen"`
	LastSeen      time.Time `json:"last_seen" db:"last_seen"`

	// Payload retains the platform's latest normalized record, including
	// values that lost a cross-platform merge conflict.
	Payload *NormalizedRecord `json:"payload,omitempty" db:"payload"`
}

// ChangeKind distinguishes accepted field changes from conflicting values
// that were recorded but not applied.
type ChangeKind string

// Change kinds.
const (
	ChangeApplied  ChangeKind = "applied"
	ChangeProposed ChangeKind = "proposed"
)

// ChangeEvent is one append-only field-level diff. Events are never
// mutated or deleted.
type ChangeEvent struct {
	ID            string     `json:"id" db:"id"`
	OpportunityID string     `json:"opportunity_id" db:"opportunity_id"`
	Field         string     `json:"field" db:"field"`
	OldValue      string     `json:"old_value,omitempty" db:"old_value"`
	NewValue      string     `json:"new_value,omitempty" db:"new_value"`
	Platform      Platform   `json:"platform" db:"platform"`
	Kind          ChangeKind `json:"kind" db:"kind"`
	OccurredAt    time.Time  `json:"occurred_at" db:"occurred_at"`
}
