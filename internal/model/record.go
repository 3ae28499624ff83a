// Package model defines the record and entity types flowing through the
// opportunity reconciliation pipeline.
package model

import "time"

// RawRecord is one loosely structured opportunity as produced by a platform
// fetcher. Field mapping is site-specific and happens upstream; the pipeline
// treats a RawRecord as immutable once produced.
type RawRecord struct {
	Platform       Platform          `json:"source_platform"`
	PlatformID     string            `json:"platform_id,omitempty"`
	Title          string            `json:"title"`
	Organization   string            `json:"organization,omitempty"`
	URL            string            `json:"url"`
	DeadlineRaw    string            `json:"deadline,omitempty"`
	LocationRaw    string            `json:"location,omitempty"`
	FeeRaw         string            `json:"fee,omitempty"`
	EligibilityRaw string            `json:"eligibility,omitempty"`
	Description    string            `json:"description,omitempty"`
	Email          string            `json:"email,omitempty"`
	Extras         map[string]string `json:"extras,omitempty"`
	FetchedAt      time.Time         `json:"fetched_at,omitempty"`
}

// FeeKind classifies a normalized entry fee.
type FeeKind string

// Fee classifications. FeeUnknown means the raw text carried no
// recognizable amount; the raw text is still retained.
const (
	FeeUnknown FeeKind = "unknown"
	FeeFree    FeeKind = "free"
	FeeVaries  FeeKind = "varies"
	FeeAmount  FeeKind = "amount"
)

// FeeValue is the canonical form of an entry fee. Raw is never discarded.
type FeeValue struct {
	Kind     FeeKind `json:"kind"`
	Amount   float64 `json:"amount,omitempty"`
	Currency string  `json:"currency,omitempty"`
	Raw      string  `json:"raw,omitempty"`
}

// LocationValue is the canonical form of a location. City and State are
// empty when the raw text could not be resolved; Raw always holds the
// original text.
type LocationValue struct {
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
	Raw     string `json:"raw,omitempty"`
}

// DeadlineValue is the canonical form of a deadline. Date is nil when the
// raw text could not be parsed.
type DeadlineValue struct {
	Date *time.Time `json:"date,omitempty"`
	Raw  string     `json:"raw,omitempty"`
}

// NormalizedRecord is a RawRecord plus derived canonical fields and the
// stable identity key used to re-recognize the record across runs.
type NormalizedRecord struct {
	RawRecord

	Deadline    DeadlineValue `json:"deadline_parsed"`
	Location    LocationValue `json:"location_parsed"`
	Fee         FeeValue      `json:"fee_parsed"`
	Eligibility string        `json:"eligibility_trimmed,omitempty"`

	// Matching keys: lowercased, punctuation-stripped forms of title and
	// organization. Derived once at normalization time.
	NormTitle string `json:"norm_title"`
	NormOrg   string `json:"norm_org,omitempty"`

	// IdentityKey re-identifies this record on its own platform across
	// runs. It is not a cross-platform duplicate signal.
	IdentityKey string `json:"identity_key"`
}
