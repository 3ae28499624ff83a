// Package match decides whether a normalized record refers to an already
// known opportunity. Matching is a priority cascade, not a score blend:
// passes are evaluated in order and the first hit wins.
package match

import (
	"go.uber.org/zap"

	"github.com/opencall-dev/opencall-cli/internal/identity"
	"github.com/opencall-dev/opencall-cli/internal/model"
	"github.com/opencall-dev/opencall-cli/internal/normalize"
)

// Confidence grades a match.
type Confidence string

// Match confidences.
const (
	ConfidenceCertain  Confidence = "certain"
	ConfidenceProbable Confidence = "probable"
)

// Match passes, in cascade order.
const (
	PassURL      = "url"
	PassTitleOrg = "title_org"
	PassFuzzy    = "fuzzy"
)

// DefaultThreshold is the token-set similarity floor for the fuzzy pass.
const DefaultThreshold = 0.85

// Result describes a successful match.
type Result struct {
	Opportunity *model.Opportunity
	Pass        string
	Confidence  Confidence
	Score       float64
}

// Ambiguity records a fuzzy pass where more than one candidate cleared the
// threshold. The match proceeds with the chosen candidate; the ambiguity
// is surfaced for audit, never treated as fatal.
type Ambiguity struct {
	RecordTitle  string
	Platform     model.Platform
	CandidateIDs []string
	ChosenID     string
}

// Matcher finds the canonical opportunity a record belongs to.
type Matcher struct {
	threshold float64
}

// New creates a Matcher with the given fuzzy similarity threshold.
// Non-positive thresholds fall back to the default.
func New(threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{threshold: threshold}
}

// Find runs the cascade against the candidate set:
//  1. Exact URL overlap with any known listing URL, including
//     aggregator-reported original-source URLs — certain.
//  2. Exact normalized title + organization — certain.
//  3. Token-set title similarity >= threshold with agreeing (or both
//     absent) organizations — probable.
//
// Callers may pre-filter candidates for speed; a full scan returns the
// same answer. A nil Result means the record is a new opportunity.
func (m *Matcher) Find(rec model.NormalizedRecord, candidates []*model.Opportunity) (*Result, *Ambiguity) {
	if len(candidates) == 0 {
		return nil, nil
	}

	recURLs := recordURLSet(rec)

	// Pass 1: URL overlap.
	for _, c := range candidates {
		if urlOverlap(recURLs, c) {
			return &Result{Opportunity: c, Pass: PassURL, Confidence: ConfidenceCertain, Score: 1}, nil
		}
	}

	// Pass 2: exact title + organization.
	if rec.NormTitle != "" {
		for _, c := range candidates {
			if rec.NormTitle == normalize.Key(c.Title) && rec.NormOrg == normalize.Key(c.Organization) {
				return &Result{Opportunity: c, Pass: PassTitleOrg, Confidence: ConfidenceCertain, Score: 1}, nil
			}
		}
	}

	// Pass 3: fuzzy title with agreeing organization.
	return m.fuzzy(rec, candidates)
}

func (m *Matcher) fuzzy(rec model.NormalizedRecord, candidates []*model.Opportunity) (*Result, *Ambiguity) {
	if rec.NormTitle == "" {
		return nil, nil
	}

	type scored struct {
		opp   *model.Opportunity
		score float64
	}
	var hits []scored

	for _, c := range candidates {
		// Same organization, or both absent.
		if normalize.Key(c.Organization) != rec.NormOrg {
			continue
		}
		s := Similarity(rec.NormTitle, normalize.Key(c.Title))
		if s >= m.threshold {
			hits = append(hits, scored{opp: c, score: s})
		}
	}

	if len(hits) == 0 {
		return nil, nil
	}

	best := hits[0]
	for _, h := range hits[1:] {
		if h.opp.LastChecked.After(best.opp.LastChecked) {
			best = h
		}
	}

	var amb *Ambiguity
	if len(hits) > 1 {
		amb = &Ambiguity{
			RecordTitle: rec.Title,
			Platform:    rec.Platform,
			ChosenID:    best.opp.ID,
		}
		for _, h := range hits {
			amb.CandidateIDs = append(amb.CandidateIDs, h.opp.ID)
		}
		zap.L().Warn("match: ambiguous fuzzy match",
			zap.String("title", rec.Title),
			zap.String("platform", string(rec.Platform)),
			zap.Strings("candidates", amb.CandidateIDs),
			zap.String("chosen", amb.ChosenID),
		)
	}

	return &Result{Opportunity: best.opp, Pass: PassFuzzy, Confidence: ConfidenceProbable, Score: best.score}, amb
}

// recordURLSet collects the record's own URL plus any aggregator-reported
// original-source URL, in canonical form.
func recordURLSet(rec model.NormalizedRecord) map[string]bool {
	urls := make(map[string]bool, 2)
	if u := identity.CanonicalURL(rec.URL); u != "" {
		urls[u] = true
	}
	extras := model.ParseExtras(rec.Platform, rec.Extras)
	if src := extras.OriginalSourceURL(); src != "" {
		if u := identity.CanonicalURL(src); u != "" {
			urls[u] = true
		}
	}
	return urls
}

func urlOverlap(recURLs map[string]bool, c *model.Opportunity) bool {
	if len(recURLs) == 0 {
		return false
	}
	for _, u := range c.URLs {
		if recURLs[identity.CanonicalURL(u)] {
			return true
		}
	}
	for i := range c.Links {
		link := &c.Links[i]
		if recURLs[identity.CanonicalURL(link.URL)] {
			return true
		}
		if link.Payload != nil {
			if src := model.ParseExtras(link.Platform, link.Payload.Extras).OriginalSourceURL(); src != "" {
				if recURLs[identity.CanonicalURL(src)] {
					return true
				}
			}
		}
	}
	return false
}
