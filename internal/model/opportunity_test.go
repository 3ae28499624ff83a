package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecomputeActive(t *testing.T) {
	run := time.Date(2025, 9, 1, 15, 0, 0, 0, time.UTC)

	past := time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)
	future := time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC)
	today := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

	o := Opportunity{Deadline: &past}
	o.RecomputeActive(run)
	assert.False(t, o.IsActive)

	o = Opportunity{Deadline: &future}
	o.RecomputeActive(run)
	assert.True(t, o.IsActive)

	// Deadline day itself still counts as open.
	o = Opportunity{Deadline: &today}
	o.RecomputeActive(run)
	assert.True(t, o.IsActive)

	// No parseable deadline: assumed open.
	o = Opportunity{}
	o.RecomputeActive(run)
	assert.True(t, o.IsActive)
}

func TestOpportunity_Link(t *testing.T) {
	o := Opportunity{Links: []SourceLink{
		{ID: "l1", Platform: PlatformCafe},
		{ID: "l2", Platform: PlatformArtCall},
	}}

	l := o.Link(PlatformArtCall)
	assert.Equal(t, "l2", l.ID)
	assert.Nil(t, o.Link(PlatformZapplication))
}

func TestPlatform_Known(t *testing.T) {
	assert.True(t, PlatformCafe.Known())
	assert.True(t, PlatformArtworkArchive.Known())
	assert.False(t, Platform("myspace").Known())
	assert.False(t, Platform("").Known())
}

func TestRunSummary_TotalProcessed(t *testing.T) {
	s := RunSummary{Processed: map[Platform]int{PlatformCafe: 3, PlatformArtCall: 2}}
	assert.Equal(t, 5, s.TotalProcessed())
	assert.Equal(t, 0, (&RunSummary{}).TotalProcessed())
}
