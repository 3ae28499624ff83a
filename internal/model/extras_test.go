package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExtras_Cafe(t *testing.T) {
	e := ParseExtras(PlatformCafe, map[string]string{
		"event_id":    "9981",
		"state_code":  "6",
		"event_dates": "June 1-3, 2026",
		"booth_size":  "10x10",
	})

	require.NotNil(t, e.Cafe)
	assert.Equal(t, "9981", e.Cafe.EventID)
	assert.Equal(t, "6", e.Cafe.StateCode)
	assert.Equal(t, "June 1-3, 2026", e.Cafe.EventDates)
	// Unanticipated keys survive in Other.
	assert.Equal(t, "10x10", e.Other["booth_size"])
	assert.Nil(t, e.Zapplication)
}

func TestParseExtras_ArtworkArchive(t *testing.T) {
	e := ParseExtras(PlatformArtworkArchive, map[string]string{
		"original_source_url": "https://citymurals.org/apply",
		"call_type":           "Public Art",
	})

	require.NotNil(t, e.ArtworkArchive)
	assert.Equal(t, "https://citymurals.org/apply", e.OriginalSourceURL())
	assert.Equal(t, "Public Art", e.ArtworkArchive.CallType)
}

func TestParseExtras_EmptyAndNil(t *testing.T) {
	assert.Equal(t, Extras{}, ParseExtras(PlatformCafe, nil))
	e := ParseExtras(PlatformCafe, map[string]string{"event_id": ""})
	assert.Nil(t, e.Cafe)
}

func TestExtras_Merge(t *testing.T) {
	a := ParseExtras(PlatformCafe, map[string]string{"event_id": "1"})
	b := ParseExtras(PlatformZapplication, map[string]string{"zapp_id": "2"})

	a.Merge(b)
	require.NotNil(t, a.Cafe)
	require.NotNil(t, a.Zapplication)
	assert.Equal(t, "1", a.Cafe.EventID)
	assert.Equal(t, "2", a.Zapplication.ZappID)
}

func TestExtras_MergeDoesNotOverwrite(t *testing.T) {
	a := ParseExtras(PlatformCafe, map[string]string{"event_id": "1"})
	b := ParseExtras(PlatformCafe, map[string]string{"event_id": "999"})

	a.Merge(b)
	assert.Equal(t, "1", a.Cafe.EventID)
}

func TestExtras_OriginalSourceURL_Absent(t *testing.T) {
	var e Extras
	assert.Empty(t, e.OriginalSourceURL())
}
