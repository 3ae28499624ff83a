package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencall-dev/opencall-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testOpportunity(title string, platform model.Platform) *model.Opportunity {
	now := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	deadline := time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC)
	id := uuid.New().String()
	return &model.Opportunity{
		ID:           id,
		Title:        title,
		Organization: "Riverside Arts Council",
		Deadline:     &deadline,
		DeadlineRaw:  "November 15, 2025",
		City:         "Portland",
		State:        "OR",
		Country:      "United States",
		Fee:          model.FeeValue{Kind: model.FeeAmount, Amount: 35, Currency: "USD"},
		Platforms:    []model.Platform{platform},
		URLs:         []string{"https://example.org/call/1"},
		Links: []model.SourceLink{{
			ID:            uuid.New().String(),
			OpportunityID: id,
			Platform:      platform,
			URL:           "https://example.org/call/1",
			PlatformID:    "1",
			IdentityKey:   uuid.New().String(),
			FirstSeen:     now,
			LastSeen:      now,
		}},
		FirstSeen:   now,
		LastChecked: now,
		TimesSeen:   1,
		IsActive:    true,
	}
}

func TestSQLite_CommitAndLoad_Roundtrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	opp := testOpportunity("Annual Juried Exhibition", model.PlatformCafe)
	opp.Links[0].Payload = &model.NormalizedRecord{
		RawRecord: model.RawRecord{Title: "Annual Juried Exhibition"},
		NormTitle: "annual juried exhibition",
	}
	require.NoError(t, st.CommitOpportunity(ctx, opp, nil))

	loaded, err := st.LoadOpportunities(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	got := loaded[0]
	assert.Equal(t, opp.ID, got.ID)
	assert.Equal(t, "Annual Juried Exhibition", got.Title)
	assert.Equal(t, "Riverside Arts Council", got.Organization)
	require.NotNil(t, got.Deadline)
	assert.Equal(t, "2025-11-15", got.Deadline.Format("2006-01-02"))
	assert.Equal(t, model.FeeAmount, got.Fee.Kind)
	assert.Equal(t, 35.0, got.Fee.Amount)
	assert.Equal(t, []model.Platform{model.PlatformCafe}, got.Platforms)
	require.Len(t, got.Links, 1)
	assert.Equal(t, model.PlatformCafe, got.Links[0].Platform)
	require.NotNil(t, got.Links[0].Payload)
	assert.Equal(t, "annual juried exhibition", got.Links[0].Payload.NormTitle)
}

func TestSQLite_CommitOpportunity_UpsertUpdates(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	opp := testOpportunity("Sculpture Walk", model.PlatformArtCall)
	require.NoError(t, st.CommitOpportunity(ctx, opp, nil))

	opp.Title = "Sculpture Walk 2026"
	opp.TimesSeen = 2
	require.NoError(t, st.CommitOpportunity(ctx, opp, nil))

	loaded, err := st.LoadOpportunities(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Sculpture Walk 2026", loaded[0].Title)
	assert.Equal(t, 2, loaded[0].TimesSeen)
}

func TestSQLite_CommitOpportunity_LinkUpsertByPlatform(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	opp := testOpportunity("Open Studio Tour", model.PlatformZapplication)
	require.NoError(t, st.CommitOpportunity(ctx, opp, nil))

	// Same platform again with a new URL replaces the link instead of adding one.
	opp.Links[0].URL = "https://www.zapplication.org/event-info.php?ID=202"
	require.NoError(t, st.CommitOpportunity(ctx, opp, nil))

	loaded, err := st.LoadOpportunities(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Len(t, loaded[0].Links, 1)
	assert.Equal(t, "https://www.zapplication.org/event-info.php?ID=202", loaded[0].Links[0].URL)
}

func TestSQLite_LoadOpportunities_FilterByPlatform(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.CommitOpportunity(ctx, testOpportunity("Cafe Call", model.PlatformCafe), nil))
	require.NoError(t, st.CommitOpportunity(ctx, testOpportunity("ArtCall Call", model.PlatformArtCall), nil))

	loaded, err := st.LoadOpportunities(ctx, Filter{Platform: model.PlatformCafe})
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Cafe Call", loaded[0].Title)
}

func TestSQLite_LoadOpportunities_ActiveOnly(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	active := testOpportunity("Upcoming Call", model.PlatformCafe)
	expired := testOpportunity("Closed Call", model.PlatformCafe)
	expired.IsActive = false
	require.NoError(t, st.CommitOpportunity(ctx, active, nil))
	require.NoError(t, st.CommitOpportunity(ctx, expired, nil))

	loaded, err := st.LoadOpportunities(ctx, Filter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Upcoming Call", loaded[0].Title)
}

func TestSQLite_LoadOpportunities_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)

	loaded, err := st.LoadOpportunities(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestSQLite_ChangeEvents_AppendAndList(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	opp := testOpportunity("Winter Group Show", model.PlatformShowSubmit)
	events := []model.ChangeEvent{
		{
			ID:            uuid.New().String(),
			OpportunityID: opp.ID,
			Field:         "deadline",
			OldValue:      "2025-11-15",
			NewValue:      "2025-12-01",
			Platform:      model.PlatformShowSubmit,
			Kind:          model.ChangeApplied,
			OccurredAt:    time.Date(2025, 9, 2, 8, 0, 0, 0, time.UTC),
		},
		{
			ID:            uuid.New().String(),
			OpportunityID: opp.ID,
			Field:         "fee",
			OldValue:      "$35",
			NewValue:      "$40",
			Platform:      model.PlatformCafe,
			Kind:          model.ChangeProposed,
			OccurredAt:    time.Date(2025, 9, 3, 8, 0, 0, 0, time.UTC),
		},
	}
	require.NoError(t, st.CommitOpportunity(ctx, opp, events))

	got, err := st.ListChangeEvents(ctx, opp.ID, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Newest first.
	assert.Equal(t, "fee", got[0].Field)
	assert.Equal(t, model.ChangeProposed, got[0].Kind)
	assert.Equal(t, "deadline", got[1].Field)
	assert.Equal(t, model.ChangeApplied, got[1].Kind)
}

func TestSQLite_IngestRun_Lifecycle(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateIngestRun(ctx, []model.Platform{model.PlatformCafe, model.PlatformArtCall})
	require.NoError(t, err)
	assert.Equal(t, model.IngestRunRunning, run.Status)

	summary := &model.RunSummary{
		Processed:        map[model.Platform]int{model.PlatformCafe: 12, model.PlatformArtCall: 4},
		NewOpportunities: 9,
		ChangeEvents:     2,
	}
	require.NoError(t, st.CompleteIngestRun(ctx, run.ID, model.IngestRunComplete, summary))

	runs, err := st.ListIngestRuns(ctx, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, model.IngestRunComplete, runs[0].Status)
	require.NotNil(t, runs[0].CompletedAt)
	require.NotNil(t, runs[0].Summary)
	assert.Equal(t, 9, runs[0].Summary.NewOpportunities)
	assert.Equal(t, 12, runs[0].Summary.Processed[model.PlatformCafe])
}

func TestSQLite_CompleteIngestRun_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.CompleteIngestRun(context.Background(), "missing", model.IngestRunComplete, &model.RunSummary{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
