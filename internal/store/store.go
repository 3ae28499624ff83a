// Package store persists canonical opportunities, their source links, and
// the append-only change history.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/opencall-dev/opencall-cli/internal/model"
)

// Filter specifies criteria for loading opportunities.
type Filter struct {
	Platform   model.Platform `json:"platform,omitempty"`
	ActiveOnly bool           `json:"active_only,omitempty"`
	Limit      int            `json:"limit,omitempty"`
}

// Store defines the persistence gateway for the reconciliation pipeline.
// CommitOpportunity writes the opportunity, its source links, and its
// change events in one transaction; reads within a run observe prior
// writes of the same run.
type Store interface {
	LoadOpportunities(ctx context.Context, f Filter) ([]model.Opportunity, error)
	CommitOpportunity(ctx context.Context, o *model.Opportunity, events []model.ChangeEvent) error
	ListChangeEvents(ctx context.Context, opportunityID string, limit int) ([]model.ChangeEvent, error)

	// Ingest runs
	CreateIngestRun(ctx context.Context, platforms []model.Platform) (*model.IngestRun, error)
	CompleteIngestRun(ctx context.Context, runID string, status model.IngestRunStatus, summary *model.RunSummary) error
	ListIngestRuns(ctx context.Context, limit int) ([]model.IngestRun, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open constructs a Store for the configured driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite", "":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
