package model

import "time"

// IngestRunStatus is the lifecycle state of an ingest run.
type IngestRunStatus string

// Ingest run states.
const (
	IngestRunRunning  IngestRunStatus = "running"
	IngestRunComplete IngestRunStatus = "complete"
	IngestRunPartial  IngestRunStatus = "partial"
)

// IngestRun records one invocation of the reconciliation pipeline.
type IngestRun struct {
	ID          string          `json:"id" db:"id"`
	Platforms   []Platform      `json:"platforms" db:"platforms"`
	Status      IngestRunStatus `json:"status" db:"status"`
	Summary     *RunSummary     `json:"summary,omitempty" db:"summary"`
	StartedAt   time.Time       `json:"started_at" db:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
}

// RunSummary is the reporting output of one reconcile run.
type RunSummary struct {
	Processed map[Platform]int `json:"processed"`

	NewOpportunities     int `json:"new_opportunities"`
	UpdatedOpportunities int `json:"updated_opportunities"`
	ChangeEvents         int `json:"change_events"`

	UnparsedDeadlines int `json:"unparsed_deadlines"`
	AmbiguousMatches  int `json:"ambiguous_matches"`
	RejectedRecords   int `json:"rejected_records"`

	// Uncommitted lists opportunity ids whose persistence failed. They
	// must be retried whole (opportunity plus change events) next run.
	Uncommitted []string `json:"uncommitted,omitempty"`
}

// TotalProcessed sums the per-platform processed counts.
func (s *RunSummary) TotalProcessed() int {
	n := 0
	for _, c := range s.Processed {
		n += c
	}
	return n
}
