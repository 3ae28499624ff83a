package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/opencall-dev/opencall-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it
// in tests.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS opportunities (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	organization  TEXT NOT NULL DEFAULT '',
	deadline      DATE,
	deadline_raw  TEXT NOT NULL DEFAULT '',
	city          TEXT NOT NULL DEFAULT '',
	state         TEXT NOT NULL DEFAULT '',
	country       TEXT NOT NULL DEFAULT '',
	location_text TEXT NOT NULL DEFAULT '',
	fee           JSONB NOT NULL DEFAULT '{}',
	eligibility   TEXT NOT NULL DEFAULT '',
	description   TEXT NOT NULL DEFAULT '',
	email         TEXT NOT NULL DEFAULT '',
	platforms     JSONB NOT NULL DEFAULT '[]',
	urls          JSONB NOT NULL DEFAULT '[]',
	extras        JSONB NOT NULL DEFAULT '{}',
	first_seen    TIMESTAMPTZ NOT NULL,
	last_checked  TIMESTAMPTZ NOT NULL,
	times_seen    INTEGER NOT NULL DEFAULT 1,
	is_active     BOOLEAN NOT NULL DEFAULT TRUE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS source_links (
	id             TEXT PRIMARY KEY,
	opportunity_id TEXT NOT NULL REFERENCES opportunities(id),
	platform       TEXT NOT NULL,
	url            TEXT NOT NULL DEFAULT '',
	platform_id    TEXT NOT NULL DEFAULT '',
	identity_key   TEXT NOT NULL,
	first_seen     TIMESTAMPTZ NOT NULL,
	last_seen      TIMESTAMPTZ NOT NULL,
	payload        JSONB,
	UNIQUE (opportunity_id, platform)
);

CREATE TABLE IF NOT EXISTS change_events (
	id             TEXT PRIMARY KEY,
	opportunity_id TEXT NOT NULL REFERENCES opportunities(id),
	field          TEXT NOT NULL,
	old_value      TEXT NOT NULL DEFAULT '',
	new_value      TEXT NOT NULL DEFAULT '',
	platform       TEXT NOT NULL,
	kind           TEXT NOT NULL,
	occurred_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS ingest_runs (
	id           TEXT PRIMARY KEY,
	platforms    JSONB NOT NULL DEFAULT '[]',
	status       TEXT NOT NULL DEFAULT 'running',
	summary      JSONB,
	started_at   TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_opportunities_active ON opportunities(is_active);
CREATE INDEX IF NOT EXISTS idx_opportunities_deadline ON opportunities(deadline);
CREATE INDEX IF NOT EXISTS idx_source_links_opportunity ON source_links(opportunity_id);
CREATE INDEX IF NOT EXISTS idx_source_links_identity ON source_links(platform, identity_key);
CREATE INDEX IF NOT EXISTS idx_change_events_opportunity ON change_events(opportunity_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CommitOpportunity(ctx context.Context, o *model.Opportunity, events []model.ChangeEvent) error {
	now := time.Now().UTC()

	fee, platforms, urls, extras, err := marshalOpportunityBlobs(o)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin commit")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx, `
		INSERT INTO opportunities (
			id, title, organization, deadline, deadline_raw,
			city, state, country, location_text, fee,
			eligibility, description, email, platforms, urls, extras,
			first_seen, last_checked, times_seen, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			organization = excluded.organization,
			deadline = excluded.deadline,
			deadline_raw = excluded.deadline_raw,
			city = excluded.city,
			state = excluded.state,
			country = excluded.country,
			location_text = excluded.location_text,
			fee = excluded.fee,
			eligibility = excluded.eligibility,
			description = excluded.description,
			email = excluded.email,
			platforms = excluded.platforms,
			urls = excluded.urls,
			extras = excluded.extras,
			last_checked = excluded.last_checked,
			times_seen = excluded.times_seen,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at`,
		o.ID, o.Title, o.Organization, o.Deadline, o.DeadlineRaw,
		o.City, o.State, o.Country, o.LocationText, fee,
		o.Eligibility, o.Description, o.Email, platforms, urls, extras,
		o.FirstSeen, o.LastChecked, o.TimesSeen, o.IsActive, now, now,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: upsert opportunity %s", o.ID)
	}

	for i := range o.Links {
		l := &o.Links[i]
		payload, err := marshalPayload(l.Payload)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO source_links (
				id, opportunity_id, platform, url, platform_id,
				identity_key, first_seen, last_seen, payload
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (opportunity_id, platform) DO UPDATE SET
				url = excluded.url,
				platform_id = excluded.platform_id,
				identity_key = excluded.identity_key,
				last_seen = excluded.last_seen,
				payload = excluded.payload`,
			l.ID, o.ID, string(l.Platform), l.URL, l.PlatformID,
			l.IdentityKey, l.FirstSeen, l.LastSeen, payload,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: upsert source link %s/%s", o.ID, l.Platform)
		}
	}

	for _, ev := range events {
		_, err = tx.Exec(ctx, `
			INSERT INTO change_events (
				id, opportunity_id, field, old_value, new_value,
				platform, kind, occurred_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			ev.ID, ev.OpportunityID, ev.Field, ev.OldValue, ev.NewValue,
			string(ev.Platform), string(ev.Kind), ev.OccurredAt,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: append change event for %s", o.ID)
		}
	}

	return eris.Wrapf(tx.Commit(ctx), "postgres: commit opportunity %s", o.ID)
}

func (s *PostgresStore) LoadOpportunities(ctx context.Context, f Filter) ([]model.Opportunity, error) {
	query := `SELECT id, title, organization, deadline, deadline_raw,
		city, state, country, location_text, fee,
		eligibility, description, email, platforms, urls, extras,
		first_seen, last_checked, times_seen, is_active
		FROM opportunities WHERE 1=1`
	var args []any

	if f.ActiveOnly {
		query += ` AND is_active`
	}
	if f.Platform != "" {
		args = append(args, string(f.Platform))
		query += ` AND id IN (SELECT opportunity_id FROM source_links WHERE platform = $1)`
	}
	query += ` ORDER BY last_checked DESC, id`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load opportunities")
	}
	defer rows.Close()

	var opps []model.Opportunity
	var ids []string
	for rows.Next() {
		o, err := scanOpportunityPg(rows)
		if err != nil {
			return nil, err
		}
		opps = append(opps, *o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: load opportunities iterate")
	}
	if len(opps) == 0 {
		return nil, nil
	}

	links, err := s.loadLinks(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range opps {
		opps[i].Links = links[opps[i].ID]
	}
	return opps, nil
}

func (s *PostgresStore) loadLinks(ctx context.Context, ids []string) (map[string][]model.SourceLink, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, opportunity_id, platform, url, platform_id,
			identity_key, first_seen, last_seen, payload
		FROM source_links WHERE opportunity_id = ANY($1)`, ids)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load source links")
	}
	defer rows.Close()

	byOpp := make(map[string][]model.SourceLink)
	for rows.Next() {
		var l model.SourceLink
		var platform string
		var payload []byte
		err := rows.Scan(&l.ID, &l.OpportunityID, &platform, &l.URL, &l.PlatformID,
			&l.IdentityKey, &l.FirstSeen, &l.LastSeen, &payload)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan source link")
		}
		l.Platform = model.Platform(platform)
		if len(payload) > 0 {
			var rec model.NormalizedRecord
			if err := json.Unmarshal(payload, &rec); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal link payload")
			}
			l.Payload = &rec
		}
		byOpp[l.OpportunityID] = append(byOpp[l.OpportunityID], l)
	}
	return byOpp, eris.Wrap(rows.Err(), "postgres: load source links iterate")
}

func (s *PostgresStore) ListChangeEvents(ctx context.Context, opportunityID string, limit int) ([]model.ChangeEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, opportunity_id, field, old_value, new_value, platform, kind, occurred_at
		FROM change_events WHERE opportunity_id = $1
		ORDER BY occurred_at DESC, id LIMIT $2`,
		opportunityID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list change events")
	}
	defer rows.Close()

	var events []model.ChangeEvent
	for rows.Next() {
		var ev model.ChangeEvent
		var platform, kind string
		err := rows.Scan(&ev.ID, &ev.OpportunityID, &ev.Field, &ev.OldValue, &ev.NewValue,
			&platform, &kind, &ev.OccurredAt)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan change event")
		}
		ev.Platform = model.Platform(platform)
		ev.Kind = model.ChangeKind(kind)
		events = append(events, ev)
	}
	return events, eris.Wrap(rows.Err(), "postgres: list change events iterate")
}

func (s *PostgresStore) CreateIngestRun(ctx context.Context, platforms []model.Platform) (*model.IngestRun, error) {
	run := &model.IngestRun{
		ID:        uuid.New().String(),
		Platforms: platforms,
		Status:    model.IngestRunRunning,
		StartedAt: time.Now().UTC(),
	}
	platformsJSON, err := json.Marshal(platforms)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal run platforms")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO ingest_runs (id, platforms, status, started_at) VALUES ($1, $2, $3, $4)`,
		run.ID, string(platformsJSON), string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert ingest run")
	}
	return run, nil
}

func (s *PostgresStore) CompleteIngestRun(ctx context.Context, runID string, status model.IngestRunStatus, summary *model.RunSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal run summary")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE ingest_runs SET status = $1, summary = $2, completed_at = $3 WHERE id = $4`,
		string(status), string(summaryJSON), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete ingest run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("ingest run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) ListIngestRuns(ctx context.Context, limit int) ([]model.IngestRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, platforms, status, summary, started_at, completed_at
		FROM ingest_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list ingest runs")
	}
	defer rows.Close()

	var runs []model.IngestRun
	for rows.Next() {
		var r model.IngestRun
		var platformsJSON []byte
		var summaryJSON []byte
		var status string
		var completed *time.Time
		err := rows.Scan(&r.ID, &platformsJSON, &status, &summaryJSON, &r.StartedAt, &completed)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan ingest run")
		}
		r.Status = model.IngestRunStatus(status)
		if err := json.Unmarshal(platformsJSON, &r.Platforms); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal run platforms")
		}
		if len(summaryJSON) > 0 {
			r.Summary = &model.RunSummary{}
			if err := json.Unmarshal(summaryJSON, r.Summary); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal run summary")
			}
		}
		r.CompletedAt = completed
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list ingest runs iterate")
}

// scanOpportunityPg mirrors scanOpportunity for pgx rows, which surface
// JSONB as []byte and nullable dates as *time.Time.
func scanOpportunityPg(rows pgx.Rows) (*model.Opportunity, error) {
	var o model.Opportunity
	var deadline *time.Time
	var fee, platforms, urls, extras []byte

	err := rows.Scan(&o.ID, &o.Title, &o.Organization, &deadline, &o.DeadlineRaw,
		&o.City, &o.State, &o.Country, &o.LocationText, &fee,
		&o.Eligibility, &o.Description, &o.Email, &platforms, &urls, &extras,
		&o.FirstSeen, &o.LastChecked, &o.TimesSeen, &o.IsActive)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan opportunity")
	}

	o.Deadline = deadline
	if err := json.Unmarshal(fee, &o.Fee); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal fee")
	}
	if err := json.Unmarshal(platforms, &o.Platforms); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal platforms")
	}
	if err := json.Unmarshal(urls, &o.URLs); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal urls")
	}
	if err := json.Unmarshal(extras, &o.Extras); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal extras")
	}
	return &o, nil
}

