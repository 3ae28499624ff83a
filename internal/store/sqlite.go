package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/opencall-dev/opencall-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
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
	fee           TEXT NOT NULL DEFAULT '{}',
	eligibility   TEXT NOT NULL DEFAULT '',
	description   TEXT NOT NULL DEFAULT '',
	email         TEXT NOT NULL DEFAULT '',
	platforms     TEXT NOT NULL DEFAULT '[]',
	urls          TEXT NOT NULL DEFAULT '[]',
	extras        TEXT NOT NULL DEFAULT '{}',
	first_seen    DATETIME NOT NULL,
	last_checked  DATETIME NOT NULL,
	times_seen    INTEGER NOT NULL DEFAULT 1,
	is_active     INTEGER NOT NULL DEFAULT 1,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS source_links (
	id             TEXT PRIMARY KEY,
	opportunity_id TEXT NOT NULL REFERENCES opportunities(id),
	platform       TEXT NOT NULL,
	url            TEXT NOT NULL DEFAULT '',
	platform_id    TEXT NOT NULL DEFAULT '',
	identity_key   TEXT NOT NULL,
	first_seen     DATETIME NOT NULL,
	last_seen      DATETIME NOT NULL,
	payload        TEXT,
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
	occurred_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS ingest_runs (
	id           TEXT PRIMARY KEY,
	platforms    TEXT NOT NULL DEFAULT '[]',
	status       TEXT NOT NULL DEFAULT 'running',
	summary      TEXT,
	started_at   DATETIME NOT NULL,
	completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_opportunities_active ON opportunities(is_active);
CREATE INDEX IF NOT EXISTS idx_opportunities_deadline ON opportunities(deadline);
CREATE INDEX IF NOT EXISTS idx_source_links_opportunity ON source_links(opportunity_id);
CREATE INDEX IF NOT EXISTS idx_source_links_identity ON source_links(platform, identity_key);
CREATE INDEX IF NOT EXISTS idx_change_events_opportunity ON change_events(opportunity_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CommitOpportunity(ctx context.Context, o *model.Opportunity, events []model.ChangeEvent) error {
	now := time.Now().UTC()

	fee, platforms, urls, extras, err := marshalOpportunityBlobs(o)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin commit")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO opportunities (
			id, title, organization, deadline, deadline_raw,
			city, state, country, location_text, fee,
			eligibility, description, email, platforms, urls, extras,
			first_seen, last_checked, times_seen, is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
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
		o.ID, o.Title, o.Organization, nullTime(o.Deadline), o.DeadlineRaw,
		o.City, o.State, o.Country, o.LocationText, fee,
		o.Eligibility, o.Description, o.Email, platforms, urls, extras,
		o.FirstSeen, o.LastChecked, o.TimesSeen, o.IsActive, now, now,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: upsert opportunity %s", o.ID)
	}

	for i := range o.Links {
		l := &o.Links[i]
		payload, err := marshalPayload(l.Payload)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO source_links (
				id, opportunity_id, platform, url, platform_id,
				identity_key, first_seen, last_seen, payload
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
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
			return eris.Wrapf(err, "sqlite: upsert source link %s/%s", o.ID, l.Platform)
		}
	}

	for _, ev := range events {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO change_events (
				id, opportunity_id, field, old_value, new_value,
				platform, kind, occurred_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			ev.ID, ev.OpportunityID, ev.Field, ev.OldValue, ev.NewValue,
			string(ev.Platform), string(ev.Kind), ev.OccurredAt,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: append change event for %s", o.ID)
		}
	}

	return eris.Wrapf(tx.Commit(), "sqlite: commit opportunity %s", o.ID)
}

func (s *SQLiteStore) LoadOpportunities(ctx context.Context, f Filter) ([]model.Opportunity, error) {
	query := `SELECT id, title, organization, deadline, deadline_raw,
		city, state, country, location_text, fee,
		eligibility, description, email, platforms, urls, extras,
		first_seen, last_checked, times_seen, is_active
		FROM opportunities WHERE 1=1`
	var args []any

	if f.ActiveOnly {
		query += ` AND is_active = 1`
	}
	if f.Platform != "" {
		query += ` AND id IN (SELECT opportunity_id FROM source_links WHERE platform = ?)`
		args = append(args, string(f.Platform))
	}
	query += ` ORDER BY last_checked DESC, id`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load opportunities")
	}
	defer rows.Close()

	var opps []model.Opportunity
	ids := make([]string, 0)
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, err
		}
		opps = append(opps, *o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: load opportunities iterate")
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

func (s *SQLiteStore) loadLinks(ctx context.Context, ids []string) (map[string][]model.SourceLink, error) {
	query := `SELECT id, opportunity_id, platform, url, platform_id,
		identity_key, first_seen, last_seen, payload
		FROM source_links WHERE opportunity_id IN (` + placeholders(len(ids)) + `)`
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load source links")
	}
	defer rows.Close()

	byOpp := make(map[string][]model.SourceLink)
	for rows.Next() {
		var l model.SourceLink
		var platform string
		var payload sql.NullString
		err := rows.Scan(&l.ID, &l.OpportunityID, &platform, &l.URL, &l.PlatformID,
			&l.IdentityKey, &l.FirstSeen, &l.LastSeen, &payload)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan source link")
		}
		l.Platform = model.Platform(platform)
		if payload.Valid && payload.String != "" {
			var rec model.NormalizedRecord
			if err := json.Unmarshal([]byte(payload.String), &rec); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal link payload")
			}
			l.Payload = &rec
		}
		byOpp[l.OpportunityID] = append(byOpp[l.OpportunityID], l)
	}
	return byOpp, eris.Wrap(rows.Err(), "sqlite: load source links iterate")
}

func (s *SQLiteStore) ListChangeEvents(ctx context.Context, opportunityID string, limit int) ([]model.ChangeEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, opportunity_id, field, old_value, new_value, platform, kind, occurred_at
		FROM change_events WHERE opportunity_id = ?
		ORDER BY occurred_at DESC, id LIMIT ?`,
		opportunityID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list change events")
	}
	defer rows.Close()

	var events []model.ChangeEvent
	for rows.Next() {
		var ev model.ChangeEvent
		var platform, kind string
		err := rows.Scan(&ev.ID, &ev.OpportunityID, &ev.Field, &ev.OldValue, &ev.NewValue,
			&platform, &kind, &ev.OccurredAt)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan change event")
		}
		ev.Platform = model.Platform(platform)
		ev.Kind = model.ChangeKind(kind)
		events = append(events, ev)
	}
	return events, eris.Wrap(rows.Err(), "sqlite: list change events iterate")
}

func (s *SQLiteStore) CreateIngestRun(ctx context.Context, platforms []model.Platform) (*model.IngestRun, error) {
	run := &model.IngestRun{
		ID:        uuid.New().String(),
		Platforms: platforms,
		Status:    model.IngestRunRunning,
		StartedAt: time.Now().UTC(),
	}
	platformsJSON, err := json.Marshal(platforms)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal run platforms")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ingest_runs (id, platforms, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, string(platformsJSON), string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert ingest run")
	}
	return run, nil
}

func (s *SQLiteStore) CompleteIngestRun(ctx context.Context, runID string, status model.IngestRunStatus, summary *model.RunSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal run summary")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE ingest_runs SET status = ?, summary = ?, completed_at = ? WHERE id = ?`,
		string(status), string(summaryJSON), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete ingest run %s", runID)
	}
	return checkRowsAffected(res, "ingest run", runID)
}

func (s *SQLiteStore) ListIngestRuns(ctx context.Context, limit int) ([]model.IngestRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, platforms, status, summary, started_at, completed_at
		FROM ingest_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list ingest runs")
	}
	defer rows.Close()

	var runs []model.IngestRun
	for rows.Next() {
		var r model.IngestRun
		var platformsJSON, status string
		var summaryJSON sql.NullString
		var completed sql.NullTime
		err := rows.Scan(&r.ID, &platformsJSON, &status, &summaryJSON, &r.StartedAt, &completed)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan ingest run")
		}
		r.Status = model.IngestRunStatus(status)
		if err := json.Unmarshal([]byte(platformsJSON), &r.Platforms); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal run platforms")
		}
		if summaryJSON.Valid && summaryJSON.String != "" {
			r.Summary = &model.RunSummary{}
			if err := json.Unmarshal([]byte(summaryJSON.String), r.Summary); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal run summary")
			}
		}
		if completed.Valid {
			t := completed.Time
			r.CompletedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list ingest runs iterate")
}

// helpers

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	s := "?"
	for i := 1; i < n; i++ {
		s += ", ?"
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

func marshalOpportunityBlobs(o *model.Opportunity) (fee, platforms, urls, extras string, err error) {
	feeB, err := json.Marshal(o.Fee)
	if err != nil {
		return "", "", "", "", eris.Wrap(err, "store: marshal fee")
	}
	platformsB, err := json.Marshal(o.Platforms)
	if err != nil {
		return "", "", "", "", eris.Wrap(err, "store: marshal platforms")
	}
	urlsB, err := json.Marshal(o.URLs)
	if err != nil {
		return "", "", "", "", eris.Wrap(err, "store: marshal urls")
	}
	extrasB, err := json.Marshal(o.Extras)
	if err != nil {
		return "", "", "", "", eris.Wrap(err, "store: marshal extras")
	}
	return string(feeB), string(platformsB), string(urlsB), string(extrasB), nil
}

func marshalPayload(rec *model.NormalizedRecord) (any, error) {
	if rec == nil {
		return nil, nil
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal link payload")
	}
	return string(b), nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanOpportunity(row scannable) (*model.Opportunity, error) {
	var o model.Opportunity
	var deadline sql.NullTime
	var fee, platforms, urls, extras string

	err := row.Scan(&o.ID, &o.Title, &o.Organization, &deadline, &o.DeadlineRaw,
		&o.City, &o.State, &o.Country, &o.LocationText, &fee,
		&o.Eligibility, &o.Description, &o.Email, &platforms, &urls, &extras,
		&o.FirstSeen, &o.LastChecked, &o.TimesSeen, &o.IsActive)
	if err != nil {
		return nil, eris.Wrap(err, "store: scan opportunity")
	}

	if deadline.Valid {
		t := deadline.Time
		o.Deadline = &t
	}
	if err := json.Unmarshal([]byte(fee), &o.Fee); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal fee")
	}
	if err := json.Unmarshal([]byte(platforms), &o.Platforms); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal platforms")
	}
	if err := json.Unmarshal([]byte(urls), &o.URLs); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal urls")
	}
	if err := json.Unmarshal([]byte(extras), &o.Extras); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal extras")
	}
	return &o, nil
}
