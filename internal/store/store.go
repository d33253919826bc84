package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/utakatalp/match-simulator/internal/league"
)

// Store wraps a SQL connection and keeps each record as a JSON document next
// to the few columns it is queried by. The same statements run on Postgres
// and SQLite: placeholders are numbered in order of appearance and never reused.
type Store struct {
	DB *sql.DB

	// forUpdate locks the selected match row until the transaction ends.
	// SQLite needs no clause: its single connection serializes transactions.
	forUpdate string
}

var _ Repository = (*Store)(nil)

// NewStore opens a connection for driver ("postgres" or "sqlite3") and
// verifies it early.
func NewStore(driver, dsn string) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	s := &Store{DB: db}
	switch driver {
	case "sqlite3":
		// SQLite only supports one writer at a time
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	case "postgres":
		s.forUpdate = " FOR UPDATE"
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// Migrate creates the necessary tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS teams (
			owner TEXT NOT NULL,
			id    TEXT NOT NULL,
			name  TEXT NOT NULL,
			doc   TEXT NOT NULL,
			PRIMARY KEY (owner, id)
		)`,
		`CREATE TABLE IF NOT EXISTS matches (
			owner      TEXT   NOT NULL,
			id         TEXT   NOT NULL,
			status     TEXT   NOT NULL,
			match_type TEXT   NOT NULL,
			series_id  TEXT   NOT NULL DEFAULT '',
			start_unix BIGINT NOT NULL DEFAULT 0,
			doc        TEXT   NOT NULL,
			PRIMARY KEY (owner, id)
		)`,
		`CREATE INDEX IF NOT EXISTS matches_status_idx ON matches (status)`,
		`CREATE INDEX IF NOT EXISTS matches_series_idx ON matches (owner, series_id)`,
		`CREATE TABLE IF NOT EXISTS tournaments (
			owner TEXT NOT NULL,
			id    TEXT NOT NULL,
			name  TEXT NOT NULL,
			doc   TEXT NOT NULL,
			PRIMARY KEY (owner, id)
		)`,
	}
	for _, q := range queries {
		if _, err := s.DB.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
	}
	return nil
}

func (s *Store) SaveTeam(ctx context.Context, t *league.Team) error {
	doc, err := encode(t)
	if err != nil {
		return err
	}
	const q = `
	INSERT INTO teams (owner, id, name, doc)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (owner, id) DO UPDATE SET name = excluded.name, doc = excluded.doc
	`
	if _, err := s.DB.ExecContext(ctx, q, t.Owner, t.ID, t.Name, string(doc)); err != nil {
		return fmt.Errorf("saving team %s (%s): %w", t.ID, t.Name, err)
	}
	return nil
}

func (s *Store) GetTeam(ctx context.Context, owner, id string) (*league.Team, error) {
	const q = `SELECT doc FROM teams WHERE owner = $1 AND id = $2`
	return queryOne[league.Team](ctx, s.DB, "team", q, owner, id)
}

func (s *Store) ListTeams(ctx context.Context, owner string) ([]*league.Team, error) {
	const q = `SELECT doc FROM teams WHERE owner = $1 ORDER BY name, id`
	return queryAll[league.Team](ctx, s.DB, "teams", q, owner)
}

func (s *Store) DeleteTeam(ctx context.Context, owner, id string) error {
	return s.delete(ctx, `DELETE FROM teams WHERE owner = $1 AND id = $2`, "team", owner, id)
}

func (s *Store) SaveMatch(ctx context.Context, m *league.Match) error {
	return saveMatch(ctx, s.DB, m)
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func saveMatch(ctx context.Context, db execer, m *league.Match) error {
	doc, err := encode(m)
	if err != nil {
		return err
	}
	const q = `
	INSERT INTO matches (owner, id, status, match_type, series_id, start_unix, doc)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (owner, id) DO UPDATE SET
		status     = excluded.status,
		match_type = excluded.match_type,
		series_id  = excluded.series_id,
		start_unix = excluded.start_unix,
		doc        = excluded.doc
	`
	_, err = db.ExecContext(ctx, q,
		m.Owner, m.ID, string(m.Status), string(m.Type), m.SeriesID, m.StartTime.UnixNano(), string(doc))
	if err != nil {
		return fmt.Errorf("saving match %s: %w", m.ID, err)
	}
	return nil
}

func (s *Store) GetMatch(ctx context.Context, owner, id string) (*league.Match, error) {
	const q = `SELECT doc FROM matches WHERE owner = $1 AND id = $2`
	return queryOne[league.Match](ctx, s.DB, "match", q, owner, id)
}

func (s *Store) ListMatches(ctx context.Context, owner string) ([]*league.Match, error) {
	const q = `SELECT doc FROM matches WHERE owner = $1 ORDER BY start_unix, id`
	return queryAll[league.Match](ctx, s.DB, "matches", q, owner)
}

func (s *Store) ListPendingMatches(ctx context.Context) ([]*league.Match, error) {
	const q = `SELECT doc FROM matches WHERE status IN ($1, $2, $3) ORDER BY start_unix, id`
	args := make([]any, len(pendingStatuses))
	for i, st := range pendingStatuses {
		args[i] = string(st)
	}
	return queryAll[league.Match](ctx, s.DB, "pending matches", q, args...)
}

func (s *Store) FindSeriesLeg(ctx context.Context, owner, seriesID string, typ league.MatchType) (*league.Match, error) {
	const q = `SELECT doc FROM matches WHERE owner = $1 AND series_id = $2 AND match_type = $3`
	return queryOne[league.Match](ctx, s.DB, "series leg", q, owner, seriesID, string(typ))
}

func (s *Store) UpdateMatch(ctx context.Context, owner, id string, u *league.MatchUpdate) (*league.Match, error) {
	return s.UpdateMatchFunc(ctx, owner, id, func(*league.Match) (*league.MatchUpdate, error) { return u, nil })
}

// UpdateMatchFunc reads, steps and writes the match inside one transaction.
func (s *Store) UpdateMatchFunc(ctx context.Context, owner, id string, fn MatchStep) (*league.Match, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin UpdateMatch tx: %w", err)
	}
	defer tx.Rollback()

	q := `SELECT doc FROM matches WHERE owner = $1 AND id = $2` + s.forUpdate
	m, err := queryOne[league.Match](ctx, tx, "match", q, owner, id)
	if err != nil {
		return nil, err
	}
	u, err := fn(m)
	if err != nil {
		return nil, err
	}
	if u.Empty() {
		return m, nil
	}
	u.Apply(m)
	if err := saveMatch(ctx, tx, m); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit UpdateMatch tx: %w", err)
	}
	return m, nil
}

func (s *Store) DeleteMatch(ctx context.Context, owner, id string) error {
	return s.delete(ctx, `DELETE FROM matches WHERE owner = $1 AND id = $2`, "match", owner, id)
}

func (s *Store) SaveTournament(ctx context.Context, t *league.Tournament) error {
	doc, err := encode(t)
	if err != nil {
		return err
	}
	const q = `
	INSERT INTO tournaments (owner, id, name, doc)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (owner, id) DO UPDATE SET name = excluded.name, doc = excluded.doc
	`
	if _, err := s.DB.ExecContext(ctx, q, t.Owner, t.ID, t.Name, string(doc)); err != nil {
		return fmt.Errorf("saving tournament %s (%s): %w", t.ID, t.Name, err)
	}
	return nil
}

func (s *Store) GetTournament(ctx context.Context, owner, id string) (*league.Tournament, error) {
	const q = `SELECT doc FROM tournaments WHERE owner = $1 AND id = $2`
	return queryOne[league.Tournament](ctx, s.DB, "tournament", q, owner, id)
}

func (s *Store) ListTournaments(ctx context.Context, owner string) ([]*league.Tournament, error) {
	const q = `SELECT doc FROM tournaments WHERE owner = $1 ORDER BY name, id`
	return queryAll[league.Tournament](ctx, s.DB, "tournaments", q, owner)
}

func (s *Store) DeleteTournament(ctx context.Context, owner, id string) error {
	return s.delete(ctx, `DELETE FROM tournaments WHERE owner = $1 AND id = $2`, "tournament", owner, id)
}

func (s *Store) delete(ctx context.Context, q, what, owner, id string) error {
	res, err := s.DB.ExecContext(ctx, q, owner, id)
	if err != nil {
		return fmt.Errorf("deleting %s %s: %w", what, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting %s %s: %w", what, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}

func queryOne[T any](ctx context.Context, db execer, what, q string, args ...any) (*T, error) {
	list, err := queryAll[T](ctx, db, what, q, args...)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return list[0], nil
}

func queryAll[T any](ctx context.Context, db execer, what, q string, args ...any) ([]*T, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", what, err)
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", what, err)
		}
		v, err := decode[T]([]byte(doc))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", what, err)
	}
	return out, nil
}

var errUnsupportedDriver = errors.New("unsupported database driver")

// Open returns the repository configured by driver: "memory", "postgres" or
// "sqlite3". SQL stores are migrated before they are returned.
func Open(ctx context.Context, driver, dsn string) (Repository, func() error, error) {
	switch driver {
	case "memory":
		return NewMemory(), func() error { return nil }, nil
	case "postgres", "sqlite3":
		s, err := NewStore(driver, dsn)
		if err != nil {
			return nil, nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	return nil, nil, fmt.Errorf("%q: %w", driver, errUnsupportedDriver)
}
