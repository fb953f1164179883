// Package store persists extraction runs to PostgreSQL.
//
// A run is written in one transaction: a row in acs_runs and one row per
// (geoid, column) value in acs_values, loaded with COPY.
package store

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/JonMunkholm/acsextract/internal/acs"
	"github.com/JonMunkholm/acsextract/internal/config"
	"github.com/JonMunkholm/acsextract/internal/logging"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the run tables when missing.
const Schema = `
CREATE TABLE IF NOT EXISTS acs_runs (
	run_id      uuid PRIMARY KEY,
	created_at  timestamptz NOT NULL,
	geography   text NOT NULL,
	long_titles boolean NOT NULL,
	specs       text[] NOT NULL
);

CREATE TABLE IF NOT EXISTS acs_values (
	run_id      uuid NOT NULL REFERENCES acs_runs (run_id) ON DELETE CASCADE,
	geoid       text NOT NULL,
	column_name text NOT NULL,
	value       text NOT NULL,
	PRIMARY KEY (run_id, geoid, column_name)
);
`

const insertRun = `
INSERT INTO acs_runs (run_id, created_at, geography, long_titles, specs)
VALUES ($1, $2, $3, $4, $5)`

var valueColumns = []string{"run_id", "geoid", "column_name", "value"}

// DBTX is the subset of pgx.Tx used to write a run.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error)
}

// Beginner starts transactions. Satisfied by *pgxpool.Pool.
type Beginner interface {
	Begin(context.Context) (pgx.Tx, error)
}

// Run describes one extraction.
type Run struct {
	ID         uuid.UUID
	CreatedAt  time.Time
	Geography  acs.GeoType
	LongTitles bool
	Specs      []string
}

// Store writes runs.
type Store struct {
	db Beginner
}

// New returns a Store over db.
func New(db Beginner) *Store {
	return &Store{db: db}
}

// Connect opens a pool with cfg and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse database URL: %v", acs.ErrConfig, err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: connect to database: %v", acs.ErrOutput, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping database: %v", acs.ErrOutput, err)
	}

	logging.FromContext(ctx).Info("connected to database", "name", databaseName(cfg.URL))
	return pool, nil
}

func databaseName(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}

// Save writes run and its values in a single transaction.
func (s *Store) Save(ctx context.Context, run Run, columns []string, rows []*acs.OutputRow) error {
	logger := logging.FromContext(ctx)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", acs.ErrOutput, err)
	}
	defer tx.Rollback(ctx)

	n, err := save(ctx, tx, run, columns, rows)
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", acs.ErrOutput, err)
	}

	logger.Info("stored run", "run_id", run.ID.String(), "values", n)
	return nil
}

func save(ctx context.Context, db DBTX, run Run, columns []string, rows []*acs.OutputRow) (int64, error) {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return 0, fmt.Errorf("%w: create schema: %v", acs.ErrOutput, err)
	}

	specs := run.Specs
	if specs == nil {
		specs = []string{}
	}
	if _, err := db.Exec(ctx, insertRun, run.ID, run.CreatedAt, string(run.Geography), run.LongTitles, specs); err != nil {
		return 0, fmt.Errorf("%w: insert run: %v", acs.ErrOutput, err)
	}

	n, err := db.CopyFrom(ctx, pgx.Identifier{"acs_values"}, valueColumns,
		pgx.CopyFromRows(flatten(run.ID, columns, rows)))
	if err != nil {
		return 0, fmt.Errorf("%w: copy values: %v", acs.ErrOutput, err)
	}
	return n, nil
}

// flatten turns rows into acs_values tuples in row then column order.
// The geoid column and values a row never received are skipped.
func flatten(runID uuid.UUID, columns []string, rows []*acs.OutputRow) [][]interface{} {
	var out [][]interface{}
	for _, row := range rows {
		for _, c := range columns {
			if c == acs.GeoidColumn {
				continue
			}
			v, ok := row.Values[c]
			if !ok {
				continue
			}
			out = append(out, []interface{}{runID, row.Geoid, c, v})
		}
	}
	return out
}
