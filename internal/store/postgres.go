package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeSquared-Agency/Kindred/internal/roster"
)

const schema = `
CREATE TABLE IF NOT EXISTS kindred_roster_meta (
	id         SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	version    TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS kindred_profiles (
	id          TEXT PRIMARY KEY,
	position    INTEGER NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	category    TEXT NOT NULL DEFAULT 'sorcerer',
	hidden      BOOLEAN NOT NULL DEFAULT false,
	traits      JSONB NOT NULL,
	affinity    TEXT,
	opposition  TEXT,
	description TEXT
);`

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	// The roster is read once at startup; a small pool is plenty.
	poolCfg.MaxConns = 4
	poolCfg.MinConns = 0
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.ConnConfig.ConnectTimeout = 5 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Name() string { return "postgres" }

// EnsureSchema creates the roster tables if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

const profileColumns = `id, name, category, hidden, traits, affinity, opposition, description`

// LoadRoster reads every profile in position order together with the roster
// version.
func (s *PostgresStore) LoadRoster(ctx context.Context) (*roster.Roster, error) {
	var version string
	err := s.pool.QueryRow(ctx, `SELECT version FROM kindred_roster_meta WHERE id = 1`).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("load roster: %w", roster.ErrEmptyRoster)
	}
	if err != nil {
		return nil, fmt.Errorf("load roster version: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+profileColumns+`
		FROM kindred_profiles ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	profiles, err := scanProfiles(rows)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	return roster.New(version, profiles)
}

func scanProfiles(rows pgx.Rows) ([]roster.Profile, error) {
	defer rows.Close()
	var profiles []roster.Profile
	for rows.Next() {
		var p roster.Profile
		var category string
		var traitsJSON []byte
		var affinity, opposition, description sql.NullString
		if err := rows.Scan(
			&p.ID, &p.Name, &category, &p.Hidden, &traitsJSON,
			&affinity, &opposition, &description,
		); err != nil {
			return nil, err
		}
		p.Category = roster.Category(category)
		if err := json.Unmarshal(traitsJSON, &p.Traits); err != nil {
			return nil, fmt.Errorf("profile %s traits: %w", p.ID, err)
		}
		p.Affinity = affinity.String
		p.Opposition = opposition.String
		p.Description = description.String
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// ReplaceRoster swaps the stored roster for r in one transaction, so readers
// never observe a half-written roster.
func (s *PostgresStore) ReplaceRoster(ctx context.Context, r *roster.Roster) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM kindred_profiles`); err != nil {
		return fmt.Errorf("clear profiles: %w", err)
	}

	batch := &pgx.Batch{}
	for i, p := range r.All() {
		traitsJSON, err := json.Marshal(p.Traits)
		if err != nil {
			return fmt.Errorf("profile %s traits: %w", p.ID, err)
		}
		batch.Queue(`
			INSERT INTO kindred_profiles (id, position, name, category, hidden, traits, affinity, opposition, description)
			VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''))`,
			p.ID, i, p.Name, string(p.Category), p.Hidden, traitsJSON, p.Affinity, p.Opposition, p.Description,
		)
	}
	batch.Queue(`
		INSERT INTO kindred_roster_meta (id, version, updated_at) VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET version = EXCLUDED.version, updated_at = now()`,
		r.Version(),
	)
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("write roster: %w", err)
	}
	return tx.Commit(ctx)
}
