package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"caixa_scrooper/identity"
	"caixa_scrooper/models"
)

// PostgresStore is an optional sink that mirrors finished runs and their
// records into Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS caixa_runs (
		id UUID PRIMARY KEY,
		site_id TEXT NOT NULL,
		region TEXT NOT NULL,
		locality TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ,
		status TEXT NOT NULL,
		links_found INTEGER NOT NULL DEFAULT 0,
		records INTEGER NOT NULL DEFAULT 0,
		errors_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS caixa_properties (
		id UUID PRIMARY KEY,
		run_id UUID NOT NULL REFERENCES caixa_runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		fingerprint TEXT NOT NULL,
		title TEXT,
		description TEXT,
		address TEXT,
		appraisal_value TEXT,
		minimum_sale_value TEXT,
		property_type TEXT,
		rooms TEXT,
		parking TEXT,
		property_code TEXT,
		registrations TEXT,
		jurisdiction TEXT,
		tax_registration TEXT,
		total_area TEXT,
		private_area TEXT,
		payment_terms TEXT,
		expense_rules TEXT,
		link TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_caixa_properties_run ON caixa_properties(run_id, position);
	CREATE INDEX IF NOT EXISTS idx_caixa_properties_fingerprint ON caixa_properties(fingerprint);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

const insertRecordSQL = `
	INSERT INTO caixa_properties (
		id, run_id, position, fingerprint, title, description, address, appraisal_value,
		minimum_sale_value, property_type, rooms, parking, property_code, registrations,
		jurisdiction, tax_registration, total_area, private_area, payment_terms,
		expense_rules, link
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21
	)`

// SaveRecords writes the run and all of its records in one transaction.
// Saving the same run again replaces its records.
func (s *PostgresStore) SaveRecords(ctx context.Context, run *models.ScrapeRun, records models.ResultSet) error {
	runID, err := uuid.Parse(run.UUID)
	if err != nil {
		return fmt.Errorf("run uuid: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO caixa_runs (id, site_id, region, locality, started_at, finished_at, status,
			links_found, records, errors_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			finished_at = EXCLUDED.finished_at,
			status = EXCLUDED.status,
			links_found = EXCLUDED.links_found,
			records = EXCLUDED.records,
			errors_count = EXCLUDED.errors_count`,
		runID, run.SiteID, run.Region, run.Locality, run.StartedAt, run.FinishedAt, run.Status,
		run.LinksFound, run.Records, run.ErrorsCount)
	if err != nil {
		return fmt.Errorf("upsert run: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM caixa_properties WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}

	batch := &pgx.Batch{}
	for i := range records {
		rec := &records[i]
		args := []any{uuid.New(), runID, i, identity.Fingerprint(rec)}
		for _, v := range rec.Values() {
			args = append(args, v)
		}
		batch.Queue(insertRecordSQL, args...)
	}

	br := tx.SendBatch(ctx, batch)
	for i := range records {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	return tx.Commit(ctx)
}
