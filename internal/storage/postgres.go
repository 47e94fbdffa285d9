package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/pes-safety/evac-notifier/internal/domain"
)

type postgresStore struct {
	baseStore
}

// NewPostgres opens a Postgres-backed store via the pgx stdlib driver.
func NewPostgres(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres store requires a DSN")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &postgresStore{baseStore{db: db}}, nil
}

func (s *postgresStore) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			external_id TEXT,
			category TEXT NOT NULL,
			category_label TEXT NOT NULL,
			area_name TEXT NOT NULL,
			message TEXT NOT NULL,
			severity TEXT,
			issued_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_issued_at ON alerts(issued_at)`,
		`CREATE TABLE IF NOT EXISTS subscribers (
			device_id TEXT PRIMARY KEY,
			push_token TEXT NOT NULL DEFAULT '',
			age_group TEXT NOT NULL DEFAULT '',
			mobility TEXT NOT NULL DEFAULT '',
			height_cm INTEGER,
			medical_note TEXT NOT NULL DEFAULT '',
			lat DOUBLE PRECISION,
			lon DOUBLE PRECISION,
			last_location_at TIMESTAMPTZ NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_subscribers_active ON subscribers(active, last_location_at)`,
		`CREATE TABLE IF NOT EXISTS shelters (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			address TEXT NOT NULL,
			category TEXT NOT NULL,
			lat DOUBLE PRECISION NOT NULL,
			lon DOUBLE PRECISION NOT NULL,
			capacity INTEGER
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init postgres schema: %w", err)
		}
	}
	return nil
}

func (s *postgresStore) SaveAlert(ctx context.Context, alert domain.Alert) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin alert tx: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO alerts (id, external_id, category, category_label, area_name, message, severity, issued_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`,
		alert.ID,
		alert.ExternalID,
		string(alert.Category),
		alert.CategoryLabel,
		alert.AreaName,
		alert.Message,
		alert.Severity,
		alert.IssuedAt.UTC(),
		alert.CreatedAt.UTC(),
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert alert %s: %w", alert.ID, err)
	}
	return tx.Commit()
}

func (s *postgresStore) ActiveSubscribers(ctx context.Context, since time.Time) ([]domain.Subscriber, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT device_id, push_token, age_group, mobility, height_cm, medical_note, lat, lon, last_location_at, active
		FROM subscribers
		WHERE active = TRUE AND last_location_at >= $1`,
		since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query active subscribers: %w", err)
	}
	return scanSubscribers(rows)
}

func (s *postgresStore) Shelters(ctx context.Context) ([]domain.Shelter, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, address, category, lat, lon, capacity FROM shelters`)
	if err != nil {
		return nil, fmt.Errorf("query shelters: %w", err)
	}
	return scanShelters(rows)
}
