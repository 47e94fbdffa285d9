package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pes-safety/evac-notifier/internal/domain"
)

type sqliteStore struct {
	baseStore
}

// NewSQLite opens a SQLite-backed store, suitable for single-node
// deployments and tests.
func NewSQLite(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "file:evac-notifier.db?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return &sqliteStore{baseStore{db: db}}, nil
}

func (s *sqliteStore) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			external_id TEXT,
			category TEXT NOT NULL,
			category_label TEXT NOT NULL,
			area_name TEXT NOT NULL,
			message TEXT NOT NULL,
			severity TEXT,
			issued_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_issued_at ON alerts(issued_at)`,
		`CREATE TABLE IF NOT EXISTS subscribers (
			device_id TEXT PRIMARY KEY,
			push_token TEXT NOT NULL DEFAULT '',
			age_group TEXT NOT NULL DEFAULT '',
			mobility TEXT NOT NULL DEFAULT '',
			height_cm INTEGER,
			medical_note TEXT NOT NULL DEFAULT '',
			lat REAL,
			lon REAL,
			last_location_at TIMESTAMP NOT NULL,
			active INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS shelters (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			address TEXT NOT NULL,
			category TEXT NOT NULL,
			lat REAL NOT NULL,
			lon REAL NOT NULL,
			capacity INTEGER
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init sqlite schema: %w", err)
		}
	}
	return nil
}

func (s *sqliteStore) SaveAlert(ctx context.Context, alert domain.Alert) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin alert tx: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO alerts (id, external_id, category, category_label, area_name, message, severity, issued_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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

func (s *sqliteStore) ActiveSubscribers(ctx context.Context, since time.Time) ([]domain.Subscriber, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT device_id, push_token, age_group, mobility, height_cm, medical_note, lat, lon, last_location_at, active
		FROM subscribers
		WHERE active = 1 AND last_location_at >= ?`,
		since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query active subscribers: %w", err)
	}
	return scanSubscribers(rows)
}

func (s *sqliteStore) Shelters(ctx context.Context) ([]domain.Shelter, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, address, category, lat, lon, capacity FROM shelters`)
	if err != nil {
		return nil, fmt.Errorf("query shelters: %w", err)
	}
	return scanShelters(rows)
}
