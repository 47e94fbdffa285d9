// Package storage implements the persistence boundary the pipeline consumes:
// alert writes, active-subscriber reads, and shelter reference reads.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pes-safety/evac-notifier/internal/config"
	"github.com/pes-safety/evac-notifier/internal/domain"
)

// Store is the read/write contract consumed by the pipeline. Subscribers
// and shelters are read-only here; their mutation surfaces live elsewhere.
type Store interface {
	Init(ctx context.Context) error
	Close() error

	// SaveAlert persists an accepted alert inside a transaction. Writing an
	// alert whose ID already exists is a no-op, not an error.
	SaveAlert(ctx context.Context, alert domain.Alert) error

	// ActiveSubscribers returns subscribers flagged active whose last
	// location update is at or after since.
	ActiveSubscribers(ctx context.Context, since time.Time) ([]domain.Subscriber, error)

	// Shelters returns the full shelter reference set.
	Shelters(ctx context.Context) ([]domain.Shelter, error)
}

// NewStore selects a driver from config.
func NewStore(cfg *config.Config) (Store, error) {
	switch strings.ToLower(cfg.StorageDriver) {
	case "postgres", "postgresql":
		return NewPostgres(cfg.StorageDSN)
	case "sqlite":
		return NewSQLite(cfg.StorageDSN)
	case "memory":
		return NewMemory(cfg.ShelterDataPath, nil)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

type baseStore struct {
	db *sql.DB
}

func (b *baseStore) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

// scanSubscribers maps subscriber rows from either SQL driver. The column
// order is fixed by the driver queries.
func scanSubscribers(rows *sql.Rows) ([]domain.Subscriber, error) {
	defer rows.Close()

	var subs []domain.Subscriber
	for rows.Next() {
		var (
			s        domain.Subscriber
			lat, lon sql.NullFloat64
			heightCM sql.NullInt64
		)
		if err := rows.Scan(
			&s.DeviceID, &s.PushToken,
			&s.Profile.AgeGroup, &s.Profile.Mobility, &heightCM, &s.Profile.MedicalNote,
			&lat, &lon, &s.LastLocationAt, &s.Active,
		); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		if lat.Valid && lon.Valid {
			s.Location = &domain.Geo{Lat: lat.Float64, Lon: lon.Float64}
		}
		if heightCM.Valid {
			v := int(heightCM.Int64)
			s.Profile.HeightCM = &v
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func scanShelters(rows *sql.Rows) ([]domain.Shelter, error) {
	defer rows.Close()

	var shelters []domain.Shelter
	for rows.Next() {
		var (
			s        domain.Shelter
			category string
			capacity sql.NullInt64
		)
		if err := rows.Scan(&s.Name, &s.Address, &category, &s.Geo.Lat, &s.Geo.Lon, &capacity); err != nil {
			return nil, fmt.Errorf("scan shelter: %w", err)
		}
		s.Category = domain.ParseShelterCategory(category)
		if capacity.Valid {
			v := int(capacity.Int64)
			s.Capacity = &v
		}
		shelters = append(shelters, s)
	}
	return shelters, rows.Err()
}
