package storage

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pes-safety/evac-notifier/internal/domain"
)

// shelterFile is the on-disk shelter reference format. The file carries
// the civic shelter registry exported from the public dataset, one entry
// per site.
type shelterFile struct {
	Shelters []shelterEntry `yaml:"shelters"`
}

type shelterEntry struct {
	Name     string  `yaml:"name"`
	Address  string  `yaml:"address"`
	Category string  `yaml:"category"`
	Lat      float64 `yaml:"lat"`
	Lon      float64 `yaml:"lon"`
	Capacity *int    `yaml:"capacity,omitempty"`
}

// memoryStore keeps all state in process memory. The shelter registry is
// loaded once from a YAML file; alerts and subscribers live in maps. It
// backs local development and tests where no database is available.
type memoryStore struct {
	mu          sync.RWMutex
	alerts      map[string]domain.Alert
	subscribers map[string]domain.Subscriber
	shelters    []domain.Shelter
	shelterPath string
}

// NewMemory builds an in-memory store. shelterPath may be empty, in which
// case the store starts with no shelter registry. Seed subscribers are
// optional.
func NewMemory(shelterPath string, subscribers []domain.Subscriber) (Store, error) {
	m := &memoryStore{
		alerts:      make(map[string]domain.Alert),
		subscribers: make(map[string]domain.Subscriber),
		shelterPath: shelterPath,
	}
	for _, sub := range subscribers {
		m.subscribers[sub.DeviceID] = sub
	}
	return m, nil
}

func (m *memoryStore) Init(ctx context.Context) error {
	if m.shelterPath == "" {
		return nil
	}
	raw, err := os.ReadFile(m.shelterPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read shelter file %s: %w", m.shelterPath, err)
	}
	var file shelterFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse shelter file %s: %w", m.shelterPath, err)
	}

	shelters := make([]domain.Shelter, 0, len(file.Shelters))
	for _, entry := range file.Shelters {
		shelters = append(shelters, domain.Shelter{
			Name:     entry.Name,
			Address:  entry.Address,
			Category: domain.ParseShelterCategory(entry.Category),
			Geo:      domain.Geo{Lat: entry.Lat, Lon: entry.Lon},
			Capacity: entry.Capacity,
		})
	}

	m.mu.Lock()
	m.shelters = shelters
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) SaveAlert(ctx context.Context, alert domain.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.alerts[alert.ID]; exists {
		return nil
	}
	m.alerts[alert.ID] = alert
	return nil
}

func (m *memoryStore) ActiveSubscribers(ctx context.Context, since time.Time) ([]domain.Subscriber, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Subscriber
	for _, sub := range m.subscribers {
		if sub.Active && !sub.LastLocationAt.Before(since) {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (m *memoryStore) Shelters(ctx context.Context) ([]domain.Shelter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Shelter, len(m.shelters))
	copy(out, m.shelters)
	return out, nil
}

// UpsertSubscriber registers or refreshes a device. Exposed for the dev
// fixture path and tests.
func (m *memoryStore) UpsertSubscriber(sub domain.Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers[sub.DeviceID] = sub
}

// SetShelters replaces the shelter registry. Exposed for tests.
func (m *memoryStore) SetShelters(shelters []domain.Shelter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shelters = shelters
}
