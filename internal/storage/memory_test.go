package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pes-safety/evac-notifier/internal/domain"
)

func TestMemoryStore_LoadsShelterFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shelters.yaml")
	data := `shelters:
  - name: "제주시민회관"
    address: "제주특별자치도 제주시 이도1동"
    category: "지진대피소"
    lat: 33.5102
    lon: 126.5219
    capacity: 400
  - name: "탑동 해일대피소"
    address: "제주특별자치도 제주시 삼도2동"
    category: "해일대피소"
    lat: 33.5175
    lon: 126.5208
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	store, err := NewMemory(path, nil)
	require.NoError(t, err)
	require.NoError(t, store.Init(context.Background()))

	shelters, err := store.Shelters(context.Background())
	require.NoError(t, err)
	require.Len(t, shelters, 2)

	assert.Equal(t, "제주시민회관", shelters[0].Name)
	assert.Equal(t, domain.ShelterEarthquake, shelters[0].Category)
	require.NotNil(t, shelters[0].Capacity)
	assert.Equal(t, 400, *shelters[0].Capacity)

	assert.Equal(t, domain.ShelterTsunami, shelters[1].Category)
	assert.Nil(t, shelters[1].Capacity)
}

func TestMemoryStore_MissingShelterFileIsEmpty(t *testing.T) {
	store, err := NewMemory(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.NoError(t, err)
	require.NoError(t, store.Init(context.Background()))

	shelters, err := store.Shelters(context.Background())
	require.NoError(t, err)
	assert.Empty(t, shelters)
}

func TestMemoryStore_SaveAlertIgnoresDuplicates(t *testing.T) {
	store, err := NewMemory("", nil)
	require.NoError(t, err)

	alert := domain.Alert{
		ID:            "12345",
		Category:      domain.CategoryEarthquake,
		CategoryLabel: "지진",
		AreaName:      "제주특별자치도",
		Message:       "지진 발생. 낙하물에 주의하세요.",
		IssuedAt:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		CreatedAt:     time.Date(2026, 3, 1, 9, 0, 1, 0, time.UTC),
	}
	require.NoError(t, store.SaveAlert(context.Background(), alert))

	dup := alert
	dup.Message = "changed"
	require.NoError(t, store.SaveAlert(context.Background(), dup))

	mem := store.(*memoryStore)
	assert.Equal(t, "지진 발생. 낙하물에 주의하세요.", mem.alerts["12345"].Message)
}

func TestMemoryStore_ActiveSubscribersFiltersByWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	subs := []domain.Subscriber{
		{
			DeviceID:       "fresh",
			PushToken:      "tok-1",
			Location:       &domain.Geo{Lat: 33.5, Lon: 126.5},
			LastLocationAt: now.Add(-10 * time.Minute),
			Active:         true,
		},
		{
			DeviceID:       "stale",
			PushToken:      "tok-2",
			Location:       &domain.Geo{Lat: 33.5, Lon: 126.5},
			LastLocationAt: now.Add(-2 * time.Hour),
			Active:         true,
		},
		{
			DeviceID:       "inactive",
			PushToken:      "tok-3",
			Location:       &domain.Geo{Lat: 33.5, Lon: 126.5},
			LastLocationAt: now.Add(-5 * time.Minute),
			Active:         false,
		},
	}
	store, err := NewMemory("", subs)
	require.NoError(t, err)

	got, err := store.ActiveSubscribers(context.Background(), now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].DeviceID)
}
