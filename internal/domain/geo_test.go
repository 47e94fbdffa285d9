package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKM(t *testing.T) {
	t.Run("Jeju city to Jeju civil-defense shelter", func(t *testing.T) {
		// Known pair: roughly 1.2-1.3 km apart.
		from := Geo{Lat: 33.5010, Lon: 126.5314}
		to := Geo{Lat: 33.4890, Lon: 126.5012}

		d := HaversineKM(from, to)
		assert.InDelta(t, 1.25, d, 0.08)
	})

	t.Run("zero distance", func(t *testing.T) {
		p := Geo{Lat: 37.5665, Lon: 126.9780}
		assert.InDelta(t, 0, HaversineKM(p, p), 1e-9)
	})

	t.Run("symmetry", func(t *testing.T) {
		a := Geo{Lat: 35.1796, Lon: 129.0756}
		b := Geo{Lat: 37.5665, Lon: 126.9780}
		assert.InDelta(t, HaversineKM(a, b), HaversineKM(b, a), 1e-9)
	})
}

func TestWalkingMinutes(t *testing.T) {
	tests := []struct {
		name       string
		distanceKM float64
		speedKMH   float64
		expected   int
	}{
		{"1.25 km at default speed", 1.25, 4.8, 16},
		{"1.2 km at default speed", 1.2, 4.8, 15},
		{"short hop floors at one minute", 0.01, 4.8, 1},
		{"zero distance floors at one minute", 0, 4.8, 1},
		{"zero speed floors at one minute", 2, 0, 1},
		{"2 km at default speed", 2.0, 4.8, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, WalkingMinutes(tt.distanceKM, tt.speedKMH))
		})
	}
}

func TestWalkingMinutes_ScenarioRange(t *testing.T) {
	// The reference scenario: ~1.2-1.3 km should walk in 15-18 minutes at 4.8 km/h.
	from := Geo{Lat: 33.5010, Lon: 126.5314}
	to := Geo{Lat: 33.4890, Lon: 126.5012}

	minutes := WalkingMinutes(HaversineKM(from, to), 4.8)
	assert.GreaterOrEqual(t, minutes, 15)
	assert.LessOrEqual(t, minutes, 18)
}
