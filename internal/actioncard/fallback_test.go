package actioncard

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pes-safety/evac-notifier/internal/domain"
)

func TestFallback_EveryTemplatePassesValidation(t *testing.T) {
	categories := []domain.DisasterCategory{
		domain.CategoryEarthquake,
		domain.CategoryTsunami,
		domain.CategoryWildfire,
		domain.CategoryCivilDefense,
		domain.CategoryFlood,
		domain.CategoryTyphoon,
		domain.CategoryFire,
		domain.CategoryOther,
	}
	for _, cat := range categories {
		t.Run(string(cat), func(t *testing.T) {
			card := Fallback(domain.Alert{ID: "1", Category: cat}, rankedShelter())
			assert.Equal(t, domain.MethodFallback, card.Method)
			require.NoError(t, Validate(card.Text))
			assert.Contains(t, card.Text, "제주시민회관")
		})
	}
}

func TestFallback_Deterministic(t *testing.T) {
	alert := domain.Alert{ID: "1", Category: domain.CategoryEarthquake}
	first := Fallback(alert, rankedShelter())
	second := Fallback(alert, rankedShelter())
	assert.Equal(t, first.Text, second.Text)
}

func TestFallback_PlaceholderWhenNoShelter(t *testing.T) {
	card := Fallback(domain.Alert{ID: "1", Category: domain.CategoryTsunami}, nil)
	assert.Contains(t, card.Text, "가까운 안전시설")
	assert.Contains(t, card.Text, fmt.Sprintf("%d분", placeholderMinutes))
	require.NoError(t, Validate(card.Text))
	assert.Empty(t, card.Shelters)
}
