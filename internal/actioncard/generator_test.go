package actioncard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pes-safety/evac-notifier/internal/domain"
	"github.com/pes-safety/evac-notifier/internal/observability"
)

type scriptedBackend struct {
	responses    []string
	errs         []error
	temperatures []float64
}

func (s *scriptedBackend) Generate(_ context.Context, _ string, temperature float64) (string, error) {
	i := len(s.temperatures)
	s.temperatures = append(s.temperatures, temperature)
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	var resp string
	if i < len(s.responses) {
		resp = s.responses[i]
	}
	return resp, err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func quakeAlert() domain.Alert {
	return domain.Alert{
		ID:            "12345",
		Category:      domain.CategoryEarthquake,
		CategoryLabel: "지진",
		AreaName:      "제주특별자치도",
		Message:       "지진 발생. 낙하물에 주의.",
	}
}

func rankedShelter() []domain.RankedShelter {
	return []domain.RankedShelter{{
		Shelter: domain.Shelter{
			Name:     "제주시민회관",
			Category: domain.ShelterEarthquake,
		},
		DistanceKM:     1.25,
		WalkingMinutes: 16,
	}}
}

func TestGenerate_FirstAttemptValid(t *testing.T) {
	backend := &scriptedBackend{responses: []string{validGuidance}}
	g := NewGenerator(backend, 3, 0.3, clockwork.NewFakeClock(), testLogger(), observability.NewMetricsForTesting())

	card, err := g.Generate(context.Background(), quakeAlert(), domain.Profile{}, rankedShelter())
	require.NoError(t, err)
	assert.Equal(t, domain.MethodGenerated, card.Method)
	assert.Equal(t, validGuidance, card.Text)
	assert.Equal(t, []float64{0.3}, backend.temperatures)
}

func TestGenerate_RetryRaisesTemperature(t *testing.T) {
	backend := &scriptedBackend{responses: []string{
		"아마 안전할 수도 있습니다. 대피소로 이동하세요. 침착하세요.",
		"",
		validGuidance,
	}, errs: []error{nil, errors.New("model timeout"), nil}}
	g := NewGenerator(backend, 3, 0.3, clockwork.NewFakeClock(), testLogger(), observability.NewMetricsForTesting())

	card, err := g.Generate(context.Background(), quakeAlert(), domain.Profile{}, rankedShelter())
	require.NoError(t, err)
	assert.Equal(t, domain.MethodGenerated, card.Method)
	require.Len(t, backend.temperatures, 3)
	assert.InDelta(t, 0.3, backend.temperatures[0], 1e-9)
	assert.InDelta(t, 0.4, backend.temperatures[1], 1e-9)
	assert.InDelta(t, 0.5, backend.temperatures[2], 1e-9)
}

func TestGenerate_Exhaustion(t *testing.T) {
	backend := &scriptedBackend{responses: []string{"짧음.", "짧음.", "짧음."}}
	g := NewGenerator(backend, 3, 0.3, clockwork.NewFakeClock(), testLogger(), observability.NewMetricsForTesting())

	_, err := g.Generate(context.Background(), quakeAlert(), domain.Profile{}, rankedShelter())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Len(t, backend.temperatures, 3)
}

func TestGenerateOrFallback_UsesTemplateOnExhaustion(t *testing.T) {
	backend := &scriptedBackend{errs: []error{
		errors.New("down"), errors.New("down"), errors.New("down"),
	}}
	g := NewGenerator(backend, 3, 0.3, clockwork.NewFakeClock(), testLogger(), observability.NewMetricsForTesting())

	card := g.GenerateOrFallback(context.Background(), quakeAlert(), domain.Profile{}, rankedShelter())
	assert.Equal(t, domain.MethodFallback, card.Method)
	assert.Contains(t, card.Text, "제주시민회관")
	assert.Contains(t, card.Text, "16분")
	assert.NoError(t, Validate(card.Text))
}

func TestGenerate_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	backend := &scriptedBackend{responses: []string{validGuidance}}
	g := NewGenerator(backend, 3, 0.3, clockwork.NewFakeClock(), testLogger(), observability.NewMetricsForTesting())

	_, err := g.Generate(ctx, quakeAlert(), domain.Profile{}, rankedShelter())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, backend.temperatures)
}
