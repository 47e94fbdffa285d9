// Package actioncard turns a disaster alert and a subscriber profile into
// delivered guidance text.
//
// Generation runs through a language model with bounded retries and strict
// validation; when every attempt fails, a deterministic per-category
// template takes over so a notification always carries actionable text.
package actioncard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/pes-safety/evac-notifier/internal/domain"
	"github.com/pes-safety/evac-notifier/internal/observability"
)

// ErrRetriesExhausted is returned by Generate when every attempt produced
// invalid text or failed outright.
var ErrRetriesExhausted = errors.New("action card generation retries exhausted")

// Backend is the text-generation surface the generator talks to.
type Backend interface {
	Generate(ctx context.Context, prompt string, temperature float64) (string, error)
}

// Generator produces validated action cards with retry and fallback.
type Generator struct {
	backend         Backend
	attempts        int
	baseTemperature float64
	clock           clockwork.Clock
	logger          *slog.Logger
	metrics         *observability.Metrics
}

// NewGenerator builds a Generator. Attempts below one default to three;
// a non-positive temperature defaults to 0.3.
func NewGenerator(backend Backend, attempts int, baseTemperature float64, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Generator {
	if attempts < 1 {
		attempts = 3
	}
	if baseTemperature <= 0 {
		baseTemperature = 0.3
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Generator{
		backend:         backend,
		attempts:        attempts,
		baseTemperature: baseTemperature,
		clock:           clock,
		logger:          logger,
		metrics:         metrics,
	}
}

// Generate produces a validated action card for the alert and subscriber.
// Each retry raises the sampling temperature by 0.1 to steer the model off
// a failing output. On exhaustion it returns ErrRetriesExhausted wrapped
// with the last failure; callers decide whether to fall back.
func (g *Generator) Generate(ctx context.Context, alert domain.Alert, profile domain.Profile, shelters []domain.RankedShelter) (domain.ActionCard, error) {
	prompt := BuildPrompt(alert, profile, shelters)
	started := g.clock.Now()
	defer func() {
		if g.metrics != nil {
			g.metrics.GenerationDuration.Observe(g.clock.Since(started).Seconds())
		}
	}()

	var lastErr error
	for attempt := 1; attempt <= g.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return domain.ActionCard{}, err
		}

		temperature := g.baseTemperature + 0.1*float64(attempt-1)
		text, err := g.backend.Generate(ctx, prompt, temperature)
		if err != nil {
			g.countAttempt("error")
			lastErr = fmt.Errorf("attempt %d: %w", attempt, err)
			if g.logger != nil {
				g.logger.Warn("action card generation failed",
					"alert_id", alert.ID,
					"attempt", attempt,
					"error", err)
			}
			continue
		}

		text = strings.TrimSpace(text)
		if err := Validate(text); err != nil {
			g.countAttempt("invalid")
			lastErr = fmt.Errorf("attempt %d: %w", attempt, err)
			if g.logger != nil {
				g.logger.Warn("action card rejected by validation",
					"alert_id", alert.ID,
					"attempt", attempt,
					"reason", err)
			}
			continue
		}

		g.countAttempt("valid")
		return domain.ActionCard{
			Text:     text,
			Method:   domain.MethodGenerated,
			Shelters: shelters,
		}, nil
	}

	return domain.ActionCard{}, fmt.Errorf("%w: %w", ErrRetriesExhausted, lastErr)
}

// GenerateOrFallback never fails: on retry exhaustion it returns the
// deterministic template card instead.
func (g *Generator) GenerateOrFallback(ctx context.Context, alert domain.Alert, profile domain.Profile, shelters []domain.RankedShelter) domain.ActionCard {
	card, err := g.Generate(ctx, alert, profile, shelters)
	if err == nil {
		return card
	}
	if g.metrics != nil {
		g.metrics.GenerationFallbacks.Inc()
	}
	if g.logger != nil {
		g.logger.Warn("falling back to template guidance",
			"alert_id", alert.ID,
			"category", string(alert.Category),
			"error", err)
	}
	return Fallback(alert, shelters)
}

func (g *Generator) countAttempt(outcome string) {
	if g.metrics != nil {
		g.metrics.GenerationAttempts.WithLabelValues(outcome).Inc()
	}
}
