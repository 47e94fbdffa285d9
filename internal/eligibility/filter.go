// Package eligibility decides which registered devices an alert should
// reach.
package eligibility

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pes-safety/evac-notifier/internal/domain"
)

// SubscriberSource yields devices active since a cutoff.
type SubscriberSource interface {
	ActiveSubscribers(ctx context.Context, since time.Time) ([]domain.Subscriber, error)
}

// Decision pairs a subscriber with the relevance verdict for one alert.
type Decision struct {
	Subscriber domain.Subscriber
	Relevant   bool
}

// Filter narrows the subscriber base for a given alert.
type Filter struct {
	source       SubscriberSource
	activeWindow time.Duration
	clock        clockwork.Clock
	logger       *slog.Logger
}

// New builds a Filter. A zero activeWindow defaults to one hour; a nil
// clock uses wall time.
func New(source SubscriberSource, activeWindow time.Duration, clock clockwork.Clock, logger *slog.Logger) *Filter {
	if activeWindow <= 0 {
		activeWindow = time.Hour
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Filter{
		source:       source,
		activeWindow: activeWindow,
		clock:        clock,
		logger:       logger,
	}
}

// Eligible returns the per-subscriber decisions for an alert.
//
// A subscriber is considered only when active and located within the
// freshness window. Area matching against the alert's RCV_AREA_NM value is
// intentionally permissive: upstream area names arrive as free-form
// administrative labels, so any subscriber with a known location is
// treated as relevant. Subscribers without a stored location cannot be
// ranked against shelters and are excluded.
func (f *Filter) Eligible(ctx context.Context, alert domain.Alert) ([]Decision, error) {
	since := f.clock.Now().Add(-f.activeWindow)
	subs, err := f.source.ActiveSubscribers(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load active subscribers: %w", err)
	}

	decisions := make([]Decision, 0, len(subs))
	for _, sub := range subs {
		relevant := sub.Location != nil
		if !relevant && f.logger != nil {
			f.logger.Debug("subscriber skipped, no location",
				"device_id", sub.DeviceID,
				"alert_id", alert.ID)
		}
		decisions = append(decisions, Decision{Subscriber: sub, Relevant: relevant})
	}
	return decisions, nil
}

// Relevant filters Eligible down to just the subscribers to notify.
func (f *Filter) Relevant(ctx context.Context, alert domain.Alert) ([]domain.Subscriber, error) {
	decisions, err := f.Eligible(ctx, alert)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Subscriber, 0, len(decisions))
	for _, d := range decisions {
		if d.Relevant {
			out = append(out, d.Subscriber)
		}
	}
	return out, nil
}
