// Package poller drives the alert-to-notification pipeline: it polls the
// upstream disaster-message source on a fixed interval, deduplicates,
// persists, and fans each new alert out to eligible subscribers as
// personalized push notifications.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pes-safety/evac-notifier/internal/adapter/fcm"
	"github.com/pes-safety/evac-notifier/internal/dedup"
	"github.com/pes-safety/evac-notifier/internal/domain"
	"github.com/pes-safety/evac-notifier/internal/observability"
	"github.com/pes-safety/evac-notifier/internal/ranker"
)

// AlertSource fetches the current batch of upstream disaster messages.
type AlertSource interface {
	Fetch(ctx context.Context) ([]domain.Alert, error)
}

// AlertStore persists accepted alerts.
type AlertStore interface {
	SaveAlert(ctx context.Context, alert domain.Alert) error
}

// SubscriberFilter yields the subscribers to notify for an alert.
type SubscriberFilter interface {
	Relevant(ctx context.Context, alert domain.Alert) ([]domain.Subscriber, error)
}

// ShelterRanker ranks shelters around a subscriber.
type ShelterRanker interface {
	Rank(ctx context.Context, q ranker.Query) ([]domain.RankedShelter, error)
}

// CardGenerator produces guidance text, falling back internally so it
// always returns a card.
type CardGenerator interface {
	GenerateOrFallback(ctx context.Context, alert domain.Alert, profile domain.Profile, shelters []domain.RankedShelter) domain.ActionCard
}

// Dispatcher delivers a batch of notifications.
type Dispatcher interface {
	SendBatch(ctx context.Context, notifications []fcm.Notification) fcm.BatchResult
}

// Auditor records delivery outcomes. A nil Auditor disables auditing.
type Auditor interface {
	Record(ctx context.Context, alert domain.Alert, deviceID string, method domain.GenerationMethod, success bool)
}

// Options carries the tunables the poller needs per cycle.
type Options struct {
	Interval       time.Duration
	SearchRadiusKM float64
	MaxShelters    int
}

// Poller owns the polling loop. At most one cycle runs at a time; ticks
// that arrive while a cycle is still in flight are dropped and counted.
type Poller struct {
	source     AlertSource
	cache      dedup.Cache
	store      AlertStore
	filter     SubscriberFilter
	ranker     ShelterRanker
	generator  CardGenerator
	dispatcher Dispatcher
	auditor    Auditor

	opts    Options
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics

	inFlight atomic.Bool
	ready    atomic.Bool
	wg       sync.WaitGroup
}

// New assembles a Poller. A zero interval defaults to ten seconds.
func New(
	source AlertSource,
	cache dedup.Cache,
	store AlertStore,
	filter SubscriberFilter,
	shelterRanker ShelterRanker,
	generator CardGenerator,
	dispatcher Dispatcher,
	auditor Auditor,
	opts Options,
	clock clockwork.Clock,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = 10 * time.Second
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Poller{
		source:     source,
		cache:      cache,
		store:      store,
		filter:     filter,
		ranker:     shelterRanker,
		generator:  generator,
		dispatcher: dispatcher,
		auditor:    auditor,
		opts:       opts,
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
	}
}

// Run polls until the context is cancelled, then waits for any in-flight
// cycle and closes the dedup cache.
func (p *Poller) Run(ctx context.Context) error {
	p.ready.Store(true)
	if p.metrics != nil {
		p.metrics.PollerRunning.Set(1)
	}
	p.logger.Info("poller started", "interval", p.opts.Interval)

	ticker := p.clock.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.ready.Store(false)
			if p.metrics != nil {
				p.metrics.PollerRunning.Set(0)
			}
			p.wg.Wait()
			if err := p.cache.Close(); err != nil {
				p.logger.Warn("close dedup cache", "error", err)
			}
			p.logger.Info("poller stopped")
			return ctx.Err()
		case <-ticker.Chan():
			if !p.inFlight.CompareAndSwap(false, true) {
				if p.metrics != nil {
					p.metrics.PollCyclesSkipped.Inc()
				}
				p.logger.Debug("tick skipped, cycle in flight")
				continue
			}
			p.wg.Add(1)
			// Shutdown stops new ticks but must let this cycle finish:
			// the alert is already marked seen, so cutting the fan-out
			// short would lose its notifications until the TTL expires.
			cycleCtx := context.WithoutCancel(ctx)
			go func() {
				defer p.wg.Done()
				defer p.inFlight.Store(false)
				p.runCycle(cycleCtx)
			}()
		}
	}
}

// CheckReadiness reports whether the polling loop is live.
func (p *Poller) CheckReadiness() bool {
	return p.ready.Load()
}

// runCycle executes one fetch-dedup-notify pass. A panic in cycle code is
// contained here so one poisoned alert batch cannot take the loop down.
func (p *Poller) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("poll cycle panicked", "panic", r)
			if p.metrics != nil {
				p.metrics.PollFailures.Inc()
			}
		}
	}()

	started := p.clock.Now()
	defer func() {
		if p.metrics != nil {
			p.metrics.CycleDuration.Observe(p.clock.Since(started).Seconds())
		}
	}()

	alerts, err := p.source.Fetch(ctx)
	if err != nil {
		p.logger.Error("fetch disaster messages", "error", err)
		if p.metrics != nil {
			p.metrics.PollFailures.Inc()
		}
		return
	}
	if p.metrics != nil {
		p.metrics.AlertsFetched.Add(float64(len(alerts)))
		p.metrics.PollCycles.Inc()
	}

	for _, alert := range alerts {
		if ctx.Err() != nil {
			return
		}
		if !p.cache.IsNew(ctx, alert.ID) {
			if p.metrics != nil {
				p.metrics.AlertsDuplicate.Inc()
			}
			continue
		}
		p.cache.MarkSeen(ctx, alert.ID)
		p.processAlert(ctx, alert)
	}
}

// processAlert persists one accepted alert and fans it out. A storage
// failure aborts only this alert; the dedup mark is not reverted, so a
// transiently unsaveable alert is not re-notified on the next cycle.
func (p *Poller) processAlert(ctx context.Context, alert domain.Alert) {
	logger := p.logger.With("alert_id", alert.ID, "category", string(alert.Category))

	if err := p.store.SaveAlert(ctx, alert); err != nil {
		logger.Error("persist alert", "error", err)
		return
	}
	if p.metrics != nil {
		p.metrics.AlertsAccepted.Inc()
	}
	logger.Info("new alert accepted", "area", alert.AreaName)

	subscribers, err := p.filter.Relevant(ctx, alert)
	if err != nil {
		logger.Error("resolve eligible subscribers", "error", err)
		return
	}
	if len(subscribers) == 0 {
		logger.Info("no eligible subscribers")
		return
	}

	notifications := make([]fcm.Notification, 0, len(subscribers))
	for _, sub := range subscribers {
		shelters, err := p.ranker.Rank(ctx, ranker.Query{
			Origin:   *sub.Location,
			RadiusKM: p.opts.SearchRadiusKM,
			Limit:    p.opts.MaxShelters,
			Category: alert.Category,
		})
		if err != nil {
			logger.Warn("rank shelters", "device_id", sub.DeviceID, "error", err)
			shelters = nil
		}
		card := p.generator.GenerateOrFallback(ctx, alert, sub.Profile, shelters)
		notifications = append(notifications, fcm.Notification{
			Subscriber: sub,
			Alert:      alert,
			Card:       card,
		})
	}

	result := p.dispatcher.SendBatch(ctx, notifications)
	if p.metrics != nil {
		p.metrics.NotificationsSent.Add(float64(result.Success))
		p.metrics.NotificationsFailed.Add(float64(result.Failed))
	}
	logger.Info("alert fanned out",
		"subscribers", len(notifications),
		"sent", result.Success,
		"failed", result.Failed)

	if p.auditor != nil {
		for i, n := range notifications {
			success := i < len(result.Outcomes) && result.Outcomes[i].Err == nil
			p.auditor.Record(ctx, alert, n.Subscriber.DeviceID, n.Card.Method, success)
		}
	}
}
