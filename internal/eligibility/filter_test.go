package eligibility

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pes-safety/evac-notifier/internal/domain"
)

type recordingSource struct {
	since time.Time
	subs  []domain.Subscriber
	err   error
}

func (r *recordingSource) ActiveSubscribers(_ context.Context, since time.Time) ([]domain.Subscriber, error) {
	r.since = since
	return r.subs, r.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEligible_WindowCutoffUsesClock(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)
	source := &recordingSource{}

	f := New(source, time.Hour, clock, discardLogger())
	_, err := f.Eligible(context.Background(), domain.Alert{ID: "a1"})
	require.NoError(t, err)

	assert.Equal(t, now.Add(-time.Hour), source.since)
}

func TestEligible_LocationRequired(t *testing.T) {
	source := &recordingSource{subs: []domain.Subscriber{
		{DeviceID: "located", Location: &domain.Geo{Lat: 33.5, Lon: 126.5}, Active: true},
		{DeviceID: "unlocated", Location: nil, Active: true},
	}}

	f := New(source, time.Hour, clockwork.NewFakeClock(), discardLogger())
	decisions, err := f.Eligible(context.Background(), domain.Alert{ID: "a1"})
	require.NoError(t, err)
	require.Len(t, decisions, 2)

	byDevice := map[string]bool{}
	for _, d := range decisions {
		byDevice[d.Subscriber.DeviceID] = d.Relevant
	}
	assert.True(t, byDevice["located"])
	assert.False(t, byDevice["unlocated"])
}

func TestRelevant_ReturnsOnlyNotifiable(t *testing.T) {
	source := &recordingSource{subs: []domain.Subscriber{
		{DeviceID: "located", Location: &domain.Geo{Lat: 33.5, Lon: 126.5}, Active: true},
		{DeviceID: "unlocated", Active: true},
	}}

	f := New(source, time.Hour, clockwork.NewFakeClock(), discardLogger())
	subs, err := f.Relevant(context.Background(), domain.Alert{ID: "a1"})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "located", subs[0].DeviceID)
}

func TestEligible_SourceError(t *testing.T) {
	source := &recordingSource{err: errors.New("db down")}

	f := New(source, time.Hour, clockwork.NewFakeClock(), discardLogger())
	_, err := f.Eligible(context.Background(), domain.Alert{ID: "a1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}
