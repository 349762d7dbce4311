// Package sampler drives the tracker from a position source on a fixed interval.
package sampler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/RENEILPH10/Step-Counter/internal/position"
	"github.com/RENEILPH10/Step-Counter/internal/shared/logx"
	"github.com/RENEILPH10/Step-Counter/internal/tracking"
)

const DefaultInterval = time.Second

type Loop struct {
	tracker  *tracking.Tracker
	source   position.Source
	interval time.Duration
	now      func() time.Time
	onTick   func(tracking.Snapshot)
	log      *slog.Logger
}

type Option func(*Loop)

func WithClock(now func() time.Time) Option {
	return func(l *Loop) { l.now = now }
}

// WithOnTick registers a callback that receives the snapshot after each ingested sample.
func WithOnTick(fn func(tracking.Snapshot)) Option {
	return func(l *Loop) { l.onTick = fn }
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) { l.log = logger }
}

func New(tracker *tracking.Tracker, source position.Source, interval time.Duration, opts ...Option) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	l := &Loop{
		tracker:  tracker,
		source:   source,
		interval: interval,
		now:      time.Now,
		log:      logx.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Tick pulls one coordinate and feeds it to the tracker. Nothing is pulled
// unless the tracker is running; the bool reports whether a sample was taken.
func (l *Loop) Tick() (tracking.Snapshot, bool) {
	if !l.tracker.Running() {
		return l.tracker.Current(), false
	}

	coord := l.source.NextCoordinate()
	err := l.tracker.Ingest(tracking.Sample{Coord: coord, At: l.now()})
	switch {
	case errors.Is(err, tracking.ErrNotRunning):
		// stopped between the check and the ingest
		return l.tracker.Current(), false
	case err != nil:
		l.log.Warn("sample rejected", "action", "tick", "lat", coord.Lat, "lon", coord.Lon, "error", err)
		return l.tracker.Current(), false
	}

	snap := l.tracker.Current()
	l.log.Debug("tick", "action", "tick", "distance_km", snap.DistanceKm, "steps", snap.Steps, "speed_kmh", snap.SpeedKmh)
	if l.onTick != nil {
		l.onTick(snap)
	}
	return snap, true
}

// Run ticks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.log.Info("sampler started", "action", "run", "interval", l.interval.String())
	for {
		select {
		case <-ctx.Done():
			l.log.Info("sampler stopped", "action", "run")
			return nil
		case <-ticker.C:
			l.Tick()
		}
	}
}
