package tracking

import (
	"context"
	"log/slog"
	"time"

	"github.com/RENEILPH10/Step-Counter/internal/shared/geo"
	"github.com/RENEILPH10/Step-Counter/internal/shared/logx"
	"github.com/RENEILPH10/Step-Counter/internal/storage"
	"github.com/RENEILPH10/Step-Counter/internal/stream"
)

// Service is the host-facing surface over one tracker and the record store.
type Service struct {
	tracker      *Tracker
	store        storage.Store
	hub          *stream.Hub
	log          *slog.Logger
	now          func() time.Time
	historyLimit int
}

func NewService(tracker *Tracker, store storage.Store, hub *stream.Hub, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logx.Nop()
	}
	return &Service{
		tracker:      tracker,
		store:        store,
		hub:          hub,
		log:          logger,
		now:          time.Now,
		historyLimit: storage.DefaultRecentLimit,
	}
}

// WithHistoryLimit sets the limit used when History is called with a negative limit.
func (s *Service) WithHistoryLimit(limit int) *Service {
	if limit > 0 {
		s.historyLimit = limit
	}
	return s
}

func (s *Service) Tracker() *Tracker { return s.tracker }

func (s *Service) Start() Snapshot {
	snap := s.tracker.Start()
	s.log.Info("session started", "action", "start", "session_id", snap.SessionID)
	s.Publish(snap)
	return snap
}

func (s *Service) Stop() Snapshot {
	snap := s.tracker.Stop()
	s.log.Info("session stopped", "action", "stop", "session_id", snap.SessionID, "distance_km", snap.DistanceKm, "steps", snap.Steps)
	s.Publish(snap)
	return snap
}

func (s *Service) Reset() Snapshot {
	snap := s.tracker.Reset()
	s.log.Info("session reset", "action", "reset", "session_id", snap.SessionID, "state", snap.State)
	s.Publish(snap)
	return snap
}

func (s *Service) Current() Snapshot {
	return s.tracker.Current()
}

// Ingest records an externally supplied fix, stamped with the service clock.
func (s *Service) Ingest(coord geo.Coordinate) (Snapshot, error) {
	if err := s.tracker.Ingest(Sample{Coord: coord, At: s.now()}); err != nil {
		return Snapshot{}, err
	}
	snap := s.tracker.Current()
	s.Publish(snap)
	return snap, nil
}

// Save appends the current snapshot to the store and returns the record with
// its assigned ID. A failed append leaves the tracker untouched, so the caller may retry.
func (s *Service) Save(ctx context.Context) (storage.Record, error) {
	rec, err := s.store.Append(ctx, s.tracker.Record(s.now()))
	if err != nil {
		s.log.Error("save record failed", "action", "save", "error", err)
		return storage.Record{}, err
	}
	s.log.Info("record saved", "action", "save", "id", rec.ID, "distance_km", rec.DistanceKm, "steps", rec.Steps)
	if s.hub != nil {
		s.hub.BroadcastJSON(stream.TopicRecords, rec)
	}
	return rec, nil
}

// History lists saved records newest first. A negative limit uses the default.
func (s *Service) History(ctx context.Context, limit int) ([]storage.Record, error) {
	if limit < 0 {
		limit = s.historyLimit
	}
	return s.store.Recent(ctx, limit)
}

func (s *Service) Publish(snap Snapshot) {
	if s.hub != nil {
		s.hub.BroadcastJSON(stream.TopicSnapshot, snap)
	}
}
