package tracking

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/RENEILPH10/Step-Counter/internal/shared/geo"
	"github.com/RENEILPH10/Step-Counter/internal/storage"

	"github.com/google/uuid"
)

// StepStrideM is the average stride used to turn distance into a step estimate.
const StepStrideM = 0.8

// msToKmh converts metres per second to kilometres per hour.
const msToKmh = 3.6

var ErrNotRunning = errors.New("tracker is not running")

// Tracker accumulates distance from timestamped samples. Every method takes
// the same lock, so a tick and an HTTP read never interleave.
type Tracker struct {
	mu    sync.Mutex
	now   func() time.Time
	newID func() string

	state     State
	sessionID string
	startedAt time.Time
	elapsed   float64
	totalM    float64
	samples   int

	// previous is the latest sample, prior the one before it.
	previous *Sample
	prior    *Sample
}

type Option func(*Tracker)

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(t *Tracker) { t.newID = fn }
}

// NewTracker returns an idle tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		now:   time.Now,
		newID: uuid.NewString,
		state: StateIdle,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start begins a fresh session. It does nothing if one is already running.
func (t *Tracker) Start() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateRunning {
		t.clear()
		t.startedAt = t.now()
		t.state = StateRunning
	}
	return t.snapshot()
}

// Stop freezes the session. Accumulators are kept and stay readable.
func (t *Tracker) Stop() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == StateRunning {
		t.state = StateStopped
	}
	return t.snapshot()
}

// Reset zeroes the session without changing whether it is running.
func (t *Tracker) Reset() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.clear()
	if t.state == StateRunning {
		t.startedAt = t.now()
	}
	return t.snapshot()
}

// Ingest folds one sample into the session. Outside Running it returns
// ErrNotRunning and changes nothing.
func (t *Tracker) Ingest(s Sample) error {
	if err := s.Coord.Validate(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateRunning {
		return ErrNotRunning
	}

	sample := s
	t.samples++
	if t.previous == nil {
		// a single fix carries no distance
		t.previous = &sample
		if t.startedAt.IsZero() {
			t.startedAt = sample.At
		}
		t.elapsed = 0
		return nil
	}

	t.totalM += geo.Distance(t.previous.Coord, sample.Coord)
	t.prior = t.previous
	t.previous = &sample
	t.elapsed = math.Max(0, sample.At.Sub(t.startedAt).Seconds())
	return nil
}

// Current returns the live snapshot without modifying anything.
func (t *Tracker) Current() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot()
}

func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tracker) Running() bool {
	return t.State() == StateRunning
}

// Record projects the current snapshot into a storable record stamped at.
func (t *Tracker) Record(at time.Time) storage.Record {
	snap := t.Current()
	return storage.Record{
		Timestamp:  storage.FormatTimestamp(at),
		DistanceKm: snap.DistanceKm,
		SpeedKmh:   snap.SpeedKmh,
		Steps:      snap.Steps,
	}
}

func (t *Tracker) clear() {
	t.sessionID = t.newID()
	t.startedAt = time.Time{}
	t.elapsed = 0
	t.totalM = 0
	t.samples = 0
	t.previous = nil
	t.prior = nil
}

func (t *Tracker) snapshot() Snapshot {
	return Snapshot{
		SessionID:      t.sessionID,
		State:          t.state,
		DistanceM:      t.totalM,
		DistanceKm:     t.totalM / 1000,
		Steps:          stepsFor(t.totalM),
		ElapsedSeconds: t.elapsed,
		SpeedKmh:       t.speedKmh(),
		Samples:        t.samples,
	}
}

// speedKmh uses only the last inter-sample interval.
func (t *Tracker) speedKmh() float64 {
	if t.prior == nil || t.previous == nil {
		return 0
	}
	dt := t.previous.At.Sub(t.prior.At).Seconds()
	if dt <= 0 {
		return 0
	}
	return geo.Distance(t.prior.Coord, t.previous.Coord) / dt * msToKmh
}

func stepsFor(meters float64) int {
	return int(math.Floor(meters / StepStrideM))
}
