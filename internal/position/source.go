// Package position supplies raw coordinates to the tracker.
package position

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/RENEILPH10/Step-Counter/internal/shared/geo"
)

// Source yields the next coordinate on demand. Implementations must not block.
type Source interface {
	NextCoordinate() geo.Coordinate
}

const (
	MinStepM = 0.5
	MaxStepM = 2.0
)

// Simulator wanders from a start coordinate by a random walking-pace step each call.
type Simulator struct {
	mu      sync.Mutex
	rng     *rand.Rand
	current geo.Coordinate
}

// NewSimulator starts at start. A nil rng is seeded from the clock.
func NewSimulator(start geo.Coordinate, rng *rand.Rand) (*Simulator, error) {
	if err := start.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulator{rng: rng, current: start}, nil
}

func (s *Simulator) NextCoordinate() geo.Coordinate {
	s.mu.Lock()
	defer s.mu.Unlock()

	meters := MinStepM + s.rng.Float64()*(MaxStepM-MinStepM)
	bearing := s.rng.Float64() * 360
	s.current = geo.Destination(s.current, meters, bearing)
	return s.current
}

func (s *Simulator) Current() geo.Coordinate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

var ErrEmptyRoute = errors.New("replay route is empty")

// Replay walks a fixed list of coordinates. Once the route is exhausted it
// keeps returning the last point, so no further distance accrues. WithLoop
// restarts from the first point instead; the jump back is then a real hop.
type Replay struct {
	mu     sync.Mutex
	points []geo.Coordinate
	next   int
	loop   bool
}

type ReplayOption func(*Replay)

func WithLoop() ReplayOption {
	return func(r *Replay) { r.loop = true }
}

func NewReplay(points []geo.Coordinate, opts ...ReplayOption) (*Replay, error) {
	if len(points) == 0 {
		return nil, ErrEmptyRoute
	}
	for _, p := range points {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	cp := make([]geo.Coordinate, len(points))
	copy(cp, points)
	r := &Replay{points: cp}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Replay) NextCoordinate() geo.Coordinate {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.points[r.next]
	switch {
	case r.next < len(r.points)-1:
		r.next++
	case r.loop:
		r.next = 0
	}
	return p
}
