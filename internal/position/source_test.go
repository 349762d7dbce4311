package position

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/RENEILPH10/Step-Counter/internal/shared/geo"
)

var start = geo.Coordinate{Lat: 7.0731, Lon: 125.6131}

func TestSimulatorStepsWithinWalkingRange(t *testing.T) {
	sim, err := NewSimulator(start, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}

	// steps are projected on the equatorial radius and measured on the mean radius
	scale := geo.MeanEarthRadiusM / geo.EquatorialRadiusM
	prev := sim.Current()
	for i := 0; i < 500; i++ {
		next := sim.NextCoordinate()
		if err := next.Validate(); err != nil {
			t.Fatalf("invalid coordinate: %v", err)
		}
		d := geo.Distance(prev, next)
		if d < MinStepM*scale-1e-4 || d > MaxStepM*scale+1e-4 {
			t.Fatalf("step %d out of range: %v", i, d)
		}
		if next != sim.Current() {
			t.Fatalf("expected current to follow the last returned coordinate")
		}
		prev = next
	}
}

func TestSimulatorDeterministicWithSeed(t *testing.T) {
	a, _ := NewSimulator(start, rand.New(rand.NewSource(7)))
	b, _ := NewSimulator(start, rand.New(rand.NewSource(7)))
	for i := 0; i < 10; i++ {
		if a.NextCoordinate() != b.NextCoordinate() {
			t.Fatalf("expected identical walks for equal seeds")
		}
	}
}

func TestSimulatorRejectsInvalidStart(t *testing.T) {
	_, err := NewSimulator(geo.Coordinate{Lat: 100, Lon: 0}, nil)
	if !errors.Is(err, geo.ErrInvalidCoordinate) {
		t.Fatalf("expected invalid coordinate, got %v", err)
	}
}

func TestSimulatorDefaultRNG(t *testing.T) {
	sim, err := NewSimulator(start, nil)
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}
	if sim.NextCoordinate() == start {
		t.Fatalf("expected movement")
	}
}

func TestReplayHoldsLastPoint(t *testing.T) {
	r, err := NewReplay([]geo.Coordinate{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 0.01}})
	if err != nil {
		t.Fatalf("new replay: %v", err)
	}

	want := []geo.Coordinate{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 0.01}, {Lat: 0, Lon: 0.01}, {Lat: 0, Lon: 0.01}}
	for i, w := range want {
		if got := r.NextCoordinate(); got != w {
			t.Fatalf("call %d: got %+v want %+v", i, got, w)
		}
	}
}

func TestReplayLoopWraps(t *testing.T) {
	points := []geo.Coordinate{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 0.01}}
	r, err := NewReplay(points, WithLoop())
	if err != nil {
		t.Fatalf("new replay: %v", err)
	}
	points[0] = geo.Coordinate{Lat: 1, Lon: 1}

	want := []geo.Coordinate{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 0.01}, {Lat: 0, Lon: 0}}
	for i, w := range want {
		if got := r.NextCoordinate(); got != w {
			t.Fatalf("call %d: got %+v want %+v", i, got, w)
		}
	}
}

func TestReplayValidation(t *testing.T) {
	if _, err := NewReplay(nil); !errors.Is(err, ErrEmptyRoute) {
		t.Fatalf("expected empty route error, got %v", err)
	}
	if _, err := NewReplay([]geo.Coordinate{{Lat: 0, Lon: 200}}); !errors.Is(err, geo.ErrInvalidCoordinate) {
		t.Fatalf("expected invalid coordinate, got %v", err)
	}
}

var _ Source = (*Simulator)(nil)
var _ Source = (*Replay)(nil)
