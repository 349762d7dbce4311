package tracking

import (
	"time"

	"github.com/RENEILPH10/Step-Counter/internal/shared/geo"
)

type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateStopped State = "stopped"
)

// Sample is a coordinate captured at a point in time.
type Sample struct {
	Coord geo.Coordinate `json:"coord"`
	At    time.Time      `json:"at"`
}

type Snapshot struct {
	SessionID      string  `json:"session_id"`
	State          State   `json:"state"`
	DistanceM      float64 `json:"distance_m"`
	DistanceKm     float64 `json:"distance_km"`
	Steps          int     `json:"steps"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	SpeedKmh       float64 `json:"speed_kmh"`
	Samples        int     `json:"samples"`
}

type SampleRequest struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}
