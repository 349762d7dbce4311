package geo

import (
	"errors"
	"fmt"
	"math"
)

const (
	// MeanEarthRadiusM is used for distances between fixes.
	MeanEarthRadiusM = 6371000.0
	// EquatorialRadiusM is used when projecting a move from a fix.
	EquatorialRadiusM = 6378137.0
)

var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate is a WGS84 position in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewCoordinate validates lat/lon ranges before building a Coordinate.
func NewCoordinate(lat, lon float64) (Coordinate, error) {
	c := Coordinate{Lat: lat, Lon: lon}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v must be between -90 and 90", ErrInvalidCoordinate, c.Lat)
	}
	if math.IsNaN(c.Lon) || c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: longitude %v must be between -180 and 180", ErrInvalidCoordinate, c.Lon)
	}
	return nil
}

// Distance returns the great-circle distance in metres using the haversine formula.
func Distance(a, b Coordinate) float64 {
	if a == b {
		return 0
	}
	phi1 := radians(a.Lat)
	phi2 := radians(b.Lat)
	dPhi := radians(b.Lat - a.Lat)
	dLambda := radians(b.Lon - a.Lon)

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	// rounding can push h just outside [0,1] near antipodes
	h = math.Min(1, math.Max(0, h))
	return 2 * MeanEarthRadiusM * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	return Distance(Coordinate{Lat: lat1, Lon: lng1}, Coordinate{Lat: lat2, Lon: lng2}) / 1000
}

// Destination moves from a coordinate by meters along bearingDeg (clockwise from north).
func Destination(from Coordinate, meters, bearingDeg float64) Coordinate {
	lat1 := radians(from.Lat)
	lon1 := radians(from.Lon)
	angular := meters / EquatorialRadiusM
	brng := radians(bearingDeg)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(angular) + math.Cos(lat1)*math.Sin(angular)*math.Cos(brng))
	lon2 := lon1 + math.Atan2(
		math.Sin(brng)*math.Sin(angular)*math.Cos(lat1),
		math.Cos(angular)-math.Sin(lat1)*math.Sin(lat2),
	)

	return Coordinate{Lat: degrees(lat2), Lon: normalizeLon(degrees(lon2))}
}

func normalizeLon(lon float64) float64 {
	if lon >= -180 && lon <= 180 {
		return lon
	}
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
