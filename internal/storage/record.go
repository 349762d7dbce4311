package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// TimestampLayout is the dt column format, YYYY-MM-DD HH:MM:SS.
const TimestampLayout = "2006-01-02 15:04:05"

const DefaultRecentLimit = 100

var (
	ErrStorage      = errors.New("storage error")
	ErrClosed       = errors.New("store closed")
	ErrInvalidLimit = errors.New("limit must not be negative")
)

// Record is one saved session summary. ID is assigned by the store.
type Record struct {
	ID         int64   `json:"id"`
	Timestamp  string  `json:"timestamp"`
	DistanceKm float64 `json:"distance_km"`
	SpeedKmh   float64 `json:"speed_kmh"`
	Steps      int     `json:"steps"`
}

func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// Store is an append-and-list log of session records.
type Store interface {
	// Append durably writes rec and returns it with the store-assigned ID.
	// A failed call writes nothing.
	Append(ctx context.Context, rec Record) (Record, error)
	// Recent returns at most limit records, newest insertion first.
	Recent(ctx context.Context, limit int) ([]Record, error)
	// Close releases the medium. Calling it again is a no-op.
	Close() error
}

// StorageError reports a failed read or write against the backing medium.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

func checkLimit(limit int) error {
	if limit < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	return nil
}
