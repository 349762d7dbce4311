package storage

import (
	"context"
	"sync"

	"github.com/RENEILPH10/Step-Counter/internal/db"
)

// PostgresStore keeps records in the records table of a Postgres database.
type PostgresStore struct {
	db      db.Querier
	release func()

	mu     sync.RWMutex
	closed bool
}

// NewPostgresStore wraps q. release, if set, is called once on Close.
func NewPostgresStore(q db.Querier, release func()) *PostgresStore {
	return &PostgresStore{db: q, release: release}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS records (
			id BIGSERIAL PRIMARY KEY,
			dt TEXT NOT NULL,
			distance_km DOUBLE PRECISION NOT NULL,
			speed_kmh DOUBLE PRECISION NOT NULL,
			steps INTEGER NOT NULL
		)
	`)
	return wrap("migrate", err)
}

func (s *PostgresStore) Append(ctx context.Context, rec Record) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Record{}, wrap("append", ErrClosed)
	}

	var id int64
	row := s.db.QueryRow(ctx, `
		INSERT INTO records (dt, distance_km, speed_kmh, steps)
		VALUES ($1,$2,$3,$4)
		RETURNING id
	`, rec.Timestamp, rec.DistanceKm, rec.SpeedKmh, rec.Steps)
	if err := row.Scan(&id); err != nil {
		return Record{}, wrap("append", err)
	}
	rec.ID = id
	return rec, nil
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, wrap("recent", ErrClosed)
	}
	if limit == 0 {
		return []Record{}, nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, dt, distance_km, speed_kmh, steps
		FROM records
		ORDER BY id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, wrap("recent", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.DistanceKm, &r.SpeedKmh, &r.Steps); err != nil {
			return nil, wrap("recent", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("recent", err)
	}
	return records, nil
}

func (s *PostgresStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.release != nil {
		s.release()
	}
	return nil
}
