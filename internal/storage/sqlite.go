package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/RENEILPH10/Step-Counter/internal/db"
)

// SQLiteStore keeps records in a local SQLite file.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	conn, err := db.OpenSQLite(dsn)
	if err != nil {
		return nil, wrap("open", err)
	}

	store := &SQLiteStore{db: conn}
	if err := store.migrate(); err != nil {
		conn.Close()
		return nil, wrap("migrate", fmt.Errorf("failed to migrate database: %w", err))
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		dt TEXT NOT NULL,
		distance_km REAL NOT NULL,
		speed_kmh REAL NOT NULL,
		steps INTEGER NOT NULL
	)`)
	return err
}

func (s *SQLiteStore) Append(ctx context.Context, rec Record) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return Record{}, wrap("append", ErrClosed)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO records (dt, distance_km, speed_kmh, steps) VALUES (?, ?, ?, ?)`,
		rec.Timestamp, rec.DistanceKm, rec.SpeedKmh, rec.Steps)
	if err != nil {
		return Record{}, wrap("append", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Record{}, wrap("append", err)
	}
	rec.ID = id
	return rec, nil
}

func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, wrap("recent", ErrClosed)
	}
	if limit == 0 {
		return []Record{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, dt, distance_km, speed_kmh, steps FROM records ORDER BY id DESC LIMIT ?`, limit)
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

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return wrap("close", err)
}
