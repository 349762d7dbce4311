package storage

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
)

const (
	redisRecordsKey  = "stepmeter:records"
	redisSequenceKey = "stepmeter:records:seq"
)

// RedisStore keeps records as JSON entries in a Redis list, newest at the head.
// Each Append is a single LPUSH, so a record is either fully present or absent.
type RedisStore struct {
	client *redis.Client
	owned  bool

	mu     sync.RWMutex
	closed bool
}

// NewRedisStore uses client. When owned is true Close also closes the client.
func NewRedisStore(client *redis.Client, owned bool) *RedisStore {
	return &RedisStore{client: client, owned: owned}
}

func (s *RedisStore) Append(ctx context.Context, rec Record) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Record{}, wrap("append", ErrClosed)
	}

	id, err := s.client.Incr(ctx, redisSequenceKey).Result()
	if err != nil {
		return Record{}, wrap("append", err)
	}
	rec.ID = id
	payload, err := json.Marshal(rec)
	if err != nil {
		return Record{}, wrap("append", err)
	}
	if err := s.client.LPush(ctx, redisRecordsKey, payload).Err(); err != nil {
		return Record{}, wrap("append", err)
	}
	return rec, nil
}

func (s *RedisStore) Recent(ctx context.Context, limit int) ([]Record, error) {
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

	raw, err := s.client.LRange(ctx, redisRecordsKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, wrap("recent", err)
	}
	records := make([]Record, 0, len(raw))
	for _, item := range raw {
		var r Record
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			return nil, wrap("recent", err)
		}
		records = append(records, r)
	}
	return records, nil
}

func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.owned {
		return wrap("close", s.client.Close())
	}
	return nil
}
