package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Store with the same per-key semantics as the
// valkey implementation, used in tests and for running a single instance
// without external infrastructure.
type MemoryStore struct {
	mu      sync.Mutex
	strings map[string]memoryValue
	hashes  map[string]map[string]string
	zsets   map[string]map[string]float64
	expiry  map[string]time.Time

	// nowFn is swappable so tests can step time across TTL boundaries.
	nowFn func() time.Time
}

type memoryValue struct {
	value string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		strings: make(map[string]memoryValue),
		hashes:  make(map[string]map[string]string),
		zsets:   make(map[string]map[string]float64),
		expiry:  make(map[string]time.Time),
		nowFn:   time.Now,
	}
}

// SetClock replaces the store's notion of now. Intended for tests.
func (s *MemoryStore) SetClock(nowFn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = nowFn
}

// reap drops the key if its TTL has passed. Caller holds the lock.
func (s *MemoryStore) reap(key string) {
	deadline, ok := s.expiry[key]
	if !ok || s.nowFn().Before(deadline) {
		return
	}
	delete(s.strings, key)
	delete(s.hashes, key)
	delete(s.zsets, key)
	delete(s.expiry, key)
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reap(key)
	v, ok := s.strings[key]
	return v.value, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.strings[key] = memoryValue{value: value}
	delete(s.expiry, key)
	return nil
}

func (s *MemoryStore) SetEx(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.strings[key] = memoryValue{value: value}
	s.expiry[key] = s.nowFn().Add(ttl)
	return nil
}

func (s *MemoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.strings, key)
		delete(s.hashes, key)
		delete(s.zsets, key)
		delete(s.expiry, key)
	}
	return nil
}

func (s *MemoryStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reap(key)
	if _, ok := s.strings[key]; ok {
		s.expiry[key] = s.nowFn().Add(ttl)
		return nil
	}
	if _, ok := s.hashes[key]; ok {
		s.expiry[key] = s.nowFn().Add(ttl)
		return nil
	}
	if _, ok := s.zsets[key]; ok {
		s.expiry[key] = s.nowFn().Add(ttl)
	}
	return nil
}

// TTL reports the remaining time-to-live of key, if any. Intended for tests.
func (s *MemoryStore) TTL(key string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline, ok := s.expiry[key]
	if !ok {
		return 0, false
	}
	return deadline.Sub(s.nowFn()), true
}

func (s *MemoryStore) HSetAll(_ context.Context, key string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reap(key)
	hash, ok := s.hashes[key]
	if !ok {
		hash = make(map[string]string, len(fields))
		s.hashes[key] = hash
	}
	for f, v := range fields {
		hash[f] = v
	}
	return nil
}

func (s *MemoryStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reap(key)
	out := make(map[string]string, len(s.hashes[key]))
	for f, v := range s.hashes[key] {
		out[f] = v
	}
	return out, nil
}

func (s *MemoryStore) ZAdd(_ context.Context, key string, members ...ZMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reap(key)
	zset, ok := s.zsets[key]
	if !ok {
		zset = make(map[string]float64, len(members))
		s.zsets[key] = zset
	}
	for _, m := range members {
		zset[m.Member] = m.Score
	}
	return nil
}

func (s *MemoryStore) ZRangeByScore(_ context.Context, key string, max float64) ([]ZMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reap(key)
	var out []ZMember
	for member, score := range s.zsets[key] {
		if score <= max {
			out = append(out, ZMember{Member: member, Score: score})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score < out[j].Score
		}
		return out[i].Member < out[j].Member
	})
	return out, nil
}

func (s *MemoryStore) ZRem(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	zset := s.zsets[key]
	for _, m := range members {
		delete(zset, m)
	}
	if len(zset) == 0 {
		delete(s.zsets, key)
	}
	return nil
}

func (s *MemoryStore) ZCard(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reap(key)
	return int64(len(s.zsets[key])), nil
}
