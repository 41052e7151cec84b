// Package memory provides an in-process db.Store for tests and single-node demos.
package memory

import (
	"context"
	"path"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/kailas-cloud/talentrag/internal/db"
)

var _ db.Store = (*Store)(nil)

// Store keeps keys and hashes in maps guarded by a single RWMutex.
type Store struct {
	mu     sync.RWMutex
	kv     map[string][]byte
	hashes map[string]map[string]int64
	closed bool
}

// New creates an empty store.
func New() *Store {
	return &Store{
		kv:     make(map[string][]byte),
		hashes: make(map[string]map[string]int64),
	}
}

// Ping always succeeds while the store is open.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return &db.Error{Op: "PING", Err: errClosed}
	}
	return nil
}

// WaitForReady returns immediately; the store is ready on construction.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// Close marks the store closed. Data stays readable for tests.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Get returns a copy of the stored value.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return clone(v), nil
}

// MGet returns values in key order with nil for missing keys.
func (s *Store) MGet(_ context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([][]byte, len(keys))
	for i, k := range keys {
		if v, ok := s.kv[k]; ok {
			out[i] = clone(v)
		}
	}
	return out, nil
}

// Set stores a copy of value.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = clone(value)
	return nil
}

// Del removes a key from both the value and hash spaces.
func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.kv, key)
	delete(s.hashes, key)
	return nil
}

// IncrBy increments an integer value, creating it at zero.
func (s *Store) IncrBy(_ context.Context, key string, val int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var cur int64
	if v, ok := s.kv[key]; ok {
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return &db.Error{Op: db.OpIncrBy, Err: err}
		}
		cur = n
	}
	s.kv[key] = []byte(strconv.FormatInt(cur+val, 10))
	return nil
}

// HIncrBy increments a hash field.
func (s *Store) HIncrBy(_ context.Context, key, field string, val int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hashes[key]
	if !ok {
		h = make(map[string]int64)
		s.hashes[key] = h
	}
	h[field] += val
	return nil
}

// HGetAll returns all fields of a hash; a missing hash yields an empty map.
func (s *Store) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hashLocked(key), nil
}

// HGetAllMulti returns hashes in key order.
func (s *Store) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i] = s.hashLocked(k)
	}
	return out, nil
}

// Scan returns value keys matching a glob pattern, sorted.
func (s *Store) Scan(_ context.Context, pattern string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.kv {
		ok, err := path.Match(pattern, k)
		if err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		if ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) hashLocked(key string) map[string]string {
	h := s.hashes[key]
	m := make(map[string]string, len(h))
	for f, v := range h {
		m[f] = strconv.FormatInt(v, 10)
	}
	return m
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
