// Telegate - Encrypted Field Telemetry Gateway
// Copyright 2026 Telegate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/telegate/telegate

// Package store implements the concurrency-safe telemetry cache.
//
// The store reconciles a single asynchronous writer (the broker receive
// loop) with arbitrarily many concurrent readers (query handlers). It holds
// two views per topic:
//
//   - Latest: the most recently received TopicRecord, overwrite-only.
//   - History: a bounded FIFO ring of derived HistoryPoints, append-only.
//
// Both views are updated together under one lock so a reader can never
// observe a new Latest paired with stale History for the same ingestion
// event. All read paths copy out; callers never hold references into the
// store's internal maps or ring buffers.
package store

import (
	"maps"
	"slices"
	"sync"

	"github.com/telegate/telegate/internal/models"
)

// HistoryMax is the fixed capacity of each per-topic history ring.
const HistoryMax = 200

// Store is the in-memory home for Latest and History. The zero value is not
// usable; construct with New. Entries live until process termination; topics
// are never removed.
type Store struct {
	mu      sync.RWMutex
	latest  map[string]models.TopicRecord
	history map[string]*ring
}

// ring is a fixed-capacity FIFO of history points. When full, the oldest
// point is evicted as the new one is written.
type ring struct {
	buf   []models.HistoryPoint
	start int
	count int
}

func newRing() *ring {
	return &ring{buf: make([]models.HistoryPoint, HistoryMax)}
}

func (r *ring) push(pt models.HistoryPoint) {
	if r.count < len(r.buf) {
		r.buf[(r.start+r.count)%len(r.buf)] = pt
		r.count++
		return
	}
	r.buf[r.start] = pt
	r.start = (r.start + 1) % len(r.buf)
}

// last copies out the most recent n points, oldest-first.
func (r *ring) last(n int) []models.HistoryPoint {
	if n > r.count {
		n = r.count
	}
	out := make([]models.HistoryPoint, n)
	first := r.start + r.count - n
	for i := 0; i < n; i++ {
		out[i] = r.buf[(first+i)%len(r.buf)]
	}
	return out
}

// New creates an empty store.
func New() *Store {
	return &Store{
		latest:  make(map[string]models.TopicRecord),
		history: make(map[string]*ring),
	}
}

// Upsert replaces the Latest entry for rec.Topic and appends pt to the
// topic's history ring, evicting the oldest point when at capacity. Both
// updates are observable together or not at all.
func (s *Store) Upsert(rec models.TopicRecord, pt models.HistoryPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest[rec.Topic] = rec
	r, ok := s.history[rec.Topic]
	if !ok {
		r = newRing()
		s.history[rec.Topic] = r
	}
	r.push(pt)
}

// Latest returns the most recent record for topic, or false if the topic
// has never been seen.
func (s *Store) Latest(topic string) (models.TopicRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.latest[topic]
	return rec, ok
}

// LatestAll returns a snapshot copy of the latest record for every topic.
// The returned map is owned by the caller and safe to serialize without
// further locking.
func (s *Store) LatestAll() map[string]models.TopicRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return maps.Clone(s.latest)
}

// History returns up to n of the most recent history points for topic,
// oldest-first. n is capped at HistoryMax. The second return is false when
// the topic has never been seen.
func (s *Store) History(topic string, n int) ([]models.HistoryPoint, bool) {
	if n > HistoryMax {
		n = HistoryMax
	}
	if n < 0 {
		n = 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.history[topic]
	if !ok {
		return nil, false
	}
	return r.last(n), true
}

// Topics returns the sorted set of topics that have been seen.
func (s *Store) Topics() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Sorted(maps.Keys(s.latest))
}

// Count returns the number of topics seen.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.latest)
}
