package store

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"go-catalog-cache/internal/models"
)

// Entry is one cached catalog value
type Entry struct {
	Key          string
	Value        interface{}
	FetchedAt    time.Time
	TTL          models.TTL
	Revalidating bool
	// Generation increases with every Set of the key
	Generation uint64

	refreshToken uint64
}

// Age returns how long ago the entry was fetched
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}

// Freshness classifies the entry at now
func (e *Entry) Freshness(now time.Time) models.Freshness {
	return e.TTL.FreshnessAt(e.Age(now))
}

// Stats counts entries by freshness state
type Stats struct {
	Fresh        int
	Stale        int
	Expired      int
	Revalidating int
}

// Claim is the right to refresh one key in the background. Only its holder can
// release the key or write the refreshed value.
type Claim struct {
	Key        string
	TTL        models.TTL
	generation uint64
	token      uint64
}

// Store holds cache entries keyed by canonical cache key. It performs no I/O.
// Expired entries stay in the map but are never served.
type Store struct {
	mu        sync.Mutex
	entries   map[string]*Entry
	clock     clock.Clock
	lastToken uint64
}

// New creates an empty store reading time from clk
func New(clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.New()
	}
	return &Store{
		entries: make(map[string]*Entry),
		clock:   clk,
	}
}

// Get returns the value for key unless it is absent or expired
func (s *Store) Get(key string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || entry.Freshness(s.clock.Now()) == models.Expired {
		return nil, false
	}
	return entry.Value, true
}

// GetWithStatus returns the value for key and whether a background refresh should be
// started: true only for a stale entry that nobody is revalidating yet
func (s *Store) GetWithStatus(key string) (value interface{}, found bool, needsRevalidation bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false, false
	}

	switch entry.Freshness(s.clock.Now()) {
	case models.Fresh:
		return entry.Value, true, false
	case models.Stale:
		return entry.Value, true, !entry.Revalidating
	default:
		return nil, false, false
	}
}

// Set inserts or replaces the entry for key and resets its fetch time. The revalidating
// flag is cleared unless a background refresh still holds a claim on the key.
func (s *Store) Set(key string, value interface{}, ttl models.TTL) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.put(key, value, ttl)
}

func (s *Store) put(key string, value interface{}, ttl models.TTL) {
	entry := &Entry{
		Key:       key,
		Value:     value,
		FetchedAt: s.clock.Now(),
		TTL:       ttl,
	}
	if prev, ok := s.entries[key]; ok {
		entry.Generation = prev.Generation + 1
		entry.refreshToken = prev.refreshToken
		entry.Revalidating = prev.refreshToken != 0
	}
	s.entries[key] = entry
}

// MarkRevalidating sets the revalidating flag of key; no-op when key is absent
func (s *Store) MarkRevalidating(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[key]; ok && entry.refreshToken == 0 {
		s.claim(entry)
	}
}

// ClearRevalidating clears the revalidating flag of key and drops any claim on it;
// no-op when key is absent
func (s *Store) ClearRevalidating(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[key]; ok {
		entry.refreshToken = 0
		entry.Revalidating = false
	}
}

// TryMarkRevalidating atomically claims the refresh of a servable entry. Exactly one
// caller gets true until the flag is cleared again.
func (s *Store) TryMarkRevalidating(key string) bool {
	_, ok := s.ClaimRevalidation(key)
	return ok
}

// ClaimRevalidation atomically claims the refresh of a servable entry that nobody is
// refreshing. The claim survives Set calls until it is released or completed.
func (s *Store) ClaimRevalidation(key string) (Claim, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || entry.refreshToken != 0 || entry.Freshness(s.clock.Now()) == models.Expired {
		return Claim{}, false
	}
	return s.claim(entry), true
}

func (s *Store) claim(entry *Entry) Claim {
	s.lastToken++
	entry.refreshToken = s.lastToken
	entry.Revalidating = true
	return Claim{
		Key:        entry.Key,
		TTL:        entry.TTL,
		generation: entry.Generation,
		token:      s.lastToken,
	}
}

// ReleaseRevalidation gives up c without writing a value. A claim that was already
// cleared is ignored.
func (s *Store) ReleaseRevalidation(c Claim) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.release(c)
}

func (s *Store) release(c Claim) bool {
	entry, ok := s.entries[c.Key]
	if !ok || entry.refreshToken != c.token {
		return false
	}
	entry.refreshToken = 0
	entry.Revalidating = false
	return true
}

// CompleteRevalidation stores the refreshed value under the claimed TTL and releases c.
// The value is dropped when the entry was replaced after the claim was taken, so an
// older fetch never overwrites a newer one. Reports whether the value was stored.
func (s *Store) CompleteRevalidation(c Claim, value interface{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.release(c) {
		return false
	}
	if s.entries[c.Key].Generation != c.generation {
		return false
	}
	s.put(c.Key, value, c.TTL)
	return true
}

// Snapshot returns a copy of the entry for key, expired or not
func (s *Store) Snapshot(key string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return Entry{}, false
	}
	return *entry, true
}

// Len returns the number of entries held, including expired ones
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// Stats counts the held entries by state
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	var stats Stats
	for _, entry := range s.entries {
		switch entry.Freshness(now) {
		case models.Fresh:
			stats.Fresh++
		case models.Stale:
			stats.Stale++
		default:
			stats.Expired++
		}
		if entry.Revalidating {
			stats.Revalidating++
		}
	}
	return stats
}

// Now returns the store's current time
func (s *Store) Now() time.Time {
	return s.clock.Now()
}
