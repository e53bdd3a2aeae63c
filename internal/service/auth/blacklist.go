package auth

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Blacklist is a time-bounded denylist of revoked access tokens. Absence
// means "not known revoked", not "valid".
type Blacklist interface {
	Add(ctx context.Context, token string, ttl time.Duration) error
	Contains(ctx context.Context, token string) (bool, error)
}

// blacklistSweepInterval bounds how often Add scans for expired entries.
const blacklistSweepInterval = time.Minute

// MemoryBlacklist is a process-local Blacklist for single-instance
// deployments and tests. Expired entries are dropped lazily on lookup and
// swept by Add at most once per blacklistSweepInterval.
type MemoryBlacklist struct {
	mu        sync.Mutex
	entries   map[string]time.Time
	lastSweep time.Time
	timeFunc  func() time.Time
}

var _ Blacklist = (*MemoryBlacklist)(nil)

// NewMemoryBlacklist creates an empty MemoryBlacklist.
func NewMemoryBlacklist() *MemoryBlacklist {
	return newMemoryBlacklist(time.Now)
}

func newMemoryBlacklist(now func() time.Time) *MemoryBlacklist {
	return &MemoryBlacklist{
		entries:   make(map[string]time.Time),
		lastSweep: now(),
		timeFunc:  now,
	}
}

// Add marks token as revoked until ttl elapses.
func (b *MemoryBlacklist) Add(_ context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("blacklist ttl must be positive")
	}
	now := b.timeFunc()

	b.mu.Lock()
	defer b.mu.Unlock()
	if now.Sub(b.lastSweep) >= blacklistSweepInterval {
		for k, exp := range b.entries {
			if !now.Before(exp) {
				delete(b.entries, k)
			}
		}
		b.lastSweep = now
	}
	b.entries[token] = now.Add(ttl)
	return nil
}

// Contains reports whether token is blacklisted and unexpired.
func (b *MemoryBlacklist) Contains(_ context.Context, token string) (bool, error) {
	now := b.timeFunc()

	b.mu.Lock()
	defer b.mu.Unlock()
	exp, ok := b.entries[token]
	if !ok {
		return false, nil
	}
	if !now.Before(exp) {
		delete(b.entries, token)
		return false, nil
	}
	return true, nil
}
