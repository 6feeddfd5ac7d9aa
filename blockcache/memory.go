package blockcache

import (
	"context"
	"sync"
	"time"

	"github.com/zamorofthat/shieldcore/decision"
)

type entry struct {
	reason    decision.Reason
	expiresAt int64
}

// Memory is an in-process, map-backed Cache. Grounded on the
// teacher's session MemoryStore: a single RWMutex guarding a plain
// map, with eviction happening lazily on read rather than via a
// background sweep.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry

	now func() int64
}

// NewMemory builds an empty Memory cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
		now:     func() int64 { return time.Now().Unix() },
	}
}

// Get returns the Reason for fingerprint if its expiry is strictly in
// the future, evicting it otherwise.
func (m *Memory) Get(ctx context.Context, fingerprint string) (decision.Reason, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[fingerprint]
	m.mu.RUnlock()
	if !ok {
		return decision.Reason{}, false, nil
	}
	if e.expiresAt <= m.now() {
		m.mu.Lock()
		if cur, ok := m.entries[fingerprint]; ok && cur.expiresAt <= m.now() {
			delete(m.entries, fingerprint)
		}
		m.mu.Unlock()
		return decision.Reason{}, false, nil
	}
	return e.reason, true, nil
}

// Set overwrites the entry for fingerprint.
func (m *Memory) Set(ctx context.Context, fingerprint string, reason decision.Reason, expiresAtUnix int64) error {
	m.mu.Lock()
	m.entries[fingerprint] = entry{reason: reason, expiresAt: expiresAtUnix}
	m.mu.Unlock()
	return nil
}

// TTL returns max(0, expiry-now) without evicting.
func (m *Memory) TTL(ctx context.Context, fingerprint string) (int, error) {
	m.mu.RLock()
	e, ok := m.entries[fingerprint]
	m.mu.RUnlock()
	if !ok {
		return 0, nil
	}
	remaining := e.expiresAt - m.now()
	if remaining < 0 {
		return 0, nil
	}
	return int(remaining), nil
}

var _ Cache = (*Memory)(nil)
