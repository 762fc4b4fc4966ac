package storage

import (
	"context"
	"sync"
	"time"
)

// SnapshotStore keeps the most recent refresh.
type SnapshotStore interface {
	PutSnapshot(ctx context.Context, snap Snapshot) error
	LatestSnapshot(ctx context.Context) (Snapshot, bool, error)
}

// DigestStore remembers the last digest sent.
type DigestStore interface {
	RecordDigest(ctx context.Context, rec DigestRecord) error
	LastDigest(ctx context.Context) (DigestRecord, bool, error)
}

// Memory is a process-local store. Nothing survives a restart; each refresh
// replaces the previous snapshot wholesale.
type Memory struct {
	mu       sync.RWMutex
	snapshot *Snapshot
	digest   *DigestRecord
	now      func() time.Time
}

// NewMemory constructs an empty store.
func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

// PutSnapshot replaces the latest snapshot.
func (m *Memory) PutSnapshot(_ context.Context, snap Snapshot) error {
	if snap.PublishedAt.IsZero() {
		snap.PublishedAt = m.now().UTC()
	}
	m.mu.Lock()
	m.snapshot = &snap
	m.mu.Unlock()
	return nil
}

// LatestSnapshot returns the latest snapshot, if any has been published.
func (m *Memory) LatestSnapshot(_ context.Context) (Snapshot, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snapshot == nil {
		return Snapshot{}, false, nil
	}
	return *m.snapshot, true, nil
}

// RecordDigest stores rec as the last digest sent.
func (m *Memory) RecordDigest(_ context.Context, rec DigestRecord) error {
	if rec.SentAt.IsZero() {
		rec.SentAt = m.now().UTC()
	}
	m.mu.Lock()
	m.digest = &rec
	m.mu.Unlock()
	return nil
}

// LastDigest returns the last digest sent by this process.
func (m *Memory) LastDigest(_ context.Context) (DigestRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.digest == nil {
		return DigestRecord{}, false, nil
	}
	return *m.digest, true, nil
}

var (
	_ SnapshotStore = (*Memory)(nil)
	_ DigestStore   = (*Memory)(nil)
)
