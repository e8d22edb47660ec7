package loginhistory

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryLedger keeps entries in process for tests and development.
type MemoryLedger struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

func (m *MemoryLedger) Append(ctx context.Context, e Entry) error {
	if err := e.validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.entries = append(m.entries, e)
	m.mu.Unlock()
	return nil
}

func (m *MemoryLedger) History(ctx context.Context, userID string, q Query) ([]Entry, int, error) {
	q = q.Normalize()
	m.mu.RLock()
	matched := make([]Entry, 0)
	for _, e := range m.entries {
		if e.UserID == userID && (q.Status == "" || e.Status == q.Status) {
			matched = append(matched, e)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})
	total := len(matched)
	if q.Offset >= total {
		return []Entry{}, total, nil
	}
	end := q.Offset + q.Limit
	if end > total {
		end = total
	}
	return matched[q.Offset:end], total, nil
}

func (m *MemoryLedger) CountFailures(ctx context.Context, key FailureKey, since time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, e := range m.entries {
		if e.Status != StatusFailed || e.Timestamp.Before(since) {
			continue
		}
		if key.UserID != "" && e.UserID != key.UserID {
			continue
		}
		if key.IP != "" && e.Device.IP != key.IP {
			continue
		}
		n++
	}
	return n, nil
}

func (m *MemoryLedger) SuccessfulSince(ctx context.Context, userID string, since time.Time) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entry, 0)
	for _, e := range m.entries {
		if e.UserID == userID && e.Status == StatusSuccess && !e.Timestamp.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemoryLedger) Stats(ctx context.Context, userID string, since time.Time) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var s Stats
	for _, e := range m.entries {
		if e.UserID != userID || e.Timestamp.Before(since) {
			continue
		}
		switch e.Status {
		case StatusSuccess:
			s.Successful++
		case StatusFailed:
			s.Failed++
		}
		s.Total++
	}
	return s, nil
}

func (m *MemoryLedger) Purge(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.entries[:0]
	var n int64
	for _, e := range m.entries {
		if e.Timestamp.Before(before) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return n, nil
}

var _ Ledger = (*MemoryLedger)(nil)
