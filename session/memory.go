package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/campverse/authcore/device"
	"github.com/campverse/authcore/internal"
)

// MemoryStore is an in-process Store for tests and single-node development.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	byHash   map[string]string
	now      Clock
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		byHash:   make(map[string]string),
		now:      systemClock,
	}
}

// WithClock replaces the time source.
func (m *MemoryStore) WithClock(c Clock) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c != nil {
		m.now = c
	}
	return m
}

func (m *MemoryStore) Create(ctx context.Context, userID string, info device.Info, ttl time.Duration) (*Session, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	raw, err := internal.NewRefreshSecret()
	if err != nil {
		return nil, "", err
	}
	hash, err := internal.HashRefreshSecret(raw)
	if err != nil {
		return nil, "", err
	}
	info = info.Normalize()

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for _, s := range m.sessions {
		if s.IsActive && s.UserID == userID && s.Device.Signature() == info.Signature() {
			m.revokeLocked(s, ReasonManual, "", now)
		}
	}

	sess := &Session{
		ID:             internal.NewID(),
		UserID:         userID,
		RefreshHash:    hash,
		Device:         info,
		IsActive:       true,
		CreatedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(ttl),
	}
	m.sessions[sess.ID] = sess
	m.byHash[hash] = sess.ID
	return sess.clone(), raw, nil
}

func (m *MemoryStore) FindByRefresh(ctx context.Context, rawRefresh string) (*Session, error) {
	hash, err := internal.HashRefreshSecret(rawRefresh)
	if err != nil {
		return nil, ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.sessions[m.byHash[hash]]
	if !s.Usable(m.now()) {
		return nil, ErrNotFound
	}
	return s.clone(), nil
}

func (m *MemoryStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return s.clone(), nil
}

func (m *MemoryStore) Rotate(ctx context.Context, oldHash, newHash string, ttl time.Duration) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	id, ok := m.byHash[oldHash]
	if !ok {
		return nil, ErrNotFound
	}
	s := m.sessions[id]
	if !s.Usable(now) {
		return nil, ErrNotFound
	}

	delete(m.byHash, oldHash)
	m.byHash[newHash] = id
	s.RefreshHash = newHash
	s.ExpiresAt = now.Add(ttl)
	s.LastActivityAt = now
	return s.clone(), nil
}

func (m *MemoryStore) Touch(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[sessionID]; ok && s.IsActive {
		s.LastActivityAt = m.now()
	}
	return nil
}

func (m *MemoryStore) Revoke(ctx context.Context, sessionID string, reason RevokeReason, revokedBy string) (*Session, error) {
	if !reason.Valid() {
		return nil, ErrInvalidReason
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok || !s.IsActive {
		return nil, ErrNotFound
	}
	m.revokeLocked(s, reason, revokedBy, m.now())
	return s.clone(), nil
}

func (m *MemoryStore) RevokeAllExcept(ctx context.Context, userID, keepID string, reason RevokeReason, revokedBy string) ([]string, error) {
	if !reason.Valid() {
		return nil, ErrInvalidReason
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var ids []string
	for id, s := range m.sessions {
		if s.UserID != userID || !s.IsActive || id == keepID {
			continue
		}
		m.revokeLocked(s, reason, revokedBy, now)
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemoryStore) RevokeAll(ctx context.Context, userID string, reason RevokeReason, revokedBy string) ([]string, error) {
	return m.RevokeAllExcept(ctx, userID, "", reason, revokedBy)
}

func (m *MemoryStore) ListActive(ctx context.Context, userID string) ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	out := make([]Session, 0)
	for _, s := range m.sessions {
		if s.UserID == userID && s.Usable(now) {
			out = append(out, *s.clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastActivityAt.After(out[j].LastActivityAt)
	})
	return out, nil
}

func (m *MemoryStore) SweepExpired(ctx context.Context, revokedRetention time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	cutoff := now.Add(-revokedRetention)
	var n int64
	for id, s := range m.sessions {
		expired := !now.Before(s.ExpiresAt)
		staleRevoked := !s.IsActive && s.RevokedAt != nil && s.RevokedAt.Before(cutoff)
		if expired || staleRevoked {
			delete(m.byHash, s.RefreshHash)
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) revokeLocked(s *Session, reason RevokeReason, revokedBy string, now time.Time) {
	t := now
	s.IsActive = false
	s.RevokedAt = &t
	s.RevokedBy = revokedBy
	s.RevokeReason = reason
}

var _ Store = (*MemoryStore)(nil)
