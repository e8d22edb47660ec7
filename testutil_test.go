package authcore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/campverse/authcore/device"
	"github.com/campverse/authcore/loginhistory"
	"github.com/campverse/authcore/session"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeSubjects struct {
	mu       sync.Mutex
	subjects map[string]Subject
	hashes   map[string]string
	err      error
}

func newFakeSubjects() *fakeSubjects {
	return &fakeSubjects{subjects: map[string]Subject{}, hashes: map[string]string{}}
}

func (f *fakeSubjects) put(s Subject) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects[s.ID] = s
}

func (f *fakeSubjects) LookupSubject(_ context.Context, userID string) (Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return Subject{}, f.err
	}
	s, ok := f.subjects[userID]
	if !ok {
		return Subject{}, fmt.Errorf("%w: %s", ErrSubjectMissing, userID)
	}
	return s, nil
}

func (f *fakeSubjects) LookupCredentials(_ context.Context, identifier string) (Subject, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subjects {
		if s.Email == identifier {
			return s, f.hashes[s.ID], nil
		}
	}
	return Subject{}, "", ErrSubjectMissing
}

// failingStore fails every call with session.ErrUnavailable.
type failingStore struct{ session.Store }

func (failingStore) unavailable() error {
	return fmt.Errorf("%w: connection refused", session.ErrUnavailable)
}

func (f failingStore) Create(context.Context, string, device.Info, time.Duration) (*session.Session, string, error) {
	return nil, "", f.unavailable()
}

func (f failingStore) FindByRefresh(context.Context, string) (*session.Session, error) {
	return nil, f.unavailable()
}

func (f failingStore) Revoke(context.Context, string, session.RevokeReason, string) (*session.Session, error) {
	return nil, f.unavailable()
}

func (f failingStore) Get(context.Context, string) (*session.Session, error) {
	return nil, f.unavailable()
}

type testEnv struct {
	engine   *Engine
	clock    *testClock
	store    *session.MemoryStore
	ledger   *loginhistory.MemoryLedger
	subjects *fakeSubjects
	mr       *miniredis.Miniredis
}

var testSecret = []byte("test-secret-test-secret-test-secret!")

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.Secret = testSecret
	cfg.JWT.Issuer = "authcore-test"
	cfg.JWT.Audience = "campverse-test"
	cfg.Password = PasswordConfig{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	cfg.Audit.Enabled = false
	return cfg
}

type envOption func(*Config, *Builder)

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	clock := newTestClock()
	store := session.NewMemoryStore().WithClock(clock.Now)
	ledger := loginhistory.NewMemoryLedger()
	subjects := newFakeSubjects()
	subjects.put(Subject{ID: "u1", Roles: []string{"student"}, Name: "Ada", Email: "ada@example.com", Status: StatusActive})

	cfg := testConfig()
	b := New().
		WithRedis(rdb).
		WithSessionStore(store).
		WithLedger(ledger).
		WithSubjectProvider(subjects).
		WithCredentialProvider(subjects).
		WithClock(clock.Now)
	for _, opt := range opts {
		opt(&cfg, b)
	}
	b.WithConfig(cfg)

	engine, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	return &testEnv{engine: engine, clock: clock, store: store, ledger: ledger, subjects: subjects, mr: mr}
}

func laptop() device.Info {
	return device.Info{
		Device:    "Mac",
		Client:    "Chrome 120",
		Platform:  "macOS",
		UserAgent: "Mozilla/5.0 (Macintosh)",
		IP:        "203.0.113.10",
		Location:  device.Location{Country: "India", CountryCode: "IN"},
	}
}

func phone() device.Info {
	return device.Info{
		Device:   "iPhone/iPad",
		Client:   "Safari 17",
		Platform: "iOS",
		IP:       "198.51.100.7",
	}
}

func (env *testEnv) subject(t *testing.T, id string) Subject {
	t.Helper()
	s, err := env.subjects.LookupSubject(context.Background(), id)
	require.NoError(t, err)
	return s
}

// waitLedger blocks until the recorder has written n entries for userID.
func (env *testEnv) waitLedger(t *testing.T, userID string, n int) []loginhistory.Entry {
	t.Helper()
	var entries []loginhistory.Entry
	require.Eventually(t, func() bool {
		var err error
		entries, _, err = env.ledger.History(context.Background(), userID, loginhistory.Query{Limit: 100})
		return err == nil && len(entries) >= n
	}, 2*time.Second, 5*time.Millisecond)
	return entries
}
