package authcore_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/campverse/authcore"
	"github.com/campverse/authcore/device"
	"github.com/campverse/authcore/loginhistory"
	"github.com/campverse/authcore/session"
)

type exampleSubjects struct{}

func (exampleSubjects) LookupSubject(_ context.Context, userID string) (authcore.Subject, error) {
	return authcore.Subject{ID: userID, Status: authcore.StatusActive}, nil
}

// ExampleNew wires an Engine with in-memory stores and a Redis revocation
// cache.
func ExampleNew() {
	cfg := authcore.DefaultConfig()
	cfg.JWT.Secret = []byte("replace-with-a-32-byte-or-longer-secret")

	engine, err := authcore.New().
		WithConfig(cfg).
		WithRedis(redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})).
		WithSessionStore(session.NewMemoryStore()).
		WithLedger(loginhistory.NewMemoryLedger()).
		WithSubjectProvider(exampleSubjects{}).
		Build()
	if err != nil {
		return
	}
	defer engine.Close()
}

// ExampleEngine_Rotate shows the uniform refresh failure handling.
func ExampleEngine_Rotate() {
	var engine *authcore.Engine
	pair, err := engine.Rotate(context.Background(), "raw-refresh-credential")
	switch {
	case errors.Is(err, authcore.ErrInvalidRefresh):
		// clear the cookie and send the user to sign in
	case errors.Is(err, authcore.ErrStorageUnavailable):
		// retry later; the credential is still valid
	case err == nil:
		fmt.Println(pair.Session.ID)
	}
}

// ExampleEngine_IssueTokenPair issues credentials after an external sign-in.
func ExampleEngine_IssueTokenPair() {
	var engine *authcore.Engine
	subject := authcore.Subject{ID: "u1", Roles: []string{"student"}, Email: "ada@example.com"}
	info := device.Info{Device: "Mac", Client: "Chrome 120", Platform: "macOS", IP: "203.0.113.10"}

	pair, err := engine.IssueTokenPair(context.Background(), subject, info, authcore.MethodGoogle)
	if err != nil {
		return
	}
	_ = pair.AccessToken
}

// ExampleEngine_MetricsSnapshot reads the in-process counters.
func ExampleEngine_MetricsSnapshot() {
	var engine *authcore.Engine
	snapshot := engine.MetricsSnapshot()
	fmt.Println(snapshot.Counters[authcore.MetricRefreshSuccess])
}
