package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/campverse/authcore/internal/postgres"
)

// Enabled when AUTHCORE_DATABASE_URL points at a disposable database.
func TestPostgresStoreContract(t *testing.T) {
	dsn := os.Getenv("AUTHCORE_DATABASE_URL")
	if dsn == "" {
		t.Skip("AUTHCORE_DATABASE_URL is not set; skipping Postgres integration test")
	}

	ctx := context.Background()
	if err := postgres.Migrate(ctx, dsn, "up"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db, err := postgres.New(ctx, postgres.Config{URL: dsn, QueryTimeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(db.Close)

	runStoreContract(t, func(t *testing.T, clock *testClock) Store {
		return NewPostgresStore(db).WithClock(clock.Now)
	})
}
