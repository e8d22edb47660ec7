package loginhistory

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/campverse/authcore/internal/postgres"
)

func TestPostgresLedgerContract(t *testing.T) {
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

	runLedgerContract(t, func(t *testing.T) Ledger { return NewPostgresLedger(db) })
}
