// Package authcore is the session and token lifecycle core.
//
// An [Engine] issues short-lived bearer tokens bound to server-side sessions,
// rotates single-use refresh credentials, gates requests through a
// revocation cache, and records login attempts in an append-only ledger.
//
// Build an Engine with [New]:
//
//	engine, err := authcore.New().
//		WithConfig(cfg).
//		WithRedis(rdb).
//		WithSessionStore(session.NewPostgresStore(db)).
//		WithLedger(loginhistory.NewPostgresLedger(db)).
//		WithSubjectProvider(subjects).
//		Build()
//
// Durable state lives in the session store and ledger. The revocation cache
// is best effort; Config.Revocation.FailClosed decides what happens when it
// cannot be reached.
package authcore
