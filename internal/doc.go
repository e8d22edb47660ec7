// Package internal contains helpers private to authcore: credential generation
// and hashing shared by the session store, the revocation cache and the engine.
//
// # Sub-packages
//
//   - audit: zap and Kafka audit sinks
//   - config: viper-backed service configuration
//   - httpapi: HTTP handlers for the /auth and /admin surfaces
//   - obs: zap logger construction
//   - postgres: pgx pool and goose migrations
//   - rate: Redis fixed-window attempt counters
//   - subjects: users-table subject and credential lookup
//   - sweeper: periodic cleanup of expired sessions and ledger entries
package internal
