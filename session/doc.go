// Package session holds the durable record of device grants: one Session per
// (user, device) with the hash of its current refresh credential.
//
// Store is implemented by PostgresStore for production and MemoryStore for
// tests and local development. Both honour the same contract:
//
//   - Create revokes any active session with the same device signature
//     (reason manual) before inserting the new one.
//   - FindByRefresh and Rotate return ErrNotFound for missing, revoked and
//     expired sessions alike.
//   - Rotate is a single update keyed on the previous hash, so concurrent
//     rotations with the same credential produce exactly one winner.
//   - Durable-layer failures wrap ErrUnavailable.
package session
