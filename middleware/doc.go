// Package middleware adapts authcore's auth gate to net/http.
//
// # Guards
//
//   - [Require] rejects requests without a valid, unrevoked bearer token.
//   - [Optional] runs the same checks but lets anonymous requests through.
//   - [RequireRole] and [RequireSelfOrRole] narrow an authenticated route.
//
// Guards read the Authorization header, call Authenticate, and attach the
// resulting identity with authcore.WithIdentity.
//
// This package translates HTTP semantics into Engine calls. It does not parse
// tokens or talk to Redis itself.
package middleware
