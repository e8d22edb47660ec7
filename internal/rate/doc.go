// Package rate holds Redis fixed-window attempt counters.
//
// Window semantics: INCR, then EXPIRE on the first hit. Key prefixes:
//   - rl:lf:  login failures per identifier
//   - rl:lfi: login failures per client IP
//   - rl:rf:  refresh attempts per client
package rate
