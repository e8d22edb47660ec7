// Package jwt signs and verifies access tokens.
//
// Exactly one signing algorithm is accepted per Manager. Verify never returns
// an error; it returns a Result whose Reason says why a token was rejected so
// callers can surface "expired" separately from "malformed" or "bad signature".
package jwt
