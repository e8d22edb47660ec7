package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campverse/authcore"
	"github.com/campverse/authcore/jwt"
)

type fakeAuth struct {
	identities map[string]*authcore.Identity
	err        error
	calls      int
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*authcore.Identity, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	id, ok := f.identities[token]
	if !ok {
		return nil, &authcore.TokenError{Reason: jwt.ReasonSignature}
	}
	return id, nil
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{identities: map[string]*authcore.Identity{
		"student-token": {UserID: "u1", Roles: []string{"student"}, SessionID: "s1"},
		"admin-token":   {UserID: "a1", Roles: []string{"admin"}, SessionID: "s2"},
	}}
}

func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := authcore.IdentityFromContext(r.Context())
		if !ok {
			_, _ = w.Write([]byte("anonymous"))
			return
		}
		_, _ = w.Write([]byte(id.UserID))
	})
}

func doRequest(h http.Handler, target, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRequire(t *testing.T) {
	auth := newFakeAuth()
	h := Require(auth)(echoIdentity())

	rec := doRequest(h, "/", "Bearer student-token")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", rec.Body.String())

	rec = doRequest(h, "/", "bearer   student-token ")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(h, "/", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "no_credential", decodeError(t, rec).Error)

	rec = doRequest(h, "/", "Basic dXNlcjpwYXNz")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(h, "/", "Bearer forged")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "invalid_token", body.Error)
	assert.Equal(t, "invalid_signature", body.Reason)
}

func TestRequireMapsEngineErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{authcore.ErrRevoked, http.StatusUnauthorized, "token_revoked"},
		{&authcore.TokenError{Reason: jwt.ReasonExpired}, http.StatusUnauthorized, "token_expired"},
		{authcore.ErrSubjectMissing, http.StatusUnauthorized, "subject_missing"},
		{fmt.Errorf("%w: dial tcp: refused", authcore.ErrCacheUnavailable), http.StatusServiceUnavailable, "unavailable"},
		{fmt.Errorf("%w: pool closed", authcore.ErrStorageUnavailable), http.StatusServiceUnavailable, "unavailable"},
	}
	for _, tt := range tests {
		auth := newFakeAuth()
		auth.err = tt.err
		rec := doRequest(Require(auth)(echoIdentity()), "/", "Bearer student-token")
		assert.Equal(t, tt.status, rec.Code, "err=%v", tt.err)
		body := decodeError(t, rec)
		assert.Equal(t, tt.code, body.Error)
		assert.NotContains(t, body.Message, "refused")
		assert.NotContains(t, body.Message, "pool")
	}
}

func TestOptionalFallsThroughToAnonymous(t *testing.T) {
	auth := newFakeAuth()
	h := Optional(auth)(echoIdentity())

	rec := doRequest(h, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())
	assert.Zero(t, auth.calls)

	rec = doRequest(h, "/", "Bearer forged")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())

	auth.err = errors.New("cache down")
	rec = doRequest(h, "/", "Bearer student-token")
	assert.Equal(t, "anonymous", rec.Body.String())

	auth.err = nil
	rec = doRequest(h, "/", "Bearer student-token")
	assert.Equal(t, "u1", rec.Body.String())
}

func TestRequireRole(t *testing.T) {
	auth := newFakeAuth()
	h := Require(auth)(RequireRole("admin", "moderator")(echoIdentity()))

	rec := doRequest(h, "/", "Bearer admin-token")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(h, "/", "Bearer student-token")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decodeError(t, rec).Error)

	rec = doRequest(RequireRole("admin")(echoIdentity()), "/", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireSelfOrRole(t *testing.T) {
	auth := newFakeAuth()
	mux := http.NewServeMux()
	mux.Handle("GET /users/{userID}", Require(auth)(RequireSelfOrRole("userID", "admin")(echoIdentity())))

	rec := doRequest(mux, "/users/u1", "Bearer student-token")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(mux, "/users/u2", "Bearer student-token")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(mux, "/users/u2", "Bearer admin-token")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWriteJSONHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "internal_error", decodeError(t, rec).Error)
}
