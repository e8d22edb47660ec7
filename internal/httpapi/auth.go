package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/campverse/authcore"
	"github.com/campverse/authcore/device"
	"github.com/campverse/authcore/middleware"
)

type tokenResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	SessionID   string    `json:"sessionId"`
}

func (a *api) writePair(w http.ResponseWriter, pair *authcore.TokenPair) {
	a.cookie.set(w, pair.RefreshToken)
	middleware.WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken: pair.AccessToken,
		ExpiresAt:   pair.AccessExpiresAt,
		SessionID:   pair.Session.ID,
	})
}

func (a *api) refresh(w http.ResponseWriter, r *http.Request) {
	raw := a.cookie.read(r)
	if raw == "" {
		a.cookie.clear(w)
		middleware.WriteError(w, authcore.ErrNoCredential)
		return
	}

	ctx := authcore.WithClientIP(r.Context(), device.ClientIP(r))
	pair, err := a.engine.Rotate(ctx, raw)
	if err != nil {
		a.cookie.clear(w)
		middleware.WriteError(w, err)
		return
	}
	a.writePair(w, pair)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *api) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		badRequest(w, "email and password are required")
		return
	}

	info := a.resolver.Resolve(r)
	ctx := authcore.WithClientIP(r.Context(), info.IP)
	pair, err := a.engine.Login(ctx, req.Email, req.Password, info)
	if err != nil {
		if !errors.Is(err, authcore.ErrInvalidCredentials) && !errors.Is(err, authcore.ErrRateLimited) {
			a.log.Error("login failed", zap.Error(err))
		}
		middleware.WriteError(w, err)
		return
	}
	a.writePair(w, pair)
}

func (a *api) logout(w http.ResponseWriter, r *http.Request) {
	if err := a.engine.Logout(r.Context(), identity(r)); err != nil && !errors.Is(err, authcore.ErrSessionNotFound) {
		middleware.WriteError(w, err)
		return
	}
	a.cookie.clear(w)
	w.WriteHeader(http.StatusNoContent)
}
