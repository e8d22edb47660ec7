package httpapi

import (
	"net/http"
	"strconv"

	"github.com/campverse/authcore"
	"github.com/campverse/authcore/middleware"
)

func (a *api) listSessions(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	views, err := a.engine.ListSessions(r.Context(), id.UserID, id.SessionID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if views == nil {
		views = []authcore.SessionView{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"sessions": views})
}

func (a *api) revokeSession(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	if err := a.engine.RevokeSession(r.Context(), id.UserID, r.PathValue("id")); err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) revokeAll(w http.ResponseWriter, r *http.Request) {
	id := identity(r)

	var keep string
	if v := r.URL.Query().Get("keepCurrent"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(w, "keepCurrent must be a boolean")
			return
		}
		if b {
			keep = id.SessionID
		}
	}

	n, err := a.engine.RevokeAllSessions(r.Context(), id.UserID, keep, "", id.UserID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if keep == "" {
		a.cookie.clear(w)
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]int{"revoked": n})
}

func (a *api) adminRevoke(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	sess, err := a.engine.AdminRevokeSession(r.Context(), id.UserID, r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"sessionId": sess.ID,
		"userId":    sess.UserID,
	})
}
