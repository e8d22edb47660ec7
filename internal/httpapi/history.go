package httpapi

import (
	"net/http"
	"strconv"

	"github.com/campverse/authcore/loginhistory"
	"github.com/campverse/authcore/middleware"
)

const defaultStatsDays = 30

func intParam(r *http.Request, name string, def int) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func (a *api) loginHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(r, "limit", loginhistory.DefaultLimit)
	if !ok {
		badRequest(w, "limit must be a non-negative integer")
		return
	}
	offset, ok := intParam(r, "offset", 0)
	if !ok {
		badRequest(w, "offset must be a non-negative integer")
		return
	}
	status := loginhistory.Status(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		badRequest(w, "status must be success or failed")
		return
	}

	page, err := a.engine.LoginHistory(r.Context(), identity(r).UserID, loginhistory.Query{
		Limit:  limit,
		Offset: offset,
		Status: status,
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, page)
}

func (a *api) securityCheck(w http.ResponseWriter, r *http.Request) {
	report, err := a.engine.SecurityCheck(r.Context(), identity(r).UserID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, report)
}

func (a *api) loginStats(w http.ResponseWriter, r *http.Request) {
	days, ok := intParam(r, "days", defaultStatsDays)
	if !ok || days == 0 {
		badRequest(w, "days must be a positive integer")
		return
	}
	stats, err := a.engine.LoginStats(r.Context(), identity(r).UserID, days)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, stats)
}
