package httpapi

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/campverse/authcore"
	"github.com/campverse/authcore/middleware"
)

const healthTimeout = 500 * time.Millisecond

type healthResponse struct {
	Status   string                `json:"status"`
	Database bool                  `json:"database"`
	Backends authcore.HealthStatus `json:"backends"`
}

// healthz fails only when the durable store is unreachable; a Redis outage is
// reported but does not take the instance out of rotation.
func (a *api) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{Status: "ok", Database: true}
	if a.ping != nil {
		if err := a.ping(ctx); err != nil {
			a.log.Warn("health: database ping failed", zap.Error(err))
			resp.Database = false
			resp.Status = "unhealthy"
		}
	}
	resp.Backends = a.engine.Health(ctx)

	status := http.StatusOK
	if !resp.Database {
		status = http.StatusServiceUnavailable
	}
	middleware.WriteJSON(w, status, resp)
}
