package handlers

import (
	"context"
	"net/http"
	"time"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok"}
	if a.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.DB.Ping(ctx); err != nil {
			a.log(r).Error().Err(err).Msg("database ping failed")
			a.json(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "database": "unreachable"})
			return
		}
		status["database"] = "ok"
	}
	if a.Sessions != nil {
		status["sessions"] = a.Sessions.Len()
	}
	a.json(w, http.StatusOK, status)
}
