package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
)

const pingTimeout = 2 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

type healthHandler struct {
	store     pinger
	version   string
	startedAt time.Time
	now       func() time.Time
}

func newHealthHandler(store pinger, version string) *healthHandler {
	return &healthHandler{
		store:     store,
		version:   version,
		startedAt: time.Now(),
		now:       time.Now,
	}
}

func (h *healthHandler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	now := h.now()
	resp := healthResponse{
		OK:        true,
		Version:   h.version,
		Uptime:    now.Sub(h.startedAt).Seconds(),
		Timestamp: now.UTC(),
	}

	status := http.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		resp.OK = false
		status = http.StatusServiceUnavailable
	}

	render.Status(r, status)
	render.JSON(w, r, resp)
}
