package health

import (
	"context"
	"net/http"
	"time"

	"lv-markup/internal/httputil"
)

const dbTimeout = time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	db        Pinger
	startedAt time.Time
	groups    func() []string
}

// NewHandler builds the health endpoints. groups reports the trading groups
// with live quote subscribers and may be nil.
func NewHandler(db Pinger, startedAt time.Time, groups func() []string) *Handler {
	start := startedAt.UTC()
	if start.IsZero() {
		start = time.Now().UTC()
	}
	return &Handler{db: db, startedAt: start, groups: groups}
}

type liveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	UptimeSec int64  `json:"uptime_sec"`
	Uptime    string `json:"uptime"`
}

type databaseStats struct {
	Reachable bool   `json:"reachable"`
	PingMs    int64  `json:"ping_ms"`
	Error     string `json:"error,omitempty"`
}

type readinessResponse struct {
	liveResponse
	Database       databaseStats `json:"database"`
	StreamedGroups int           `json:"streamed_groups"`
}

func (h *Handler) uptime(now time.Time) time.Duration {
	uptime := now.Sub(h.startedAt)
	if uptime < 0 {
		return 0
	}
	return uptime
}

func (h *Handler) live(now time.Time) liveResponse {
	uptime := h.uptime(now)
	return liveResponse{
		Status:    "ok",
		Timestamp: now.Format(time.RFC3339),
		UptimeSec: int64(uptime.Seconds()),
		Uptime:    uptime.String(),
	}
}

// Live does not touch the database.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.live(time.Now().UTC()))
}

// Ready returns 503 when the database cannot be reached, since markup
// profiles and instrument precision both live there.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	resp := readinessResponse{liveResponse: h.live(time.Now().UTC())}
	status := http.StatusOK
	if h.db == nil {
		resp.Database.Error = "pool is not configured"
	} else {
		start := time.Now()
		ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
		err := h.db.Ping(ctx)
		cancel()
		resp.Database.PingMs = time.Since(start).Milliseconds()
		if err != nil {
			resp.Database.Error = err.Error()
		} else {
			resp.Database.Reachable = true
		}
	}
	if !resp.Database.Reachable {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	if h.groups != nil {
		resp.StreamedGroups = len(h.groups())
	}
	httputil.WriteJSON(w, status, resp)
}
