package handler

import (
	"net/http"

	"github.com/Mark-Phillipson/Risk/internal/auth"
	"github.com/Mark-Phillipson/Risk/internal/metrics"
	"github.com/Mark-Phillipson/Risk/internal/middleware"
	"github.com/Mark-Phillipson/Risk/internal/service"
)

// RouterConfig holds what the HTTP API is built from.
type RouterConfig struct {
	Sessions   *service.SessionManager
	JWT        *auth.JWTManager
	Hub        *Hub
	CORSOrigin string
}

// NewRouter builds the full HTTP handler with global middleware applied.
// Session routes require an access token for the session in the path.
func NewRouter(cfg RouterConfig) http.Handler {
	sessions := NewSessionHandler(cfg.Sessions, cfg.JWT)
	maps := NewMapHandler(cfg.Sessions)
	board := NewLeaderboardHandler(cfg.Sessions)
	ws := NewWSHandler(cfg.Hub, cfg.JWT)

	mux := http.NewServeMux()
	authMw := auth.Middleware(cfg.JWT)
	protected := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, authMw(fn))
	}

	// Health and metrics
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": cfg.Sessions.Count()})
	})
	mux.Handle("GET /metrics", metrics.Handler())

	// Public
	mux.HandleFunc("POST /auth/refresh", sessions.RefreshToken)
	mux.HandleFunc("POST /api/v1/sessions", sessions.CreateSession)
	mux.HandleFunc("GET /api/v1/sessions", sessions.ListSessions)
	mux.HandleFunc("GET /api/v1/leaderboard", board.Top)

	// WebSocket (auth via query param, not middleware)
	mux.HandleFunc("GET /api/v1/ws", ws.ServeWS)

	// Session-scoped
	protected("GET /api/v1/sessions/{id}", sessions.GetSession)
	protected("DELETE /api/v1/sessions/{id}", sessions.DeleteSession)
	protected("PUT /api/v1/sessions/{id}/players", sessions.SetPlayers)
	protected("GET /api/v1/sessions/{id}/regions", maps.ListRegions)
	protected("GET /api/v1/sessions/{id}/regions/{code}", maps.GetRegion)
	protected("GET /api/v1/sessions/{id}/groups", maps.Groups)
	protected("POST /api/v1/sessions/{id}/click", maps.Click)
	protected("POST /api/v1/sessions/{id}/conquer", maps.Conquer)
	protected("POST /api/v1/sessions/{id}/batch", maps.ApplyBatch)
	protected("POST /api/v1/sessions/{id}/clear", maps.ClearMap)
	protected("POST /api/v1/sessions/{id}/reset", maps.Reset)
	protected("POST /api/v1/sessions/{id}/restore", maps.Restore)
	protected("PUT /api/v1/sessions/{id}/labels", maps.SetLabels)
	protected("POST /api/v1/sessions/{id}/labels/recompute", maps.RecomputeLabels)
	protected("GET /api/v1/sessions/{id}/labels/{code}", maps.GetLabel)
	protected("GET /api/v1/sessions/{id}/view", maps.GetView)
	protected("PUT /api/v1/sessions/{id}/view", maps.SetView)
	protected("POST /api/v1/sessions/{id}/view/group", maps.ZoomToGroup)
	protected("POST /api/v1/sessions/{id}/view/feature", maps.ZoomToFeature)
	protected("POST /api/v1/sessions/{id}/view/reset", maps.ResetView)
	protected("POST /api/v1/sessions/{id}/keys", maps.HandleKey)
	protected("POST /api/v1/sessions/{id}/elements", maps.RegisterElement)
	protected("DELETE /api/v1/sessions/{id}/elements/{element}", maps.UnregisterElement)
	protected("POST /api/v1/sessions/{id}/focus", maps.Focus)
	protected("POST /api/v1/sessions/{id}/focus-shape", maps.FocusShape)
	protected("POST /api/v1/sessions/{id}/show-all", maps.ShowAll)
	protected("GET /api/v1/sessions/{id}/snapshot", maps.Snapshot)
	protected("GET /api/v1/sessions/{id}/snapshot.png", maps.SnapshotPNG)

	// Any valid session token may reset a mode's tallies.
	protected("DELETE /api/v1/leaderboard", board.Reset)

	// Metrics sits innermost so the matched pattern is visible after ServeHTTP.
	return middleware.Chain(middleware.Metrics(mux), middleware.Logger, middleware.CORS(cfg.CORSOrigin), middleware.JSON)
}
