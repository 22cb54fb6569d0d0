package handler

import (
	"net/http"
	"strconv"

	"github.com/Mark-Phillipson/Risk/internal/model"
	"github.com/Mark-Phillipson/Risk/internal/service"
)

// LeaderboardHandler serves conquest tallies.
type LeaderboardHandler struct {
	mgr *service.SessionManager
}

// NewLeaderboardHandler creates a LeaderboardHandler.
func NewLeaderboardHandler(mgr *service.SessionManager) *LeaderboardHandler {
	return &LeaderboardHandler{mgr: mgr}
}

func modeParam(w http.ResponseWriter, r *http.Request) (model.Mode, bool) {
	mode, err := model.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return mode, true
}

// Top handles GET /api/v1/leaderboard?mode=countries&limit=10.
func (h *LeaderboardHandler) Top(w http.ResponseWriter, r *http.Request) {
	mode, ok := modeParam(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.mgr.Leaderboard(r.Context(), mode, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// Reset handles DELETE /api/v1/leaderboard?mode=countries.
func (h *LeaderboardHandler) Reset(w http.ResponseWriter, r *http.Request) {
	mode, ok := modeParam(w, r)
	if !ok {
		return
	}
	if err := h.mgr.ResetLeaderboard(r.Context(), mode); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
