package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Mark-Phillipson/Risk/internal/auth"
	"github.com/Mark-Phillipson/Risk/internal/model"
	"github.com/Mark-Phillipson/Risk/internal/service"
)

// SessionHandler handles session lifecycle and tokens.
type SessionHandler struct {
	mgr    *service.SessionManager
	jwtMgr *auth.JWTManager
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(mgr *service.SessionManager, jwtMgr *auth.JWTManager) *SessionHandler {
	return &SessionHandler{mgr: mgr, jwtMgr: jwtMgr}
}

type createSessionRequest struct {
	Mode    model.Mode     `json:"mode"`
	Players []model.Player `json:"players"`
}

type createSessionResponse struct {
	Session model.Session   `json:"session"`
	Tokens  *auth.TokenPair `json:"tokens"`
}

// CreateSession handles POST /api/v1/sessions.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s, err := h.mgr.Create(r.Context(), req.Mode, req.Players)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	tokens, err := h.jwtMgr.GenerateTokenPair(s.ID)
	if err != nil {
		log.Error().Err(err).Str("sessionId", s.ID).Msg("Failed to issue session tokens")
		writeError(w, http.StatusInternalServerError, "failed to issue tokens")
		return
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{Session: s.Info(), Tokens: tokens})
}

// ListSessions handles GET /api/v1/sessions.
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.mgr.List())
}

// GetSession handles GET /api/v1/sessions/{id}.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.mgr.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Info())
}

// DeleteSession handles DELETE /api/v1/sessions/{id}.
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.mgr.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type playersRequest struct {
	Players []model.Player `json:"players"`
}

// SetPlayers handles PUT /api/v1/sessions/{id}/players.
func (h *SessionHandler) SetPlayers(w http.ResponseWriter, r *http.Request) {
	s, err := h.mgr.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req playersRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.SetPlayers(req.Players); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Info())
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshToken handles POST /auth/refresh. Tokens are only refreshed for
// sessions that are still live.
func (h *SessionHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	claims, err := h.jwtMgr.ValidateKind(req.RefreshToken, auth.KindRefresh)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	if _, err := h.mgr.Get(r.Context(), claims.SessionID); err != nil {
		writeServiceError(w, err)
		return
	}

	tokens, err := h.jwtMgr.GenerateTokenPair(claims.SessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue tokens")
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}
