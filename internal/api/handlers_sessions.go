package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/back-sos/sos-bdd/internal/denuncia"
	"github.com/back-sos/sos-bdd/pkg/twincore"
)

type createSessionRequest struct {
	UserID string `json:"user_id"`
}

type sessionResponse struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}

// CreateSession handles POST /api/sessions. Any user id is accepted; an
// empty body or user id gets a generated one.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		twincore.Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.UserID == "" {
		req.UserID = denuncia.NewUserData("").ID
	}

	token, err := h.tokens.Issue(req.UserID)
	if err != nil {
		twincore.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	twincore.JSON(w, http.StatusCreated, sessionResponse{UserID: req.UserID, Token: token})
}
