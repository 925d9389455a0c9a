package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

// VerifyHandler records a user's confirmation of a match. Nothing is persisted.
type VerifyHandler struct {
	logger logrus.FieldLogger
}

// NewVerifyHandler creates a new verification handler.
func NewVerifyHandler(logger logrus.FieldLogger) *VerifyHandler {
	return &VerifyHandler{logger: logger}
}

type verifyRequest struct {
	ImageURL string `json:"image_url"`
	IsMatch  *bool  `json:"is_match"`
}

// Verify handles POST /verify-match.
func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	confirmation := "Not me"
	if req.IsMatch != nil && *req.IsMatch {
		confirmation = "This is me"
	}
	requestLogger(h.logger, r).WithFields(logrus.Fields{
		"url":          sanitizeForLog(req.ImageURL),
		"confirmation": confirmation,
	}).Info("Match verified")

	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"verified": req.IsMatch,
	})
}
