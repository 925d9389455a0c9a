package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/kozaktomas/reclaim/internal/report"
	"github.com/sirupsen/logrus"
)

const errNoImageURL = "No image URL provided"

// ReportHandler builds removal links and action plans for matched images.
type ReportHandler struct {
	builder *report.Builder
	logger  logrus.FieldLogger
}

// NewReportHandler creates a new report handler.
func NewReportHandler(b *report.Builder, logger logrus.FieldLogger) *ReportHandler {
	return &ReportHandler{builder: b, logger: logger}
}

type reportRequest struct {
	ImageURL  string `json:"image_url"`
	ImageHash string `json:"image_hash"`
}

// Report handles POST /report.
func (h *ReportHandler) Report(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if strings.TrimSpace(req.ImageURL) == "" {
		respondError(w, http.StatusBadRequest, errNoImageURL)
		return
	}

	plan, err := h.builder.Build(req.ImageURL, req.ImageHash)
	if err != nil {
		if errors.Is(err, report.ErrEmptyLocator) {
			respondError(w, http.StatusBadRequest, errNoImageURL)
			return
		}
		requestLogger(h.logger, r).WithError(err).Error("Failed to build action plan")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	requestLogger(h.logger, r).WithField("url", sanitizeForLog(req.ImageURL)).Info("Report generated")
	respondJSON(w, http.StatusOK, map[string]any{
		"status":      "success",
		"report_link": report.ReportLink(req.ImageURL),
		"action_plan": plan,
	})
}
