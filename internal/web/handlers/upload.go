package handlers

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kozaktomas/reclaim/internal/config"
	"github.com/kozaktomas/reclaim/internal/constants"
	"github.com/kozaktomas/reclaim/internal/facematch"
	"github.com/kozaktomas/reclaim/internal/search"
	"github.com/kozaktomas/reclaim/internal/workspace"
	"github.com/sirupsen/logrus"
)

const (
	errNoFile          = "No file provided"
	errNoFileSelected  = "No file selected"
	errFileType        = "File type not allowed"
	errNoSearchTerms   = "Please provide search terms (name, username, etc.)"
	errNoFaceDetected  = "No face detected in image"
	errFileTooLarge    = "File too large"
	errInvalidImage    = "Uploaded file is not a readable image"
	msgNoCandidates    = "No images found for those search terms. Try different terms."
	uploadWorkspaceTag = "upload"
)

// Matcher runs the search and match pipeline for one reference embedding.
type Matcher interface {
	Run(ctx context.Context, reference facematch.FaceEmbedding, searchTerms string) (*facematch.PipelineResult, error)
}

// UploadHandler accepts a reference photo with search terms and returns matching images.
type UploadHandler struct {
	config     *config.Config
	workspaces *workspace.Manager
	extractor  facematch.Extractor
	matcher    Matcher
	logger     logrus.FieldLogger
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(cfg *config.Config, ws *workspace.Manager, x facematch.Extractor, m Matcher, logger logrus.FieldLogger) *UploadHandler {
	return &UploadHandler{
		config:     cfg,
		workspaces: ws,
		extractor:  x,
		matcher:    m,
		logger:     logger,
	}
}

// allowedFile reports whether the file name carries an accepted image extension.
func allowedFile(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	return ext != "" && slices.Contains(constants.AllowedUploadExtensions, ext)
}

// Upload handles POST /upload.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.logger, r)

	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusBadRequest, errFileTooLarge)
			return
		}
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		// A part without a file name is parsed as a plain value.
		if _, ok := r.MultipartForm.Value["file"]; ok {
			respondError(w, http.StatusBadRequest, errNoFileSelected)
			return
		}
		respondError(w, http.StatusBadRequest, errNoFile)
		return
	}
	defer file.Close()

	if strings.TrimSpace(header.Filename) == "" {
		respondError(w, http.StatusBadRequest, errNoFileSelected)
		return
	}
	if !allowedFile(header.Filename) {
		respondError(w, http.StatusBadRequest, errFileType)
		return
	}

	searchTerms := strings.TrimSpace(r.FormValue("search_terms"))
	if searchTerms == "" {
		respondError(w, http.StatusBadRequest, errNoSearchTerms)
		return
	}

	ws, err := h.workspaces.Acquire(uploadWorkspaceTag)
	if err != nil {
		log.WithError(err).Error("Failed to acquire workspace")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer func() {
		if err := ws.Release(); err != nil {
			log.WithError(err).Warn("Failed to release workspace")
		}
	}()

	path, err := ws.Save(header.Filename, file, constants.MaxUploadSize)
	if err != nil {
		log.WithError(err).Error("Failed to save upload")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	uploaded := filepath.Base(path)

	log = log.WithFields(logrus.Fields{
		"file":         sanitizeForLog(uploaded),
		"search_terms": sanitizeForLog(searchTerms),
	})
	log.Info("Upload received")

	data, err := os.ReadFile(path) //nolint:gosec // path is inside the request workspace
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	reference, err := h.extractor.ExtractEmbedding(r.Context(), data)
	if err != nil {
		if errors.Is(err, facematch.ErrNoFace) {
			log.Info("No face detected in reference photo")
			respondError(w, http.StatusBadRequest, errNoFaceDetected)
			return
		}
		if errors.Is(err, facematch.ErrInvalidImage) {
			respondError(w, http.StatusBadRequest, errInvalidImage)
			return
		}
		log.WithError(err).Error("Failed to extract reference embedding")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	ctx := r.Context()
	if timeout := h.config.Match.PipelineTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := h.matcher.Run(ctx, reference, searchTerms)
	if err != nil {
		if errors.Is(err, search.ErrEmptyTerm) {
			respondError(w, http.StatusBadRequest, errNoSearchTerms)
			return
		}
		log.WithError(err).Error("Match pipeline failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	matches := result.Matches
	if matches == nil {
		matches = []facematch.MatchResult{}
	}
	resp := map[string]any{
		"status":        "success",
		"matches":       matches,
		"count":         len(matches),
		"uploaded_file": uploaded,
		"search_terms":  searchTerms,
	}
	if result.Candidates == 0 {
		resp["message"] = msgNoCandidates
	}
	respondJSON(w, http.StatusOK, resp)
}
