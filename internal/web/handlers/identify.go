package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/kozaktomas/facetag/internal/constants"
	"github.com/kozaktomas/facetag/internal/pipeline"
	"github.com/kozaktomas/facetag/internal/session"
	"github.com/kozaktomas/facetag/internal/web/middleware"
)

// Runner renders an upload, replacing the previous display state.
type Runner interface {
	Run(ctx context.Context, prev session.State, upload *pipeline.Upload) (session.State, pipeline.Result, error)
}

// IdentifyHandler handles photo uploads.
type IdentifyHandler struct {
	pipeline Runner
}

// NewIdentifyHandler creates a new identify handler.
func NewIdentifyHandler(p Runner) *IdentifyHandler {
	return &IdentifyHandler{pipeline: p}
}

// readUpload returns the uploaded file, or nil when the form carries none.
func readUpload(r *http.Request) (*pipeline.Upload, error) {
	file, header, err := r.FormFile(constants.UploadFieldName)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &pipeline.Upload{Name: header.Filename, Data: data}, nil
}

// Identify runs the uploaded photo through detection and matching. Only the
// most recent upload of a session is rendered; older ones get 409.
func (h *IdentifyHandler) Identify(w http.ResponseWriter, r *http.Request) {
	sess := middleware.MustGetSession(r.Context(), w)
	if sess == nil {
		return
	}

	var upload *pipeline.Upload
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	err := r.ParseMultipartForm(constants.MaxUploadSize)
	switch {
	case errors.Is(err, http.ErrNotMultipart):
		// A bare request without a form counts as "no file selected".
	case err != nil:
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	default:
		defer r.MultipartForm.RemoveAll()
		upload, err = readUpload(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, "failed to read uploaded file")
			return
		}
	}

	ticket := sess.Begin()
	state, result, err := h.pipeline.Run(r.Context(), sess.State(), upload)
	if !sess.Commit(ticket, state) {
		respondError(w, http.StatusConflict, session.ErrStale.Error())
		return
	}

	switch {
	case errors.Is(err, pipeline.ErrInvalidImage):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Printf("Identify failed for %s: %v", sanitizeForLog(upload.Name), err)
		respondError(w, http.StatusInternalServerError, "face detection failed")
		return
	}

	if result.Status == pipeline.StatusNoFile {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
