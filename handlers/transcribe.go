package handlers

import (
	"context"
	"net/http"

	apperrors "github.com/nijaru/yt-stt/errors"
	"github.com/nijaru/yt-stt/middleware"
	"github.com/nijaru/yt-stt/models"
	"github.com/nijaru/yt-stt/utils"
	"github.com/nijaru/yt-stt/validation"
)

// Transcriber runs the whole pipeline for one request.
type Transcriber interface {
	Transcribe(ctx context.Context, req models.Request) (*models.Transcript, error)
}

// Limiter gates requests that passed validation.
type Limiter interface {
	Allow() bool
}

type TranscribeHandler struct {
	service         Transcriber
	defaultLanguage string
	limiter         Limiter
}

func NewTranscribeHandler(service Transcriber, defaultLanguage string, limiter Limiter) *TranscribeHandler {
	return &TranscribeHandler{service: service, defaultLanguage: defaultLanguage, limiter: limiter}
}

// ServeHTTP handles GET and POST with ?yt=<id or url>&lang=<code>.
func (h *TranscribeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "TranscribeHandler.ServeHTTP"
	logger := middleware.GetLogger(r.Context())

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		utils.RespondWithError(w, op, apperrors.MethodNotAllowed(op, r.Method))
		return
	}

	videoID := validation.NormalizeVideoID(r.URL.Query().Get("yt"))
	if videoID == "" {
		logger.Info("Request without video identifier")
		utils.RespondWithError(w, op, apperrors.MissingVideoID(op))
		return
	}

	// Rate limiting only spends tokens on requests that would run the pipeline.
	if h.limiter != nil && !h.limiter.Allow() {
		logger.Warn("Rate limit exceeded")
		utils.RespondWithError(w, op, apperrors.RateLimited(op))
		return
	}

	req := models.Request{
		RequestID: middleware.GetRequestID(r.Context()),
		VideoID:   videoID,
		Language:  validation.NormalizeLanguage(r.URL.Query().Get("lang"), h.defaultLanguage),
	}

	transcript, err := h.service.Transcribe(r.Context(), req)
	if err != nil {
		utils.RespondWithError(w, op, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, models.NewTranscriptResponse(transcript))
}
