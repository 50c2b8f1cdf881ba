package handlers

import (
	"net/http"

	"storytime/internal/app"
	"storytime/internal/logger"
	imageService "storytime/internal/service/image"
	transcribeService "storytime/internal/service/transcribe"
	"storytime/pkg/validation"
)

type ColoringRequest struct {
	Prompt string `json:"prompt"`
}

type ImageResponse struct {
	URL string `json:"url"`
}

type TranscribeRequest struct {
	Audio string `json:"audio"`
}

type TranscribeResponse struct {
	Text string `json:"text"`
}

// MediaHandlers serves coloring pages and voice transcription
type MediaHandlers struct {
	validator         *validation.StoryRequestValidator
	imageService      *imageService.ImageService
	transcribeService *transcribeService.TranscribeService
}

// NewMediaHandlers creates a new MediaHandlers
func NewMediaHandlers(config *app.Config) *MediaHandlers {
	return &MediaHandlers{
		validator:         validation.NewStoryRequestValidator(),
		imageService:      imageService.NewImageService(config),
		transcribeService: transcribeService.NewTranscribeService(config),
	}
}

// ColoringHandler draws a coloring page and returns its URL
func (h *MediaHandlers) ColoringHandler(w http.ResponseWriter, r *http.Request) {
	var req ColoringRequest
	if err := decodeJSON(w, r, maxBodyBytes, &req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validator.ValidatePrompt(req.Prompt); err != nil {
		sendError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	logger.Log.WithField("user_id", currentUser(r).ID).Info("Coloring page request received")

	picture, err := h.imageService.ColoringPage(r.Context(), req.Prompt)
	if err != nil {
		sendServiceError(w, r, "Error generating coloring page", err)
		return
	}
	sendJSON(w, http.StatusOK, ImageResponse{URL: picture.URL})
}

// TranscribeHandler converts a base64 recording into text
func (h *MediaHandlers) TranscribeHandler(w http.ResponseWriter, r *http.Request) {
	var req TranscribeRequest
	if err := decodeJSON(w, r, validation.MaxAudioLength+maxBodyBytes, &req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := validation.ValidateAudio(req.Audio); err != nil {
		sendError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	text, err := h.transcribeService.Transcribe(r.Context(), req.Audio)
	if err != nil {
		sendServiceError(w, r, "Error transcribing audio", err)
		return
	}
	sendJSON(w, http.StatusOK, TranscribeResponse{Text: text})
}
