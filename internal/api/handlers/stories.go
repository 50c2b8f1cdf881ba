package handlers

import (
	"net/http"

	"storytime/internal/app"
	"storytime/internal/logger"
	storyService "storytime/internal/service/story"
	"storytime/pkg/validation"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type StoryRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
}

// StoryHandlers serves bedtime stories
type StoryHandlers struct {
	validator    *validation.StoryRequestValidator
	storyService *storyService.StoryService
}

// NewStoryHandlers creates a new StoryHandlers
func NewStoryHandlers(config *app.Config) *StoryHandlers {
	return &StoryHandlers{
		validator:    validation.NewStoryRequestValidator(),
		storyService: storyService.NewStoryService(config),
	}
}

// CreateStreamHandler is the SSE endpoint that writes a new story
func (h *StoryHandlers) CreateStreamHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req StoryRequest
	if err := decodeJSON(w, r, maxBodyBytes, &req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validator.ValidatePrompt(req.Prompt); err != nil {
		sendError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		sendError(w, http.StatusInternalServerError, "Streaming not supported", nil)
		return
	}

	logger.Log.WithFields(logrus.Fields{"user_id": user.ID, "prompt_length": len(req.Prompt)}).Info("Story stream request received")

	events, err := h.storyService.CreateStream(r.Context(), user.ID, req.Prompt, req.Model)
	if err != nil {
		sendServiceError(w, r, "Error generating story", err)
		return
	}

	streamEvents(w, flusher, events)
}

// ListHandler returns the caller's stories, newest first
func (h *StoryHandlers) ListHandler(w http.ResponseWriter, r *http.Request) {
	stories, err := h.storyService.List(r.Context(), currentUser(r).ID)
	if err != nil {
		sendServiceError(w, r, "Error retrieving stories", err)
		return
	}
	sendJSON(w, http.StatusOK, stories)
}

// GetHandler returns a single story
func (h *StoryHandlers) GetHandler(w http.ResponseWriter, r *http.Request) {
	story, err := h.storyService.Get(r.Context(), currentUser(r).ID, chi.URLParam(r, "id"))
	if err != nil {
		sendServiceError(w, r, "Error retrieving story", err)
		return
	}
	sendJSON(w, http.StatusOK, story)
}

// DeleteHandler removes a story
func (h *StoryHandlers) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.storyService.Delete(r.Context(), currentUser(r).ID, chi.URLParam(r, "id")); err != nil {
		sendServiceError(w, r, "Error deleting story", err)
		return
	}
	sendJSON(w, http.StatusOK, DeleteResponse{Success: true, Message: "Story deleted"})
}

// VideoStreamHandler is the SSE endpoint that animates a story
func (h *StoryHandlers) VideoStreamHandler(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		sendError(w, http.StatusInternalServerError, "Streaming not supported", nil)
		return
	}

	events, err := h.storyService.CreateVideo(r.Context(), currentUser(r).ID, chi.URLParam(r, "id"))
	if err != nil {
		sendServiceError(w, r, "Error generating video", err)
		return
	}

	streamEvents(w, flusher, events)
}
