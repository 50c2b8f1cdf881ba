package handlers

import (
	"net/http"

	"storytime/internal/app"
	"storytime/internal/logger"
	adventureService "storytime/internal/service/adventure"
	"storytime/internal/service/prompts"
	"storytime/pkg/validation"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type AdventureRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
}

type ChoiceRequest struct {
	Choice     string `json:"choice"`
	ChoiceType string `json:"choiceType,omitempty"`
	Model      string `json:"model,omitempty"`
}

// AdventureHandlers serves choose your own adventure stories
type AdventureHandlers struct {
	validator        *validation.StoryRequestValidator
	adventureService *adventureService.AdventureService
}

// NewAdventureHandlers creates a new AdventureHandlers
func NewAdventureHandlers(config *app.Config) *AdventureHandlers {
	return &AdventureHandlers{
		validator:        validation.NewStoryRequestValidator(),
		adventureService: adventureService.NewAdventureService(config),
	}
}

// StartStreamHandler is the SSE endpoint that begins an adventure
func (h *AdventureHandlers) StartStreamHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req AdventureRequest
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

	logger.Log.WithField("user_id", user.ID).Info("Adventure start request received")

	events, err := h.adventureService.Start(r.Context(), user.ID, req.Prompt, req.Model)
	if err != nil {
		sendServiceError(w, r, "Error starting adventure", err)
		return
	}

	streamEvents(w, flusher, events)
}

// ContinueStreamHandler is the SSE endpoint that applies the reader's choice
func (h *AdventureHandlers) ContinueStreamHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	adventureID := chi.URLParam(r, "id")

	var req ChoiceRequest
	if err := decodeJSON(w, r, maxBodyBytes, &req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validator.ValidateChoice(req.Choice, req.ChoiceType); err != nil {
		sendError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}
	if req.ChoiceType == "" {
		req.ChoiceType = prompts.ChoiceTypeStory
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		sendError(w, http.StatusInternalServerError, "Streaming not supported", nil)
		return
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":      user.ID,
		"adventure_id": adventureID,
		"choice_type":  req.ChoiceType,
	}).Info("Adventure choice received")

	events, err := h.adventureService.Continue(r.Context(), adventureService.ContinueRequest{
		UserID:      user.ID,
		AdventureID: adventureID,
		Choice:      req.Choice,
		ChoiceType:  req.ChoiceType,
		Model:       req.Model,
	})
	if err != nil {
		sendServiceError(w, r, "Error continuing adventure", err)
		return
	}

	streamEvents(w, flusher, events)
}

// ListHandler returns the caller's adventures, newest first
func (h *AdventureHandlers) ListHandler(w http.ResponseWriter, r *http.Request) {
	adventures, err := h.adventureService.List(r.Context(), currentUser(r).ID)
	if err != nil {
		sendServiceError(w, r, "Error retrieving adventures", err)
		return
	}
	sendJSON(w, http.StatusOK, adventures)
}

// GetHandler returns an adventure with its segments
func (h *AdventureHandlers) GetHandler(w http.ResponseWriter, r *http.Request) {
	adventure, err := h.adventureService.Get(r.Context(), currentUser(r).ID, chi.URLParam(r, "id"))
	if err != nil {
		sendServiceError(w, r, "Error retrieving adventure", err)
		return
	}
	sendJSON(w, http.StatusOK, adventure)
}

// DeleteHandler removes an adventure
func (h *AdventureHandlers) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.adventureService.Delete(r.Context(), currentUser(r).ID, chi.URLParam(r, "id")); err != nil {
		sendServiceError(w, r, "Error deleting adventure", err)
		return
	}
	sendJSON(w, http.StatusOK, DeleteResponse{Success: true, Message: "Adventure deleted"})
}
