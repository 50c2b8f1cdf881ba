package handlers

import (
	"net/http"

	"storytime/internal/app"
	instructionService "storytime/internal/service/instruction"
	"storytime/pkg/validation"
)

type InstructionRequest struct {
	Text      string `json:"text"`
	ImageText string `json:"imageText"`
}

// InstructionHandlers serves the caller's saved guidance
type InstructionHandlers struct {
	validator          *validation.InstructionRequestValidator
	instructionService *instructionService.InstructionService
}

// NewInstructionHandlers creates a new InstructionHandlers
func NewInstructionHandlers(config *app.Config) *InstructionHandlers {
	return &InstructionHandlers{
		validator:          validation.NewInstructionRequestValidator(),
		instructionService: instructionService.NewInstructionService(config.DB),
	}
}

// GetHandler returns the instruction, or null when none is saved
func (h *InstructionHandlers) GetHandler(w http.ResponseWriter, r *http.Request) {
	in, err := h.instructionService.Get(r.Context(), currentUser(r).ID)
	if err != nil {
		sendServiceError(w, r, "Error retrieving instruction", err)
		return
	}
	sendJSON(w, http.StatusOK, in)
}

// UpsertHandler saves the instruction
func (h *InstructionHandlers) UpsertHandler(w http.ResponseWriter, r *http.Request) {
	var req InstructionRequest
	if err := decodeJSON(w, r, maxBodyBytes, &req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validator.ValidateInstructionRequest(req.Text, req.ImageText); err != nil {
		sendError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	in, err := h.instructionService.Upsert(r.Context(), currentUser(r).ID, req.Text, req.ImageText)
	if err != nil {
		sendServiceError(w, r, "Error saving instruction", err)
		return
	}
	sendJSON(w, http.StatusOK, in)
}

// DeleteHandler removes the instruction
func (h *InstructionHandlers) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.instructionService.Delete(r.Context(), currentUser(r).ID); err != nil {
		sendServiceError(w, r, "Error deleting instruction", err)
		return
	}
	sendJSON(w, http.StatusOK, DeleteResponse{Success: true, Message: "Instruction deleted"})
}
