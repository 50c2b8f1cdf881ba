package handlers

import (
	"net/http"

	"storytime/internal/app"
	"storytime/internal/config"
	libraryService "storytime/internal/service/library"
)

type ModelsResponse struct {
	Models []config.Model `json:"models"`
}

// LibraryHandlers serves the sidebar listing and the model catalogue
type LibraryHandlers struct {
	config         *app.Config
	libraryService *libraryService.LibraryService
}

// NewLibraryHandlers creates a new LibraryHandlers
func NewLibraryHandlers(config *app.Config) *LibraryHandlers {
	return &LibraryHandlers{
		config:         config,
		libraryService: libraryService.NewLibraryService(config),
	}
}

// LibraryHandler returns all stories and adventures of the caller
func (h *LibraryHandlers) LibraryHandler(w http.ResponseWriter, r *http.Request) {
	lib, err := h.libraryService.Load(r.Context(), currentUser(r).ID)
	if err != nil {
		sendServiceError(w, r, "Error retrieving library", err)
		return
	}
	sendJSON(w, http.StatusOK, lib)
}

// GetModelsHandler returns the text models a request may choose from
func (h *LibraryHandlers) GetModelsHandler(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, ModelsResponse{Models: h.config.ModelsConfig().GetAvailableModels()})
}
