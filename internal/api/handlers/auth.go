package handlers

import (
	"net/http"

	"storytime/internal/app"
	"storytime/internal/repository/db"
	accountService "storytime/internal/service/account"
	"storytime/pkg/validation"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string   `json:"token"`
	User  *db.User `json:"user"`
}

// AuthHandlers serves registration, login and the current profile
type AuthHandlers struct {
	validator      *validation.AuthRequestValidator
	accountService *accountService.AccountService
}

// NewAuthHandlers creates a new AuthHandlers
func NewAuthHandlers(config *app.Config) *AuthHandlers {
	return &AuthHandlers{
		validator:      validation.NewAuthRequestValidator(),
		accountService: accountService.NewAccountService(config),
	}
}

// RegisterHandler creates a new user account
func (h *AuthHandlers) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, maxBodyBytes, &req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.validator.ValidateRegisterRequest(req.Username, req.Email, req.Name, req.Password); err != nil {
		sendError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	session, err := h.accountService.Register(r.Context(), req.Username, req.Email, req.Name, req.Password)
	if err != nil {
		sendServiceError(w, r, "Error creating user", err)
		return
	}

	sendJSON(w, http.StatusCreated, AuthResponse{Token: session.Token, User: session.User})
}

// LoginHandler authenticates user and returns JWT token
func (h *AuthHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, maxBodyBytes, &req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.validator.ValidateLoginRequest(req.Username, req.Password); err != nil {
		sendError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	session, err := h.accountService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		sendServiceError(w, r, "Error logging in", err)
		return
	}

	sendJSON(w, http.StatusOK, AuthResponse{Token: session.Token, User: session.User})
}

// MeHandler returns the signed in user
func (h *AuthHandlers) MeHandler(w http.ResponseWriter, r *http.Request) {
	user, err := h.accountService.Me(r.Context(), currentUser(r).ID)
	if err != nil {
		sendServiceError(w, r, "Error retrieving user", err)
		return
	}
	sendJSON(w, http.StatusOK, user)
}
