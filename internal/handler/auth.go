package handler

import (
	"net/http"

	"github.com/Dan9191/expense-service/internal/models"
)

type authResponse struct {
	Message string             `json:"message"`
	Token   string             `json:"token"`
	User    models.UserSummary `json:"user"`
}

type userResponse struct {
	Message string       `json:"message,omitempty"`
	User    *models.User `json:"user"`
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.auth.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Message: "User created successfully", Token: res.Token, User: res.User})
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Message: "Login successful", Token: res.Token, User: res.User})
}

// GetProfile returns the authenticated user
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.auth.Profile(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: user})
}

// UpdateProfile changes the authenticated user's name and email
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req profileRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.auth.UpdateProfile(r.Context(), userID, req.Name, req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{Message: "Profile updated", User: user})
}
