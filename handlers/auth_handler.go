package handlers

import (
	"encoding/json"
	"net/http"

	"bandchat/services"
)

type AuthHandler struct {
	svc *services.AuthService
}

func NewAuthHandler(s *services.AuthService) *AuthHandler { return &AuthHandler{svc: s} }

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, "Invalid JSON", "Bad request format", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		respondWithError(w, "Missing fields", "Username and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.svc.Register(req.Username, req.Password)
	if err != nil {
		respondWithServiceError(w, "Registration failed", err)
		return
	}

	token, err := h.svc.CreateToken(user.ID, user.Username)
	if err != nil {
		respondWithError(w, "Token creation failed", "Could not create authentication token", http.StatusInternalServerError)
		return
	}

	respondWithStatus(w, http.StatusCreated, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, "Invalid JSON", "Bad request format", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		respondWithError(w, "Missing fields", "Username and password are required", http.StatusBadRequest)
		return
	}

	token, user, err := h.svc.Login(req.Username, req.Password)
	if err != nil {
		respondWithError(w, "Authentication failed", err.Error(), http.StatusUnauthorized)
		return
	}

	respondWithSuccess(w, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}
