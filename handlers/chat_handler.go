package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"bandchat/services"
)

type ChatHandler struct {
	chatSvc *services.ChatService
}

func NewChatHandler(c *services.ChatService) *ChatHandler {
	return &ChatHandler{chatSvc: c}
}

// Rooms lists the rooms the caller can open.
func (h *ChatHandler) Rooms(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	rooms, err := h.chatSvc.ListRooms(claims.UserID)
	if err != nil {
		respondWithError(w, "Internal error", "Failed to list rooms", http.StatusInternalServerError)
		return
	}
	respondWithSuccess(w, rooms)
}

func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"name"`
		IsPrivate bool   `json:"is_private"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, "Invalid JSON", "Bad request format", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		respondWithError(w, "Missing name", "Room name is required", http.StatusBadRequest)
		return
	}

	room, err := h.chatSvc.CreateRoom(req.Name, req.IsPrivate, claimsFrom(r.Context()).UserID)
	if err != nil {
		respondWithServiceError(w, "Room creation failed", err)
		return
	}
	respondWithStatus(w, http.StatusCreated, room)
}

// AddParticipant invites user_id into a private room.
func (h *ChatHandler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	roomID, ok := roomParam(w, r)
	if !ok {
		return
	}
	var req struct {
		UserID int64 `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID <= 0 {
		respondWithError(w, "Invalid JSON", "user_id is required", http.StatusBadRequest)
		return
	}
	if err := h.chatSvc.AddParticipant(roomID, claimsFrom(r.Context()).UserID, req.UserID); err != nil {
		respondWithServiceError(w, "Invite failed", err)
		return
	}
	respondWithSuccess(w, map[string]int64{"room_id": roomID, "user_id": req.UserID})
}

func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	roomID, ok := roomParam(w, r)
	if !ok {
		return
	}
	if err := h.chatSvc.DeleteRoom(roomID, claimsFrom(r.Context()).UserID); err != nil {
		respondWithServiceError(w, "Delete failed", err)
		return
	}
	respondWithSuccess(w, map[string]int64{"room_id": roomID})
}

func roomParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	roomID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || roomID <= 0 {
		respondWithError(w, "Invalid parameter", "room id must be a positive number", http.StatusBadRequest)
		return 0, false
	}
	return roomID, true
}
