package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"bandchat/metrics"
	"bandchat/services"
)

type MessageHandler struct {
	svc *services.MessageService
}

func NewMessageHandler(s *services.MessageService) *MessageHandler {
	return &MessageHandler{svc: s}
}

// ListMessages serves one page newest-first. Without before it is the
// latest page, with before=<id> the page strictly older than id.
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	roomID, ok := roomParam(w, r)
	if !ok {
		return
	}
	claims := claimsFrom(r.Context())
	q := r.URL.Query()

	viewerID := strconv.FormatInt(claims.UserID, 10)
	if v := q.Get("viewerId"); v != "" && v != viewerID {
		respondWithError(w, "Forbidden", "viewerId does not match the authenticated user", http.StatusForbidden)
		return
	}

	limit := 0
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			respondWithError(w, "Invalid parameter", "limit must be a non-negative number", http.StatusBadRequest)
			return
		}
		limit = n
	}
	var before int64
	direction := "latest"
	if s := q.Get("before"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n <= 0 {
			respondWithError(w, "Invalid parameter", "before must be a positive message id", http.StatusBadRequest)
			return
		}
		before, direction = n, "older"
	}

	msgs, err := h.svc.List(roomID, claims.UserID, viewerID, before, limit)
	if err != nil {
		respondWithServiceError(w, "Failed to fetch messages", err)
		return
	}
	metrics.PagesServed.WithLabelValues(direction).Inc()
	respondWithSuccess(w, msgs)
}

func (h *MessageHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	roomID, ok := roomParam(w, r)
	if !ok {
		return
	}
	var req services.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, "Invalid JSON", "Bad request format", http.StatusBadRequest)
		return
	}

	msg, err := h.svc.Send(roomID, claimsFrom(r.Context()).UserID, req)
	if err != nil {
		if errors.Is(err, services.ErrRateLimited) {
			metrics.RateLimitHits.WithLabelValues("messages").Inc()
		}
		respondWithServiceError(w, "Send failed", err)
		return
	}
	metrics.MessagesPosted.WithLabelValues(string(msg.Kind)).Inc()
	respondWithStatus(w, http.StatusCreated, msg)
}
