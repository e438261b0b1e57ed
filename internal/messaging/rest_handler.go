// Package messaging exposes message history over REST: private threads,
// conversation listings and room scroll-back beyond the cached window.
package messaging

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"mindbridge/internal/auth"
	"mindbridge/internal/chat"
)

const defaultPageSize = 50

type JSONHandler struct {
	repo chat.Repository
}

func NewJSONHandler(repo chat.Repository) *JSONHandler {
	return &JSONHandler{repo: repo}
}

// PrivateMessages returns the thread with one other user, oldest first,
// and marks the fetched direction as read: fetching is the receiver's
// acknowledgment.
func (h *JSONHandler) PrivateMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	otherID, err := strconv.ParseUint(r.URL.Query().Get("other_user_id"), 10, 64)
	if err != nil || otherID == 0 {
		http.Error(w, "other_user_id is required", http.StatusBadRequest)
		return
	}
	limit, offset := pagination(r)

	messages, err := h.repo.PrivateMessages(r.Context(), userID, uint(otherID), limit, offset)
	if err != nil {
		http.Error(w, "Error fetching messages", http.StatusInternalServerError)
		return
	}

	if err := h.repo.MarkPrivateRead(r.Context(), userID, uint(otherID)); err != nil {
		log.Printf("Failed to mark messages read for user %d: %v", userID, err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Data []*chat.PrivateMessageRow `json:"data"`
	}{Data: messages})
}

func (h *JSONHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conversations, err := h.repo.Conversations(r.Context(), userID)
	if err != nil {
		http.Error(w, "Error fetching conversations", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Data []*chat.Conversation `json:"data"`
	}{Data: conversations})
}

func (h *JSONHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		SenderID uint `json:"sender_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SenderID == 0 {
		http.Error(w, "sender_id is required", http.StatusBadRequest)
		return
	}

	if err := h.repo.MarkPrivateRead(r.Context(), userID, req.SenderID); err != nil {
		http.Error(w, "Error marking messages as read", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *JSONHandler) RoomMessages(w http.ResponseWriter, r *http.Request) {
	roomID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || roomID == 0 {
		http.Error(w, "Invalid chat room id", http.StatusBadRequest)
		return
	}
	limit, offset := pagination(r)

	messages, err := h.repo.RoomMessages(r.Context(), uint(roomID), limit, offset)
	if err != nil {
		http.Error(w, "Error fetching messages", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Data []*chat.MessagePayload `json:"data"`
	}{Data: messages})
}

func pagination(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
