package rooms

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"mindbridge/infrastructure"
	"mindbridge/internal/auth"
	"mindbridge/internal/database"
)

type JSONHandler struct {
	service *Service
}

func NewJSONHandler(service *Service) *JSONHandler {
	return &JSONHandler{service: service}
}

func (h *JSONHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	room, err := h.service.Create(r.Context(), req.Name, req.Description, userID)
	if err != nil {
		if errors.Is(err, infrastructure.ErrValidation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to create chat room", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(room)
}

func (h *JSONHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	roomID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || roomID == 0 {
		http.Error(w, "Invalid chat room id", http.StatusBadRequest)
		return
	}

	if err := h.service.AddMember(r.Context(), uint(roomID), userID); err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			http.Error(w, "Chat room not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to join chat room", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *JSONHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	roomID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || roomID == 0 {
		http.Error(w, "Invalid chat room id", http.StatusBadRequest)
		return
	}

	if err := h.service.RemoveMember(r.Context(), uint(roomID), userID); err != nil {
		http.Error(w, "Failed to leave chat room", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *JSONHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	list, err := h.service.List(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to list chat rooms", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Data []database.ChatRoom `json:"data"`
	}{Data: list})
}
