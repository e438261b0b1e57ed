package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

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

func (h *JSONHandler) Book(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		TherapistID uint      `json:"therapist_id"`
		ScheduledAt time.Time `json:"scheduled_at"`
		Notes       string    `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	appointment, err := h.service.Book(r.Context(), userID, req.TherapistID, req.ScheduledAt, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, infrastructure.ErrValidation), errors.Is(err, ErrNotTherapist):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, infrastructure.ErrUserNotFound):
			http.Error(w, "Therapist not found", http.StatusNotFound)
		default:
			http.Error(w, "Failed to book appointment", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(appointment)
}

func (h *JSONHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, (*Service).Confirm)
}

func (h *JSONHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, (*Service).Cancel)
}

func (h *JSONHandler) transition(w http.ResponseWriter, r *http.Request, op func(*Service, context.Context, uint, uint) error) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	appointmentID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || appointmentID == 0 {
		http.Error(w, "Invalid appointment id", http.StatusBadRequest)
		return
	}

	if err := op(h.service, r.Context(), uint(appointmentID), userID); err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			http.Error(w, "Appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to update appointment", http.StatusInternalServerError)
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
		http.Error(w, "Failed to list appointments", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Data []database.Appointment `json:"data"`
	}{Data: list})
}

func (h *JSONHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	list, err := h.service.Notifications(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to list notifications", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Data []database.Notification `json:"data"`
	}{Data: list})
}

func (h *JSONHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	notificationID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || notificationID == 0 {
		http.Error(w, "Invalid notification id", http.StatusBadRequest)
		return
	}

	if err := h.service.MarkNotificationRead(r.Context(), uint(notificationID), userID); err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			http.Error(w, "Notification not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to mark notification read", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *JSONHandler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.service.MarkAllNotificationsRead(r.Context(), userID); err != nil {
		http.Error(w, "Failed to mark notifications read", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *JSONHandler) UnreadNotificationCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	count, err := h.service.UnreadNotificationCount(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to count unread notifications", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Count int64 `json:"count"`
	}{Count: count})
}
