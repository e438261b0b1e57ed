package therapists

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

func (h *JSONHandler) Register(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	profile, err := h.service.Register(r.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, infrastructure.ErrValidation):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrProfileExists), errors.Is(err, ErrLicenseInUse):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, "Failed to register therapist", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(struct {
		Message string                     `json:"message"`
		Profile *database.TherapistProfile `json:"profile"`
	}{Message: "Registered, pending verification", Profile: profile})
}

func (h *JSONHandler) List(w http.ResponseWriter, r *http.Request) {
	verified := true
	if v := r.URL.Query().Get("verified"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "Invalid verified filter", http.StatusBadRequest)
			return
		}
		verified = parsed
	}
	if !verified {
		if role, _ := auth.RoleFromContext(r.Context()); role != database.RoleAdmin {
			http.Error(w, "Admin access required", http.StatusForbidden)
			return
		}
	}

	listings, err := h.service.List(r.Context(), r.URL.Query().Get("specialization"), verified)
	if err != nil {
		http.Error(w, "Failed to list therapists", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Data []Listing `json:"data"`
	}{Data: listings})
}

func (h *JSONHandler) Get(w http.ResponseWriter, r *http.Request) {
	profileID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || profileID == 0 {
		http.Error(w, "Invalid therapist id", http.StatusBadRequest)
		return
	}

	listing, err := h.service.Get(r.Context(), uint(profileID))
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			http.Error(w, "Therapist not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load therapist", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(listing)
}

func (h *JSONHandler) MyProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	profile, err := h.service.MyProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			http.Error(w, "Therapist profile not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load therapist profile", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profile)
}

func (h *JSONHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	profile, err := h.service.Update(r.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, infrastructure.ErrValidation):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrProfileNotFound):
			http.Error(w, "Therapist profile not found", http.StatusNotFound)
		default:
			http.Error(w, "Failed to update therapist profile", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profile)
}

func (h *JSONHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if role, _ := auth.RoleFromContext(r.Context()); role != database.RoleAdmin {
		http.Error(w, "Admin access required", http.StatusForbidden)
		return
	}

	profileID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || profileID == 0 {
		http.Error(w, "Invalid therapist id", http.StatusBadRequest)
		return
	}

	if err := h.service.Verify(r.Context(), uint(profileID)); err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			http.Error(w, "Therapist not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to verify therapist", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
