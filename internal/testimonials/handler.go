package testimonials

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/movieflix/backend/internal/models"
)

// Handler serves the /api/testimonials endpoints.
type Handler struct {
	svc *Service
	log *slog.Logger
}

func NewHandler(svc *Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "Testimonial not found")
	case errors.Is(err, ErrMissingFields):
		writeError(w, http.StatusBadRequest, "Name, rating, and review text are required")
	case errors.Is(err, ErrInvalidRating):
		writeError(w, http.StatusBadRequest, "Rating must be between 1 and 5")
	case errors.Is(err, ErrTextTooLong):
		writeError(w, http.StatusBadRequest, "Review text must be less than 500 characters")
	default:
		h.log.Error("testimonial operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// GET /api/testimonials (public)
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListApproved(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []*models.Testimonial{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(list), "testimonials": list})
}

type submitRequest struct {
	Name   string `json:"name"`
	Role   string `json:"role"`
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

// POST /api/testimonials (public)
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	t, err := h.svc.Submit(r.Context(), req.Name, req.Role, req.Rating, req.Text)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Thank you! Your review has been submitted.",
		"testimonial": map[string]any{
			"id":        t.ID,
			"name":      t.Name,
			"createdAt": t.CreatedAt,
		},
	})
}

// GET /api/testimonials/all (admin)
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListAll(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []*models.Testimonial{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(list), "testimonials": list})
}

// PUT /api/testimonials/{id}/approve (admin)
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Testimonial not found")
		return
	}
	t, err := h.svc.Approve(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     "Testimonial approved successfully",
		"testimonial": t,
	})
}

// DELETE /api/testimonials/{id} (admin)
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Testimonial not found")
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Testimonial deleted successfully"})
}
