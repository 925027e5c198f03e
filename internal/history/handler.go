package history

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/movieflix/backend/internal/middleware"
	"github.com/movieflix/backend/internal/models"
)

// Handler serves the /api/watch-history endpoints.
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

func accountFrom(w http.ResponseWriter, r *http.Request) *models.Account {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
	}
	return acc
}

// GET /api/watch-history
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(w, r)
	if acc == nil {
		return
	}
	list, err := h.svc.List(r.Context(), acc.ID)
	if err != nil {
		h.log.Error("list watch history failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Error fetching watch history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"watchHistory": list,
		"total":        len(list),
	})
}

type addRequest struct {
	MovieID     string   `json:"movieId"`
	Title       string   `json:"title"`
	PosterPath  string   `json:"posterPath"`
	Genres      []string `json:"genres"`
	Duration    int      `json:"duration"`
	VoteAverage *float64 `json:"voteAverage"`
}

// POST /api/watch-history
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(w, r)
	if acc == nil {
		return
	}
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.MovieID == "" || req.Title == "" {
		writeError(w, http.StatusBadRequest, "Movie ID and title are required")
		return
	}
	list, err := h.svc.Add(r.Context(), acc.ID, AddInput{
		MovieID:     req.MovieID,
		Title:       req.Title,
		PosterPath:  req.PosterPath,
		Genres:      req.Genres,
		Duration:    req.Duration,
		VoteAverage: req.VoteAverage,
	})
	if err != nil {
		h.log.Error("add watch history failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Error adding to watch history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"message":      "Added to watch history",
		"watchHistory": list,
		"total":        len(list),
	})
}

// DELETE /api/watch-history
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(w, r)
	if acc == nil {
		return
	}
	if err := h.svc.Clear(r.Context(), acc.ID); err != nil {
		h.log.Error("clear watch history failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Error clearing watch history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"message":      "Watch history cleared successfully",
		"watchHistory": []models.AccountHistoryEntry{},
		"total":        0,
	})
}

// GET /api/watch-history/user/{id} (admin)
func (h *Handler) ForAccount(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	list, err := h.svc.List(r.Context(), id)
	if err != nil {
		h.log.Error("list watch history failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Error fetching watch history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"watchHistory": list,
		"total":        len(list),
	})
}
