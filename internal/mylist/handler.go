package mylist

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/movieflix/backend/internal/middleware"
	"github.com/movieflix/backend/internal/models"
)

// Handler serves the /api/mylist endpoints.
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

// GET /api/mylist
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(w, r)
	if acc == nil {
		return
	}
	list, err := h.svc.List(r.Context(), acc.ID)
	if err != nil {
		h.log.Error("list my list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get my list")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(list), "myList": list})
}

type addRequest struct {
	MovieID    string `json:"movieId"`
	Title      string `json:"title"`
	PosterPath string `json:"posterPath"`
	MediaType  string `json:"mediaType"`
}

// POST /api/mylist
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
		writeError(w, http.StatusBadRequest, "movieId and title are required")
		return
	}
	e, err := h.svc.Add(r.Context(), acc.ID, AddInput{
		MovieID:    req.MovieID,
		Title:      req.Title,
		PosterPath: req.PosterPath,
		MediaType:  req.MediaType,
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyInList) {
			writeError(w, http.StatusConflict, "This item is already in your list")
			return
		}
		h.log.Error("add to my list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to add to my list")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Added to My List",
		"item":    e,
	})
}

// DELETE /api/mylist/{movieId}
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(w, r)
	if acc == nil {
		return
	}
	movieID := r.PathValue("movieId")
	if err := h.svc.Remove(r.Context(), acc.ID, movieID); err != nil {
		if errors.Is(err, ErrNotInList) {
			writeError(w, http.StatusNotFound, "This item is not in your list")
			return
		}
		h.log.Error("remove from my list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to remove from my list")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Removed from My List",
		"movieId": movieID,
	})
}

// GET /api/mylist/check/{movieId}
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(w, r)
	if acc == nil {
		return
	}
	movieID := r.PathValue("movieId")
	inList, err := h.svc.Contains(r.Context(), acc.ID, movieID)
	if err != nil {
		h.log.Error("check my list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to check my list")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"movieId":  movieID,
		"isInList": inList,
	})
}

// DELETE /api/mylist
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(w, r)
	if acc == nil {
		return
	}
	if err := h.svc.Clear(r.Context(), acc.ID); err != nil {
		h.log.Error("clear my list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to clear my list")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "My List cleared", "count": 0})
}
