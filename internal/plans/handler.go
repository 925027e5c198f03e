package plans

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/movieflix/backend/internal/models"
)

var validate = validator.New()

// Handler serves the /api/plans endpoints. Reads are public; writes sit
// behind the admin middleware.
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
		writeError(w, http.StatusNotFound, "Plan not found")
	case errors.Is(err, ErrNameTaken):
		writeError(w, http.StatusConflict, "A plan with this name already exists")
	default:
		h.log.Error("plan operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// GET /api/plans
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []*models.Plan{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(list), "plans": list})
}

// GET /api/plans/{name}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetByName(r.Context(), r.PathValue("name"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "plan": p})
}

type createPlanRequest struct {
	Name        string           `json:"name" validate:"required,oneof=basic standard premium"`
	DisplayName string           `json:"displayName" validate:"required"`
	Price       models.PlanPrice `json:"price" validate:"required"`
	Features    []string         `json:"features"`
	Quality     string           `json:"quality" validate:"required"`
	Resolution  string           `json:"resolution" validate:"required"`
	Devices     string           `json:"devices" validate:"required"`
}

// POST /api/plans (admin)
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid plan data")
		return
	}
	p, err := h.svc.Create(r.Context(), CreateInput{
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Price:       req.Price,
		Features:    req.Features,
		Quality:     req.Quality,
		Resolution:  req.Resolution,
		Devices:     req.Devices,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Plan created successfully",
		"plan":    p,
	})
}

type updatePlanRequest struct {
	DisplayName *string           `json:"displayName"`
	Price       *models.PlanPrice `json:"price"`
	Features    []string          `json:"features"`
	Quality     *string           `json:"quality"`
	Resolution  *string           `json:"resolution"`
	Devices     *string           `json:"devices"`
}

// PUT /api/plans/{id} (admin)
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Plan not found")
		return
	}
	var req updatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	p, err := h.svc.Update(r.Context(), id, UpdateInput{
		DisplayName: req.DisplayName,
		Price:       req.Price,
		Features:    req.Features,
		Quality:     req.Quality,
		Resolution:  req.Resolution,
		Devices:     req.Devices,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Plan updated successfully",
		"plan":    p,
	})
}

// DELETE /api/plans/{id} (admin)
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Plan not found")
		return
	}
	if err := h.svc.Deactivate(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Plan deleted successfully"})
}
