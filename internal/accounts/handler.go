package accounts

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/movieflix/backend/internal/middleware"
	"github.com/movieflix/backend/internal/models"
)

var validate = validator.New()

// Handler serves the /api/users endpoints.
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
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, ErrPermanentAdmin):
		writeError(w, http.StatusForbidden, "Cannot modify permanent admin account")
	case errors.Is(err, ErrInvalidRole):
		writeError(w, http.StatusBadRequest, "Invalid role")
	case errors.Is(err, ErrTrialActive):
		writeError(w, http.StatusBadRequest, "Trial is already active")
	case errors.Is(err, ErrConflict):
		writeError(w, http.StatusConflict, "Account already exists")
	default:
		h.log.Error("account operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func accountFrom(w http.ResponseWriter, r *http.Request) *models.Account {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
	}
	return acc
}

// GET /api/users/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(w, r)
	if acc == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": acc})
}

type updateMeRequest struct {
	DisplayName *string `json:"displayName" validate:"omitempty,min=1,max=100"`
	PhotoURL    *string `json:"photoURL" validate:"omitempty,url"`
}

// PUT /api/users/me
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(w, r)
	if acc == nil {
		return
	}
	var req updateMeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid input data")
		return
	}
	if req.DisplayName != nil {
		acc.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.PhotoURL != nil {
		acc.PhotoURL = req.PhotoURL
	}
	if err := h.svc.Update(r.Context(), acc); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Profile updated successfully",
		"user":    acc,
	})
}

type subscriptionRequest struct {
	Plan         *string    `json:"plan" validate:"omitempty,oneof=basic standard premium mobile trial none"`
	Status       *string    `json:"status" validate:"omitempty,oneof=active inactive cancelled expired trial none"`
	BillingCycle *string    `json:"billingCycle" validate:"omitempty,oneof=monthly yearly"`
	StartDate    *time.Time `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
}

// PUT /api/users/me/subscription
func (h *Handler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(w, r)
	if acc == nil {
		return
	}
	var req subscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid subscription data")
		return
	}
	err := h.svc.UpdateSubscription(r.Context(), acc, SubscriptionUpdate{
		Plan:         req.Plan,
		Status:       req.Status,
		BillingCycle: req.BillingCycle,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"message":      "Subscription updated successfully",
		"subscription": acc.Subscription,
	})
}

// POST /api/users/me/trial
func (h *Handler) StartTrial(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(w, r)
	if acc == nil {
		return
	}
	if err := h.svc.StartTrial(r.Context(), acc); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"message":      "Free trial started",
		"subscription": acc.Subscription,
	})
}

// POST /api/users/me/subscription/cancel
func (h *Handler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(w, r)
	if acc == nil {
		return
	}
	if err := h.svc.CancelSubscription(r.Context(), acc); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"message":      "Subscription cancelled",
		"subscription": acc.Subscription,
	})
}

// GET /api/users (admin)
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	page, limit := pageParams(r)
	users, total, err := h.svc.List(r.Context(), role, limit, (page-1)*limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse(users, total, page, limit))
}

// GET /api/users/search?q= (admin)
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "Search query is required")
		return
	}
	page, limit := pageParams(r)
	users, total, err := h.svc.Search(r.Context(), q, limit, (page-1)*limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse(users, total, page, limit))
}

// GET /api/users/{id} (admin)
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := accountIDFrom(w, r)
	if !ok {
		return
	}
	acc, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": acc})
}

type roleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin moderator"`
}

// PUT /api/users/{id}/role (admin)
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := accountIDFrom(w, r)
	if !ok {
		return
	}
	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Role must be one of: user, admin, moderator")
		return
	}
	acc, err := h.svc.UpdateRole(r.Context(), id, req.Role)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "User role updated",
		"user":    acc,
	})
}

// DELETE /api/users/{id} (admin)
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := accountIDFrom(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteAccount(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "User deleted successfully"})
}

func accountIDFrom(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return uuid.Nil, false
	}
	return id, true
}

func pageParams(r *http.Request) (int, int) {
	page, limit := 1, 20
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	return page, limit
}

func listResponse(users []*models.Account, total, page, limit int) map[string]any {
	if users == nil {
		users = []*models.Account{}
	}
	totalPages := (total + limit - 1) / limit
	return map[string]any{
		"success": true,
		"count":   len(users),
		"users":   users,
		"pagination": map[string]any{
			"currentPage":  page,
			"totalPages":   totalPages,
			"totalItems":   total,
			"itemsPerPage": limit,
		},
	}
}
