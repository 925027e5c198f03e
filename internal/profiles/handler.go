package profiles

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/movieflix/backend/internal/middleware"
	"github.com/movieflix/backend/internal/models"
)

var validate = validator.New()

// Handler serves the /api/profiles endpoints.
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

// writeServiceError maps domain errors onto the HTTP taxonomy.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var limitErr *LimitError
	switch {
	case errors.As(err, &limitErr):
		writeJSON(w, http.StatusForbidden, map[string]any{
			"success":      false,
			"message":      "You have reached the maximum limit of profiles for your plan",
			"currentCount": limitErr.Current,
			"maxAllowed":   limitErr.Max,
		})
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "Profile not found")
	case errors.Is(err, ErrNoActiveProfile):
		writeError(w, http.StatusNotFound, "No active profile found")
	case errors.Is(err, ErrNameTaken):
		writeError(w, http.StatusConflict, "A profile with this name already exists")
	case errors.Is(err, ErrLastProfile):
		writeError(w, http.StatusForbidden, "Cannot delete the last profile. You must have at least one profile.")
	case errors.Is(err, ErrInvalidName):
		writeError(w, http.StatusBadRequest, "Profile name must be 1-50 characters")
	case errors.Is(err, ErrInvalidPIN):
		writeError(w, http.StatusBadRequest, "PIN must be 4-6 characters")
	case errors.Is(err, ErrWrongPIN):
		writeError(w, http.StatusUnauthorized, "Invalid PIN")
	case errors.Is(err, ErrAlreadyInList):
		writeError(w, http.StatusConflict, "Content already in list")
	case errors.Is(err, ErrNotInList):
		writeError(w, http.StatusNotFound, "Content not found in list")
	default:
		h.log.Error("profile operation failed", "error", err)
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

func profileIDFrom(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Profile not found")
		return uuid.Nil, false
	}
	return id, true
}

type profileSummary struct {
	ID                uuid.UUID          `json:"id"`
	Name              string             `json:"name"`
	Avatar            string             `json:"avatar"`
	Type              string             `json:"type"`
	IsActive          bool               `json:"isActive"`
	Preferences       models.Preferences `json:"preferences"`
	WatchHistoryCount int                `json:"watchHistoryCount"`
	MyListCount       int                `json:"myListCount"`
	TotalWatchTime    int                `json:"totalWatchTime"`
	LastActivityAt    time.Time          `json:"lastActivityAt"`
	CreatedAt         time.Time          `json:"createdAt"`
}

func toSummary(p *ProfileWithCounts) profileSummary {
	return profileSummary{
		ID:                p.ID,
		Name:              p.Name,
		Avatar:            p.Avatar,
		Type:              p.Type,
		IsActive:          p.IsActive,
		Preferences:       p.Preferences,
		WatchHistoryCount: p.WatchHistoryCount,
		MyListCount:       p.MyListCount,
		TotalWatchTime:    p.TotalWatchTime,
		LastActivityAt:    p.LastActivityAt,
		CreatedAt:         p.CreatedAt,
	}
}

// GET /api/profiles
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(w, r)
	if acc == nil {
		return
	}
	list, err := h.svc.List(r.Context(), acc.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	out := make([]profileSummary, 0, len(list))
	for _, p := range list {
		out = append(out, toSummary(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(out), "profiles": out})
}

// GET /api/profiles/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(w, r)
	if acc == nil {
		return
	}
	id, ok := profileIDFrom(w, r)
	if !ok {
		return
	}
	p, err := h.svc.Get(r.Context(), acc.ID, id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "profile": toSummary(p)})
}

// GET /api/profiles/active
func (h *Handler) GetActive(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(w, r)
	if acc == nil {
		return
	}
	p, err := h.svc.Active(r.Context(), acc.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "profile": toSummary(p)})
}

type createProfileRequest struct {
	Name        string            `json:"name" validate:"required,max=50"`
	Avatar      string            `json:"avatar"`
	Type        string            `json:"type" validate:"omitempty,oneof=adult kids"`
	Preferences *PreferencesPatch `json:"preferences"`
	PIN         string            `json:"pin" validate:"omitempty,min=4,max=6"`
}

// POST /api/profiles
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(w, r)
	if acc == nil {
		return
	}
	var req createProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, requestErrorMessage(err))
		return
	}
	p, err := h.svc.Create(r.Context(), acc, CreateInput{
		Name:        req.Name,
		Avatar:      req.Avatar,
		Type:        req.Type,
		Preferences: req.Preferences,
		PIN:         req.PIN,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Profile created successfully",
		"profile": toSummary(&ProfileWithCounts{Profile: *p}),
	})
}

type updateProfileRequest struct {
	Name        *string           `json:"name" validate:"omitempty,max=50"`
	Avatar      *string           `json:"avatar"`
	Type        *string           `json:"type" validate:"omitempty,oneof=adult kids"`
	Preferences *PreferencesPatch `json:"preferences"`
	PIN         *string           `json:"pin" validate:"omitempty,max=6"`
}

// PUT /api/profiles/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(w, r)
	if acc == nil {
		return
	}
	id, ok := profileIDFrom(w, r)
	if !ok {
		return
	}
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, requestErrorMessage(err))
		return
	}
	p, err := h.svc.Update(r.Context(), acc.ID, id, UpdateInput{
		Name:        req.Name,
		Avatar:      req.Avatar,
		Type:        req.Type,
		Preferences: req.Preferences,
		PIN:         req.PIN,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Profile updated successfully",
		"profile": toSummary(&ProfileWithCounts{Profile: *p}),
	})
}

// DELETE /api/profiles/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(w, r)
	if acc == nil {
		return
	}
	id, ok := profileIDFrom(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), acc, id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Profile deleted successfully"})
}

// POST /api/profiles/{id}/switch
func (h *Handler) Switch(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(w, r)
	if acc == nil {
		return
	}
	id, ok := profileIDFrom(w, r)
	if !ok {
		return
	}
	var req struct {
		PIN string `json:"pin"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	p, err := h.svc.Switch(r.Context(), acc, id, req.PIN)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Profile switched successfully",
		"profile": map[string]any{
			"id":       p.ID,
			"name":     p.Name,
			"avatar":   p.Avatar,
			"type":     p.Type,
			"isActive": p.IsActive,
		},
	})
}

// GET /api/profiles/limits
func (h *Handler) Limits(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(w, r)
	if acc == nil {
		return
	}
	limits, err := h.svc.Limits(r.Context(), acc)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"currentCount": limits.CurrentCount,
		"maxAllowed":   limits.MaxAllowed,
		"canCreate":    limits.CanCreate,
		"remaining":    limits.Remaining,
	})
}

// GET /api/profiles/avatars?type=adult|kids
func (h *Handler) Avatars(w http.ResponseWriter, r *http.Request) {
	profileType := r.URL.Query().Get("type")
	if profileType == "" {
		profileType = models.ProfileTypeAdult
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"type":    profileType,
		"avatars": DefaultAvatars(profileType),
	})
}

type historyRequest struct {
	ContentID    string `json:"contentId" validate:"required"`
	ContentType  string `json:"contentType" validate:"required,oneof=movie tv trailer"`
	Title        string `json:"title" validate:"required"`
	PosterPath   string `json:"posterPath"`
	BackdropPath string `json:"backdropPath"`
	Progress     int    `json:"progress" validate:"min=0"`
	Duration     int    `json:"duration" validate:"min=0"`
	Season       *int   `json:"season"`
	Episode      *int   `json:"episode"`
}

// POST /api/profiles/{id}/history
func (h *Handler) AddHistory(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(w, r)
	if acc == nil {
		return
	}
	id, ok := profileIDFrom(w, r)
	if !ok {
		return
	}
	var req historyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "contentId, contentType, and title are required")
		return
	}
	completed, err := h.svc.AddHistory(r.Context(), acc.ID, id, HistoryInput{
		ContentID:    req.ContentID,
		ContentType:  req.ContentType,
		Title:        req.Title,
		PosterPath:   req.PosterPath,
		BackdropPath: req.BackdropPath,
		Progress:     req.Progress,
		Duration:     req.Duration,
		Season:       req.Season,
		Episode:      req.Episode,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Added to watch history",
		"completed": completed,
	})
}

// GET /api/profiles/{id}/history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(w, r)
	if acc == nil {
		return
	}
	id, ok := profileIDFrom(w, r)
	if !ok {
		return
	}
	history, err := h.svc.History(r.Context(), acc.ID, id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	page, limit := pageParams(r, 1, 20)
	paged, pagination := paginate(history, page, limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"profileId":  id,
		"history":    paged,
		"pagination": pagination,
	})
}

// DELETE /api/profiles/{id}/history
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(w, r)
	if acc == nil {
		return
	}
	id, ok := profileIDFrom(w, r)
	if !ok {
		return
	}
	if err := h.svc.ClearHistory(r.Context(), acc.ID, id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Watch history cleared"})
}

// GET /api/profiles/{id}/continue-watching
func (h *Handler) ContinueWatching(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(w, r)
	if acc == nil {
		return
	}
	id, ok := profileIDFrom(w, r)
	if !ok {
		return
	}
	items, err := h.svc.ContinueWatching(r.Context(), acc.ID, id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"profileId": id,
		"items":     items,
		"count":     len(items),
	})
}

type myListRequest struct {
	ContentID    string   `json:"contentId" validate:"required"`
	ContentType  string   `json:"contentType" validate:"required,oneof=movie tv"`
	Title        string   `json:"title" validate:"required"`
	PosterPath   string   `json:"posterPath"`
	BackdropPath string   `json:"backdropPath"`
	Overview     string   `json:"overview"`
	VoteAverage  *float64 `json:"voteAverage"`
	ReleaseDate  string   `json:"releaseDate"`
}

// POST /api/profiles/{id}/mylist
func (h *Handler) AddToList(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(w, r)
	if acc == nil {
		return
	}
	id, ok := profileIDFrom(w, r)
	if !ok {
		return
	}
	var req myListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "contentId, contentType, and title are required")
		return
	}
	err := h.svc.AddToList(r.Context(), acc.ID, id, ListInput{
		ContentID:    req.ContentID,
		ContentType:  req.ContentType,
		Title:        req.Title,
		PosterPath:   req.PosterPath,
		BackdropPath: req.BackdropPath,
		Overview:     req.Overview,
		VoteAverage:  req.VoteAverage,
		ReleaseDate:  req.ReleaseDate,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "message": "Added to My List"})
}

// GET /api/profiles/{id}/mylist
func (h *Handler) MyList(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(w, r)
	if acc == nil {
		return
	}
	id, ok := profileIDFrom(w, r)
	if !ok {
		return
	}
	list, err := h.svc.MyList(r.Context(), acc.ID, id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	page, limit := pageParams(r, 1, 50)
	paged, pagination := paginate(list, page, limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"profileId":  id,
		"myList":     paged,
		"pagination": pagination,
	})
}

// DELETE /api/profiles/{id}/mylist/{contentId}
func (h *Handler) RemoveFromList(w http.ResponseWriter, r *http.Request) {
	acc := accountFrom(w, r)
	if acc == nil {
		return
	}
	id, ok := profileIDFrom(w, r)
	if !ok {
		return
	}
	contentID := r.PathValue("contentId")
	if err := h.svc.RemoveFromList(r.Context(), acc.ID, id, contentID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Removed from My List"})
}

func requestErrorMessage(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		switch ve[0].Field() {
		case "Name":
			return "Profile name is required and must be at most 50 characters"
		case "PIN":
			return "PIN must be 4-6 characters"
		case "Type":
			return "Profile type must be adult or kids"
		}
	}
	return "Invalid input data"
}

func pageParams(r *http.Request, defaultPage, defaultLimit int) (int, int) {
	page := defaultPage
	limit := defaultLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	return page, limit
}

type pagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

func paginate[T any](items []T, page, limit int) ([]T, pagination) {
	total := len(items)
	totalPages := (total + limit - 1) / limit
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	out := items[start:end]
	if out == nil {
		out = []T{}
	}
	return out, pagination{CurrentPage: page, TotalPages: totalPages, TotalItems: total, ItemsPerPage: limit}
}
