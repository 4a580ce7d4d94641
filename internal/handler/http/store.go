package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/domain"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/service"
	apperrors "github.com/OmSonawane4/Roxiler-Assignment/pkg/errors"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/httputil"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/pagination"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/validator"
)

// StoreHandler handles HTTP requests for store endpoints.
type StoreHandler struct {
	service StoreService
	logger  *slog.Logger
}

// NewStoreHandler creates a new store HTTP handler.
func NewStoreHandler(svc StoreService, logger *slog.Logger) *StoreHandler {
	return &StoreHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// CreateStoreRequest is the JSON request body for creating a store.
type CreateStoreRequest struct {
	Name        string `json:"name" validate:"required,min=3,max=100"`
	Description string `json:"description" validate:"max=2000"`
	Address     string `json:"address" validate:"required,max=400"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"max=30"`
	OwnerID     string `json:"owner_id" validate:"omitempty,uuid"`
}

// UpdateStoreRequest is the JSON request body for updating a store.
// Omitted fields are left unchanged.
type UpdateStoreRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=3,max=100"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Address     *string `json:"address" validate:"omitempty,min=1,max=400"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone" validate:"omitempty,max=30"`
	IsActive    *bool   `json:"is_active"`
}

// --- Handlers ---

// ListStores handles GET /api/v1/stores
// @Summary List stores
// @Description Returns stores with their average rating and review count. Supports
// @Description ?search=, ?active=true, ?sort_by=name|address|email|rating|review_count|created_at and ?order=asc|desc
// @Tags stores
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page (max 100)" default(20)
// @Success 200 {object} httputil.Response
// @Router /api/v1/stores [get]
func (h *StoreHandler) ListStores(w http.ResponseWriter, r *http.Request) {
	activeOnly, err := queryBool(r, "active", false)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	params := pagination.FromRequest(r)
	sortBy, desc := sortParams(r)
	filter := domain.StoreFilter{
		Search:     strings.TrimSpace(r.URL.Query().Get("search")),
		ActiveOnly: activeOnly,
		SortBy:     sortBy,
		Desc:       desc,
	}

	stores, total, err := h.service.ListStores(r.Context(), filter, params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, pagination.NewResult(stores, total, params))
}

// SearchStores handles GET /api/v1/stores/search
// @Summary Full-text store search
// @Tags stores
// @Produce json
// @Param q query string false "Search text"
// @Param min_rating query number false "Minimum average rating (0-5)"
// @Success 200 {object} httputil.Response
// @Failure 400 {object} httputil.Response
// @Router /api/v1/stores/search [get]
func (h *StoreHandler) SearchStores(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	query := domain.StoreSearchQuery{
		Text:    r.URL.Query().Get("q"),
		Page:    params.Page,
		PerPage: params.PerPage,
	}
	if v := r.URL.Query().Get("min_rating"); v != "" {
		minRating, err := strconv.ParseFloat(v, 64)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("min_rating must be a number"), h.logger)
			return
		}
		query.MinRating = minRating
	}

	result, err := h.service.Search(r.Context(), query)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, pagination.NewResult(result.Stores, result.Total, params))
}

// GetStore handles GET /api/v1/stores/{id}
func (h *StoreHandler) GetStore(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, "store id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	store, err := h.service.GetStore(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, store)
}

// ListByOwner handles GET /api/v1/stores/owner/{ownerId}
func (h *StoreHandler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := httputil.ParseUUID(w, "owner id", chi.URLParam(r, "ownerId"))
	if !ok {
		return
	}

	params := pagination.FromRequest(r)
	stores, total, err := h.service.ListByOwner(r.Context(), ownerID.String(), params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, pagination.NewResult(stores, total, params))
}

// CreateStore handles POST /api/v1/stores
// @Summary Create a store
// @Description Store owners create stores they own; administrators may set owner_id.
// @Tags stores
// @Accept json
// @Produce json
// @Param request body CreateStoreRequest true "Store to create"
// @Success 201 {object} httputil.Response
// @Failure 400 {object} httputil.Response
// @Failure 403 {object} httputil.Response
// @Router /api/v1/stores [post]
func (h *StoreHandler) CreateStore(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req CreateStoreRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	store, err := h.service.CreateStore(r.Context(), p, service.CreateStoreInput{
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
		Email:       req.Email,
		Phone:       req.Phone,
		OwnerID:     req.OwnerID,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, store)
}

// UpdateStore handles PUT /api/v1/stores/{id}
func (h *StoreHandler) UpdateStore(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	id, ok := httputil.ParseUUID(w, "store id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateStoreRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	store, err := h.service.UpdateStore(r.Context(), p, id.String(), service.UpdateStoreInput{
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
		Email:       req.Email,
		Phone:       req.Phone,
		IsActive:    req.IsActive,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, store)
}

// DeleteStore handles DELETE /api/v1/stores/{id}
func (h *StoreHandler) DeleteStore(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	id, ok := httputil.ParseUUID(w, "store id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteStore(r.Context(), p, id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, http.StatusOK, "store deleted")
}
