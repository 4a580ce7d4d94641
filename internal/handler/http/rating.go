package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/domain"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/service"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/httputil"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/pagination"
	"github.com/OmSonawane4/Roxiler-Assignment/pkg/validator"
)

// RatingHandler handles HTTP requests for rating endpoints.
type RatingHandler struct {
	service RatingService
	logger  *slog.Logger
}

// NewRatingHandler creates a new rating HTTP handler.
func NewRatingHandler(svc RatingService, logger *slog.Logger) *RatingHandler {
	return &RatingHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// RatingRequest is the JSON request body for submitting or upserting a
// rating. Sentiment is derived from the comment when omitted. On upsert an
// omitted photos field keeps the existing photos and an empty array clears
// them.
type RatingRequest struct {
	StoreID   string   `json:"store_id" validate:"required,uuid"`
	Rating    *int     `json:"rating" validate:"required,min=0,max=5"`
	Comment   string   `json:"comment" validate:"max=500"`
	Sentiment *string  `json:"sentiment" validate:"omitempty,oneof=positive neutral negative"`
	Photos    []string `json:"photos" validate:"omitempty,max=10,dive,url"`
}

// UpdateRatingRequest is the JSON request body for editing a rating.
// Omitted fields are left unchanged.
type UpdateRatingRequest struct {
	Rating    *int     `json:"rating" validate:"omitempty,min=0,max=5"`
	Comment   *string  `json:"comment" validate:"omitempty,max=500"`
	Sentiment *string  `json:"sentiment" validate:"omitempty,oneof=positive neutral negative"`
	Photos    []string `json:"photos" validate:"omitempty,max=10,dive,url"`
}

func (req RatingRequest) input() (service.RatingInput, error) {
	sentiment, err := parseSentiment(req.Sentiment)
	if err != nil {
		return service.RatingInput{}, err
	}
	return service.RatingInput{
		StoreID:   req.StoreID,
		Value:     *req.Rating,
		Comment:   req.Comment,
		Sentiment: sentiment,
		Photos:    req.Photos,
	}, nil
}

// --- Handlers ---

// Submit handles POST /api/v1/ratings
// @Summary Submit a rating
// @Description Creates the caller's rating for a store. Fails with 409 when the caller already rated it.
// @Tags ratings
// @Accept json
// @Produce json
// @Param request body RatingRequest true "Rating to submit"
// @Success 201 {object} httputil.Response
// @Failure 400 {object} httputil.Response
// @Failure 404 {object} httputil.Response
// @Failure 409 {object} httputil.Response
// @Router /api/v1/ratings [post]
func (h *RatingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req RatingRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	input, err := req.input()
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.service.Submit(r.Context(), p, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, result)
}

// Upsert handles PUT /api/v1/ratings/upsert
// @Summary Create or replace a rating
// @Description Returns 201 when the rating was created and 200 when an existing one was updated.
// @Tags ratings
// @Accept json
// @Produce json
// @Param request body RatingRequest true "Rating to write"
// @Success 200 {object} httputil.Response
// @Success 201 {object} httputil.Response
// @Failure 400 {object} httputil.Response
// @Failure 404 {object} httputil.Response
// @Router /api/v1/ratings/upsert [put]
func (h *RatingHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req RatingRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	input, err := req.input()
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.service.Upsert(r.Context(), p, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	httputil.WriteSuccess(w, status, result)
}

// Update handles PUT /api/v1/ratings/{id}
func (h *RatingHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	id, ok := httputil.ParseUUID(w, "rating id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateRatingRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	sentiment, err := parseSentiment(req.Sentiment)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.service.Update(r.Context(), p, id.String(), domain.RatingPatch{
		Value:     req.Rating,
		Comment:   req.Comment,
		Sentiment: sentiment,
		Photos:    req.Photos,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, result)
}

// Delete handles DELETE /api/v1/ratings/{id}
func (h *RatingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	id, ok := httputil.ParseUUID(w, "rating id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), p, id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, http.StatusOK, "rating deleted")
}

// GetRating handles GET /api/v1/ratings/{id}
func (h *RatingHandler) GetRating(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, "rating id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	rating, err := h.service.GetRating(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, rating)
}

// ListByStore handles GET /api/v1/ratings/store/{storeId}
// @Summary List a store's ratings
// @Description Newest first, with reviewer names and photos
// @Tags ratings
// @Produce json
// @Param storeId path string true "Store UUID"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page (max 100)" default(20)
// @Success 200 {object} httputil.Response
// @Router /api/v1/ratings/store/{storeId} [get]
func (h *RatingHandler) ListByStore(w http.ResponseWriter, r *http.Request) {
	storeID, ok := httputil.ParseUUID(w, "store id", chi.URLParam(r, "storeId"))
	if !ok {
		return
	}

	params := pagination.FromRequest(r)
	ratings, total, err := h.service.ListByStore(r.Context(), storeID.String(), params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, pagination.NewResult(ratings, total, params))
}

// Stats handles GET /api/v1/ratings/store/{storeId}/stats
func (h *RatingHandler) Stats(w http.ResponseWriter, r *http.Request) {
	storeID, ok := httputil.ParseUUID(w, "store id", chi.URLParam(r, "storeId"))
	if !ok {
		return
	}

	stats, err := h.service.Stats(r.Context(), storeID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, stats)
}

// ListByUser handles GET /api/v1/ratings/user/{userId}
func (h *RatingHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParseUUID(w, "user id", chi.URLParam(r, "userId"))
	if !ok {
		return
	}

	params := pagination.FromRequest(r)
	ratings, total, err := h.service.ListByUser(r.Context(), userID.String(), params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, pagination.NewResult(ratings, total, params))
}

// MarkHelpful handles POST /api/v1/ratings/{id}/helpful
func (h *RatingHandler) MarkHelpful(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	id, ok := httputil.ParseUUID(w, "rating id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	result, err := h.service.MarkHelpful(r.Context(), p, id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, result)
}

// UnmarkHelpful handles DELETE /api/v1/ratings/{id}/helpful
func (h *RatingHandler) UnmarkHelpful(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	id, ok := httputil.ParseUUID(w, "rating id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	result, err := h.service.UnmarkHelpful(r.Context(), p, id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, result)
}
