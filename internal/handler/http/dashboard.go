package http

import (
	"log/slog"
	"net/http"

	"github.com/OmSonawane4/Roxiler-Assignment/pkg/httputil"
)

// DashboardHandler serves the role-specific dashboards.
type DashboardHandler struct {
	service DashboardService
	logger  *slog.Logger
}

// NewDashboardHandler creates a new dashboard HTTP handler.
func NewDashboardHandler(svc DashboardService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{service: svc, logger: logger}
}

// Admin handles GET /api/v1/dashboard/admin
// @Summary Admin dashboard
// @Tags dashboard
// @Produce json
// @Success 200 {object} httputil.Response
// @Failure 403 {object} httputil.Response
// @Router /api/v1/dashboard/admin [get]
func (h *DashboardHandler) Admin(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	dash, err := h.service.Admin(r.Context(), p)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, dash)
}

// Owner handles GET /api/v1/dashboard/store-owner
func (h *DashboardHandler) Owner(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	dash, err := h.service.Owner(r.Context(), p)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, dash)
}

// Customer handles GET /api/v1/dashboard/customer
func (h *DashboardHandler) Customer(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	dash, err := h.service.Customer(r.Context(), p)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, dash)
}
