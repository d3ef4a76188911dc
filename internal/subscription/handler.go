// AngelaMos | 2026
// handler.go

package subscription

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kidsask/api/internal/core"
	"github.com/kidsask/api/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/subscription", func(r chi.Router) {
		r.Get("/plans", h.ListPlans)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Get("/", h.GetSubscription)
			r.Post("/quota", h.CheckAndConsume)
			r.Post("/upgrade", h.Upgrade)
		})
	})
}

func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	catalog := h.service.Catalog()
	core.OK(w, PlansResponse{
		Plans: catalog.Paid(),
		Trial: catalog.Trial(),
	})
}

func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	resp, err := h.service.GetSubscription(r.Context(), userID)
	if err != nil {
		core.JSONError(w, AppError(err))
		return
	}

	core.OK(w, resp)
}

func (h *Handler) CheckAndConsume(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	status, err := h.service.CheckAndConsume(r.Context(), userID)
	if err != nil {
		core.JSONError(w, AppError(err))
		return
	}

	core.OK(w, status)
}

func (h *Handler) Upgrade(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	var req UpgradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.UpgradePlan(r.Context(), userID, req)
	if err != nil {
		core.JSONError(w, AppError(err))
		return
	}

	core.OK(w, resp)
}
