// AngelaMos | 2026
// handler.go

package chat

import (
	"encoding/json"
	"net/http"
	"strconv"

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
	r.Get("/topics", h.ListTopics)
	r.Get("/topics/{topicID}", h.GetTopic)

	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Post("/chat", h.Ask)
	})
}

func (h *Handler) ListTopics(w http.ResponseWriter, r *http.Request) {
	core.OK(w, TopicsResponse{Topics: Topics()})
}

func (h *Handler) GetTopic(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "topicID"))
	if err != nil {
		core.NotFound(w, "topic")
		return
	}

	topic, ok := TopicByID(id)
	if !ok {
		core.NotFound(w, "topic")
		return
	}

	core.OK(w, topic)
}

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.Ask(r.Context(), userID, req)
	if err != nil {
		core.JSONError(w, AppError(err))
		return
	}

	core.OK(w, resp)
}
