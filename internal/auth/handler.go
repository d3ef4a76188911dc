// AngelaMos | 2026
// handler.go

package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kidsask/api/internal/account"
	"github.com/kidsask/api/internal/core"
	"github.com/kidsask/api/internal/middleware"
)

const forgotPasswordMessage = "if an account exists for that email, a reset link has been sent"

type Registrar interface {
	Register(ctx context.Context, req account.RegisterRequest) (*account.AccountResponse, error)
}

type Handler struct {
	service   *Service
	registrar Registrar
	validator *validator.Validate
}

func NewHandler(service *Service, registrar Registrar) *Handler {
	return &Handler{
		service:   service,
		registrar: registrar,
		validator: core.NewValidator(),
	}
}

// RegisterRoutes mounts /auth. strict wraps the endpoints that guess
// credentials or send mail.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	strict func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Get("/reset-password/{token}", h.VerifyResetToken)
		r.Post("/reset-password", h.ResetPassword)

		r.Group(func(r chi.Router) {
			if strict != nil {
				r.Use(strict)
			}
			r.Post("/login", h.Login)
			r.Post("/forgot-password", h.ForgotPassword)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Get("/me", h.GetMe)
			r.Post("/change-password", h.ChangePassword)
		})
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req account.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.validationError(w, err)
		return
	}

	resp, err := h.registrar.Register(r.Context(), req)
	if err != nil {
		core.JSONError(w, AppError(err))
		return
	}

	core.Created(w, resp)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.Login(r.Context(), req, middleware.ClientIP(r))
	if err != nil {
		core.JSONError(w, AppError(err))
		return
	}

	core.OK(w, resp)
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		core.JSONError(w, AppError(err))
		return
	}

	core.OK(w, MessageResponse{Message: forgotPasswordMessage})
}

func (h *Handler) VerifyResetToken(w http.ResponseWriter, r *http.Request) {
	valid, err := h.service.VerifyResetToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		core.JSONError(w, AppError(err))
		return
	}

	if !valid {
		core.JSONError(w, AppError(ErrInvalidOrExpiredToken))
		return
	}

	core.OK(w, TokenValidityResponse{Valid: true})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.validationError(w, err)
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		core.JSONError(w, AppError(err))
		return
	}

	core.OK(w, MessageResponse{Message: "password has been reset"})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	resp, err := h.service.GetCurrentUser(r.Context(), userID)
	if err != nil {
		core.JSONError(w, AppError(err))
		return
	}

	core.OK(w, resp)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.validationError(w, err)
		return
	}

	err := h.service.ChangePassword(
		r.Context(),
		userID,
		req.CurrentPassword,
		req.NewPassword,
	)
	if err != nil {
		core.JSONError(w, AppError(err))
		return
	}

	core.NoContent(w)
}

func (h *Handler) validationError(w http.ResponseWriter, err error) {
	if core.IsWeakPasswordError(err) {
		core.JSONError(w, core.WeakPasswordError())
		return
	}
	core.BadRequest(w, core.FormatValidationError(err))
}
