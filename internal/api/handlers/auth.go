package handlers

import (
	"errors"
	"net/http"

	"github.com/gatherhall/server/internal/api/apierror"
	"github.com/gatherhall/server/internal/api/middleware"
	"github.com/gatherhall/server/internal/domain/users"
	"github.com/gatherhall/server/internal/metrics"
	"github.com/go-playground/validator/v10"
)

type AuthHandler struct {
	Users    *users.Service
	validate *validator.Validate
}

func NewAuthHandler(usersService *users.Service) *AuthHandler {
	return &AuthHandler{Users: usersService, validate: validator.New()}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"pass" validate:"required,min=6,max=128"`
	Role     string `json:"role" validate:"omitempty,oneof=user organiser admin"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, h.validate, &req); err != nil {
		apierror.BadRequest(w, r, err.Error(), err)
		return
	}

	// Admin accounts are bootstrapped from config, never self-assigned.
	role := req.Role
	if role == "admin" {
		role = "user"
	}

	_, err := h.Users.Register(r.Context(), users.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			apierror.BadRequest(w, r, "user exists", err)
			return
		}
		apierror.Internal(w, r, err)
		return
	}

	metrics.UsersRegisteredTotal.Inc()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"pass" validate:"required"`
}

type userPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, h.validate, &req); err != nil {
		apierror.BadRequest(w, r, err.Error(), err)
		return
	}

	session, err := h.Users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
			apierror.BadRequest(w, r, "invalid credentials", err)
			return
		}
		apierror.Internal(w, r, err)
		return
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"token": session.Token,
		"user": userPayload{
			ID:    session.User.ID,
			Name:  session.User.Name,
			Email: session.User.Email,
			Role:  session.User.Role,
		},
	})
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPassword always answers 200 for well-formed requests so responses
// cannot be used to probe which emails have accounts.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(r, h.validate, &req); err != nil {
		apierror.BadRequest(w, r, err.Error(), err)
		return
	}

	if err := h.Users.RequestPasswordReset(r.Context(), req.Email); err != nil && !errors.Is(err, users.ErrNotFound) {
		apierror.Internal(w, r, err)
		return
	}

	metrics.PasswordResetsTotal.WithLabelValues("requested").Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "if an account exists for that email, a reset link has been sent",
	})
}

type resetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"newPass" validate:"required,min=6,max=128"`
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, h.validate, &req); err != nil {
		apierror.BadRequest(w, r, err.Error(), err)
		return
	}

	if err := h.Users.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		switch {
		case errors.Is(err, users.ErrInvalidResetToken):
			apierror.BadRequest(w, r, "invalid reset token", err)
		case errors.Is(err, users.ErrResetTokenExpired):
			apierror.BadRequest(w, r, "reset token expired", err)
		default:
			apierror.Internal(w, r, err)
		}
		return
	}

	metrics.PasswordResetsTotal.WithLabelValues("completed").Inc()
	writeJSON(w, http.StatusOK, map[string]any{"message": "password updated"})
}

// Me echoes the session claims of the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		apierror.Unauthorized(w, r, "authentication required", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": userPayload{
			ID:    claims.UserID(),
			Name:  claims.Name,
			Email: claims.Email,
			Role:  claims.Role,
		},
	})
}
