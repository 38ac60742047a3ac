package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dsim/backend/internal/apperrors"
	"github.com/dsim/backend/internal/handlers/render"
	"github.com/dsim/backend/internal/models"
)

type authService interface {
	SignUp(ctx context.Context, email string, password string, name string, remember bool) (models.User, models.TokenPair, error)
	SignIn(ctx context.Context, email string, password string, remember bool) (models.User, models.TokenPair, error)
	RefreshPair(ctx context.Context, refresh string) (models.User, models.TokenPair, error)
	Revoke(ctx context.Context, refresh string) error
	ReadRefreshToken(r *http.Request) (string, error)
	SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair) error
	ClearSessionCookies(w http.ResponseWriter)
}

type userGetter interface {
	GetByID(ctx context.Context, userID uuid.UUID) (models.User, error)
}

type AuthHandler struct {
	auth  authService
	users userGetter
}

func NewAuthHandler(auth authService, users userGetter) *AuthHandler {
	return &AuthHandler{auth: auth, users: users}
}

type SignUpRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6,max=72"`
	Name       string `json:"name" validate:"required,max=100"`
	RememberMe bool   `json:"rememberMe"`
}

type SignInRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"rememberMe"`
}

type SessionResponse struct {
	User             UserResponse `json:"user"`
	AccessToken      string       `json:"accessToken"`
	RefreshToken     string       `json:"refreshToken"`
	AccessExpiresAt  time.Time    `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time    `json:"refreshExpiresAt"`
}

func toSessionResponse(user models.User, pair models.TokenPair) SessionResponse {
	return SessionResponse{
		User:             toUserResponse(user),
		AccessToken:      pair.Access.Value,
		RefreshToken:     pair.Refresh.Value,
		AccessExpiresAt:  pair.Access.ExpiresAt,
		RefreshExpiresAt: pair.Refresh.ExpiresAt,
	}
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	req, err := render.BindAndValidate[SignUpRequest](w, r)
	if err != nil {
		return
	}

	user, pair, err := h.auth.SignUp(r.Context(), req.Email, req.Password, req.Name, req.RememberMe)
	switch {
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		render.ServiceError(w, "User with this email already exists", http.StatusConflict)
		return
	case err != nil:
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.auth.SetTokenPairToResponse(w, pair); err != nil {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSONWithStatus(w, toSessionResponse(user, pair), http.StatusCreated)
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	req, err := render.BindAndValidate[SignInRequest](w, r)
	if err != nil {
		return
	}

	user, pair, err := h.auth.SignIn(r.Context(), req.Email, req.Password, req.RememberMe)
	switch {
	case errors.Is(err, apperrors.ErrAuthInvalid):
		render.ServiceError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	case err != nil:
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.auth.SetTokenPairToResponse(w, pair); err != nil {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSON(w, toSessionResponse(user, pair))
}

// Refresh rotates the refresh token presented in the session cookie.
// A replayed, revoked or expired token is rejected and the session cookies
// are cleared so the client stops retrying with a dead token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refresh, err := h.auth.ReadRefreshToken(r)
	if err != nil {
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, pair, err := h.auth.RefreshPair(r.Context(), refresh)
	switch {
	case errors.Is(err, apperrors.ErrAuthInvalid):
		h.auth.ClearSessionCookies(w)
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
		return
	case err != nil:
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.auth.SetTokenPairToResponse(w, pair); err != nil {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSON(w, toSessionResponse(user, pair))
}

// Logout clears the session cookies unconditionally and revokes the refresh
// token when one is present. Revocation is best effort: even when the store
// is unreachable the browser session still ends.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.ClearSessionCookies(w)

	if refresh, err := h.auth.ReadRefreshToken(r); err == nil {
		_ = h.auth.Revoke(r.Context(), refresh)
	}

	render.JSON(w, map[string]string{"message": "Logged out"})
}

// Me returns the account behind the current session
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetByID(r.Context(), s.UserID)
	if err != nil {
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	render.JSON(w, toUserResponse(user))
}
