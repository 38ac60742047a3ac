package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dsim/backend/internal/handlers/render"
	"github.com/dsim/backend/internal/models"
	"github.com/dsim/backend/internal/service/user"
)

const searchQueryMinLen = 2

type userService interface {
	Search(ctx context.Context, query string) ([]models.UserSummary, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (models.Profile, error)
	UpsertProfile(ctx context.Context, userID uuid.UUID, in user.ProfileInput) (models.Profile, error)
}

type UserHandler struct {
	users userService
}

func NewUserHandler(users userService) *UserHandler {
	return &UserHandler{users: users}
}

// Search finds users by name or email fragment, query param "q"
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) < searchQueryMinLen {
		render.ServiceError(w, "Query must be at least 2 characters", http.StatusBadRequest)
		return
	}

	summaries, err := h.users.Search(r.Context(), query)
	if err != nil {
		serviceError(w, err)
		return
	}

	render.JSON(w, summaries)
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}

	profile, err := h.users.GetProfile(r.Context(), userID)
	if err != nil {
		serviceError(w, err)
		return
	}

	render.JSON(w, toProfileResponse(profile))
}

type UpsertProfileRequest struct {
	Bio       string `json:"bio" validate:"max=2000"`
	Location  string `json:"location" validate:"max=200"`
	Interests string `json:"interests" validate:"max=500"`
	Languages string `json:"languages" validate:"max=200"`
	AvatarURL string `json:"avatarUrl" validate:"omitempty,url,max=500"`
}

// UpsertProfile creates or replaces the caller's own profile
func (h *UserHandler) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	req, err := render.BindAndValidate[UpsertProfileRequest](w, r)
	if err != nil {
		return
	}

	profile, err := h.users.UpsertProfile(r.Context(), s.UserID, user.ProfileInput{
		Bio:       req.Bio,
		Location:  req.Location,
		Interests: req.Interests,
		Languages: req.Languages,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		serviceError(w, err)
		return
	}

	render.JSON(w, toProfileResponse(profile))
}
