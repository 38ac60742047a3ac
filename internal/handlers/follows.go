package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/dsim/backend/internal/handlers/render"
	"github.com/dsim/backend/internal/models"
)

type followService interface {
	Follow(ctx context.Context, session models.Session, targetID uuid.UUID) error
	Unfollow(ctx context.Context, userID uuid.UUID, targetID uuid.UUID) error
	ListFollowers(ctx context.Context, userID uuid.UUID) ([]models.UserSummary, error)
	ListFollowing(ctx context.Context, userID uuid.UUID) ([]models.UserSummary, error)
}

type FollowHandler struct {
	follows followService
}

func NewFollowHandler(follows followService) *FollowHandler {
	return &FollowHandler{follows: follows}
}

func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	targetID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}

	if err := h.follows.Follow(r.Context(), s, targetID); err != nil {
		serviceError(w, err)
		return
	}

	render.JSONWithStatus(w, map[string]string{"message": "Followed"}, http.StatusCreated)
}

func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	targetID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}

	if err := h.follows.Unfollow(r.Context(), s.UserID, targetID); err != nil {
		serviceError(w, err)
		return
	}

	render.JSON(w, map[string]string{"message": "Unfollowed"})
}

func (h *FollowHandler) ListFollowers(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	followers, err := h.follows.ListFollowers(r.Context(), s.UserID)
	if err != nil {
		serviceError(w, err)
		return
	}

	render.JSON(w, followers)
}

func (h *FollowHandler) ListFollowing(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	following, err := h.follows.ListFollowing(r.Context(), s.UserID)
	if err != nil {
		serviceError(w, err)
		return
	}

	render.JSON(w, following)
}
