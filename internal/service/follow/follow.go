package follow

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dsim/backend/internal/apperrors"
	"github.com/dsim/backend/internal/models"
	"github.com/dsim/backend/internal/repository"
)

// Notifier stores a notification for the user
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind string, title string, message string) (models.Notification, error)
}

type Service struct {
	users    repository.UserRepo
	follows  repository.FollowRepo
	notifier Notifier
}

func NewService(users repository.UserRepo, follows repository.FollowRepo, notifier Notifier) *Service {
	return &Service{users: users, follows: follows, notifier: notifier}
}

// Follow makes session.UserID follow targetID and notifies the target.
// Following twice is a no-op; no duplicate notification is sent.
func (s *Service) Follow(ctx context.Context, session models.Session, targetID uuid.UUID) error {
	if session.UserID == targetID {
		return apperrors.ErrFollowSelf
	}

	if _, err := s.users.GetUserByID(ctx, targetID); err != nil {
		return err
	}

	if err := s.follows.Save(ctx, session.UserID, targetID); err != nil {
		return err
	}

	_, err := s.notifier.Notify(ctx, targetID,
		models.NotificationFollow,
		"New follower",
		fmt.Sprintf("%s started following you", session.Email),
	)
	return err
}

// Unfollow is idempotent: removing an absent follow succeeds
func (s *Service) Unfollow(ctx context.Context, userID uuid.UUID, targetID uuid.UUID) error {
	return s.follows.Delete(ctx, userID, targetID)
}

func (s *Service) ListFollowers(ctx context.Context, userID uuid.UUID) ([]models.UserSummary, error) {
	return s.follows.ListFollowers(ctx, userID)
}

func (s *Service) ListFollowing(ctx context.Context, userID uuid.UUID) ([]models.UserSummary, error) {
	return s.follows.ListFollowing(ctx, userID)
}
