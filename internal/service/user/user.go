package user

import (
	"context"

	"github.com/google/uuid"

	"github.com/dsim/backend/internal/models"
	"github.com/dsim/backend/internal/repository"
)

const searchLimit = 20

type Service struct {
	users    repository.UserRepo
	profiles repository.ProfileRepo
}

func NewService(users repository.UserRepo, profiles repository.ProfileRepo) *Service {
	return &Service{users: users, profiles: profiles}
}

func (s *Service) GetByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

// Search matches the query against emails and names, case insensitive
func (s *Service) Search(ctx context.Context, query string) ([]models.UserSummary, error) {
	users, err := s.users.SearchUsers(ctx, query, searchLimit)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, u.Summary())
	}
	return summaries, nil
}

type ProfileInput struct {
	Bio       string
	Location  string
	Interests string
	Languages string
	AvatarURL string
}

// UpsertProfile creates or replaces the profile owned by userID
func (s *Service) UpsertProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (models.Profile, error) {
	return s.profiles.Upsert(ctx, models.Profile{
		UserID:    userID,
		Bio:       in.Bio,
		Location:  in.Location,
		Interests: in.Interests,
		Languages: in.Languages,
		AvatarURL: in.AvatarURL,
	})
}

func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (models.Profile, error) {
	return s.profiles.GetByUserID(ctx, userID)
}
