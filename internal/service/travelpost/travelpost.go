package travelpost

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dsim/backend/internal/models"
	"github.com/dsim/backend/internal/repository"
)

type Service struct {
	posts repository.TravelPostRepo
}

func NewService(posts repository.TravelPostRepo) *Service {
	return &Service{posts: posts}
}

type CreateInput struct {
	Title       string
	Description string
	Destination string
	StartDate   *time.Time
	EndDate     *time.Time
	Budget      decimal.NullDecimal
}

func (s *Service) Create(ctx context.Context, creatorID uuid.UUID, in CreateInput) (models.TravelPost, error) {
	post, err := s.posts.Create(ctx, models.TravelPost{
		CreatorID:   creatorID,
		Title:       in.Title,
		Description: in.Description,
		Destination: in.Destination,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Budget:      in.Budget,
	})
	if err != nil {
		return post, err
	}

	// Reload with the creator summary the way list and get return posts
	return s.posts.GetByID(ctx, post.ID)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (models.TravelPost, error) {
	return s.posts.GetByID(ctx, id)
}

// List returns posts newest first, optionally filtered by destination
func (s *Service) List(ctx context.Context, destination string) ([]models.TravelPost, error) {
	return s.posts.List(ctx, destination)
}
