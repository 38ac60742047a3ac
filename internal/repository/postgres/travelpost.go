package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dsim/backend/internal/apperrors"
	"github.com/dsim/backend/internal/models"
)

type TravelPostRepo struct {
	DB DBTX
}

const createPost = `-- name: CreateTravelPost
INSERT INTO travel_posts (id, creator_id, title, description, destination, start_date, end_date, budget)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, creator_id, title, description, destination, start_date, end_date, budget, created_at
`

func (r *TravelPostRepo) Create(ctx context.Context, post models.TravelPost) (models.TravelPost, error) {
	rows, _ := r.DB.Query(ctx, createPost,
		uuid.New(), post.CreatorID, post.Title, post.Description, post.Destination,
		post.StartDate, post.EndDate, post.Budget)
	created, err := pgx.CollectOneRow(rows, rowToTravelPost)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

const getPostByID = `-- name: GetTravelPostByID
SELECT p.id, p.creator_id, p.title, p.description, p.destination,
       p.start_date, p.end_date, p.budget, p.created_at,
       u.id, u.email, u.name
FROM travel_posts p
JOIN users u ON u.id = p.creator_id
WHERE p.id = $1
`

func (r *TravelPostRepo) GetByID(ctx context.Context, id uuid.UUID) (models.TravelPost, error) {
	rows, _ := r.DB.Query(ctx, getPostByID, id)
	post, err := pgx.CollectOneRow(rows, rowToTravelPostWithCreator)

	switch {
	case err == nil:
		return post, nil
	case errors.Is(err, pgx.ErrNoRows):
		return post, apperrors.ErrTravelPostNotFound
	default:
		return post, fmt.Errorf("db error: %w", err)
	}
}

const listPosts = `-- name: ListTravelPosts
SELECT p.id, p.creator_id, p.title, p.description, p.destination,
       p.start_date, p.end_date, p.budget, p.created_at,
       u.id, u.email, u.name
FROM travel_posts p
JOIN users u ON u.id = p.creator_id
WHERE $1 = '' OR p.destination ILIKE '%' || $1 || '%'
ORDER BY p.created_at DESC
`

func (r *TravelPostRepo) List(ctx context.Context, destination string) ([]models.TravelPost, error) {
	rows, _ := r.DB.Query(ctx, listPosts, destination)
	posts, err := pgx.CollectRows(rows, rowToTravelPostWithCreator)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return posts, nil
}

func rowToTravelPost(row pgx.CollectableRow) (models.TravelPost, error) {
	var p models.TravelPost
	err := row.Scan(&p.ID, &p.CreatorID, &p.Title, &p.Description, &p.Destination,
		&p.StartDate, &p.EndDate, &p.Budget, &p.CreatedAt)
	return p, err
}

func rowToTravelPostWithCreator(row pgx.CollectableRow) (models.TravelPost, error) {
	var p models.TravelPost
	var creator models.UserSummary
	err := row.Scan(&p.ID, &p.CreatorID, &p.Title, &p.Description, &p.Destination,
		&p.StartDate, &p.EndDate, &p.Budget, &p.CreatedAt,
		&creator.ID, &creator.Email, &creator.Name)
	if err != nil {
		return p, err
	}
	p.Creator = &creator
	return p, nil
}
