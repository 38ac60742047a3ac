package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dsim/backend/internal/models"
)

type FollowRepo struct {
	DB DBTX
}

const saveFollow = `-- name: SaveFollow
INSERT INTO follows (follower_id, following_id)
VALUES ($1, $2)
ON CONFLICT (follower_id, following_id) DO NOTHING
`

func (r *FollowRepo) Save(ctx context.Context, followerID uuid.UUID, followingID uuid.UUID) error {
	_, err := r.DB.Exec(ctx, saveFollow, followerID, followingID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const deleteFollow = `-- name: DeleteFollow
DELETE FROM follows
WHERE follower_id = $1 AND following_id = $2
`

func (r *FollowRepo) Delete(ctx context.Context, followerID uuid.UUID, followingID uuid.UUID) error {
	_, err := r.DB.Exec(ctx, deleteFollow, followerID, followingID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const listFollowers = `-- name: ListFollowers
SELECT u.id, u.email, u.name
FROM follows f
JOIN users u ON u.id = f.follower_id
WHERE f.following_id = $1
ORDER BY f.created_at DESC
`

func (r *FollowRepo) ListFollowers(ctx context.Context, userID uuid.UUID) ([]models.UserSummary, error) {
	rows, _ := r.DB.Query(ctx, listFollowers, userID)
	users, err := pgx.CollectRows(rows, rowToUserSummary)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return users, nil
}

const listFollowing = `-- name: ListFollowing
SELECT u.id, u.email, u.name
FROM follows f
JOIN users u ON u.id = f.following_id
WHERE f.follower_id = $1
ORDER BY f.created_at DESC
`

func (r *FollowRepo) ListFollowing(ctx context.Context, userID uuid.UUID) ([]models.UserSummary, error) {
	rows, _ := r.DB.Query(ctx, listFollowing, userID)
	users, err := pgx.CollectRows(rows, rowToUserSummary)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return users, nil
}

func rowToUserSummary(row pgx.CollectableRow) (models.UserSummary, error) {
	var u models.UserSummary
	err := row.Scan(&u.ID, &u.Email, &u.Name)
	return u, err
}
