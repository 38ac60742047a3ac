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

type ProfileRepo struct {
	DB DBTX
}

const upsertProfile = `-- name: UpsertProfile
INSERT INTO profiles (user_id, bio, location, interests, languages, avatar_url, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, now())
ON CONFLICT (user_id) DO UPDATE
SET bio = EXCLUDED.bio,
    location = EXCLUDED.location,
    interests = EXCLUDED.interests,
    languages = EXCLUDED.languages,
    avatar_url = EXCLUDED.avatar_url,
    updated_at = now()
RETURNING user_id, bio, location, interests, languages, avatar_url, updated_at
`

func (r *ProfileRepo) Upsert(ctx context.Context, p models.Profile) (models.Profile, error) {
	rows, _ := r.DB.Query(ctx, upsertProfile, p.UserID, p.Bio, p.Location, p.Interests, p.Languages, p.AvatarURL)
	profile, err := pgx.CollectOneRow(rows, rowToProfile)
	if err != nil {
		return profile, fmt.Errorf("db error: %w", err)
	}
	return profile, nil
}

const getProfile = `-- name: GetProfileByUserID
SELECT user_id, bio, location, interests, languages, avatar_url, updated_at
FROM profiles
WHERE user_id = $1
`

func (r *ProfileRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (models.Profile, error) {
	rows, _ := r.DB.Query(ctx, getProfile, userID)
	profile, err := pgx.CollectOneRow(rows, rowToProfile)

	switch {
	case err == nil:
		return profile, nil
	case errors.Is(err, pgx.ErrNoRows):
		return profile, apperrors.ErrProfileNotFound
	default:
		return profile, fmt.Errorf("db error: %w", err)
	}
}

func rowToProfile(row pgx.CollectableRow) (models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.UserID, &p.Bio, &p.Location, &p.Interests, &p.Languages, &p.AvatarURL, &p.UpdatedAt)
	return p, err
}
