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

type NotificationRepo struct {
	DB DBTX
}

const createNotification = `-- name: CreateNotification
INSERT INTO notifications (id, user_id, type, title, message)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, user_id, type, title, message, read, created_at
`

func (r *NotificationRepo) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	rows, _ := r.DB.Query(ctx, createNotification, uuid.New(), n.UserID, n.Type, n.Title, n.Message)
	created, err := pgx.CollectOneRow(rows, rowToNotification)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

const listNotifications = `-- name: ListNotificationsForUser
SELECT id, user_id, type, title, message, read, created_at
FROM notifications
WHERE user_id = $1
ORDER BY created_at DESC
`

func (r *NotificationRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	rows, _ := r.DB.Query(ctx, listNotifications, userID)
	notifications, err := pgx.CollectRows(rows, rowToNotification)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return notifications, nil
}

const markNotificationRead = `-- name: MarkNotificationRead
UPDATE notifications
SET read = true
WHERE id = $1 AND user_id = $2
RETURNING id, user_id, type, title, message, read, created_at
`

// MarkRead updates only rows owned by userID, so a foreign id and an absent
// id are indistinguishable to the caller
func (r *NotificationRepo) MarkRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) (models.Notification, error) {
	rows, _ := r.DB.Query(ctx, markNotificationRead, id, userID)
	n, err := pgx.CollectOneRow(rows, rowToNotification)

	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, pgx.ErrNoRows):
		return n, apperrors.ErrNotificationNotFound
	default:
		return n, fmt.Errorf("db error: %w", err)
	}
}

func rowToNotification(row pgx.CollectableRow) (models.Notification, error) {
	var n models.Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Read, &n.CreatedAt)
	return n, err
}
