package notification

import (
	"context"

	"github.com/google/uuid"

	"github.com/dsim/backend/internal/logger"
	"github.com/dsim/backend/internal/models"
	"github.com/dsim/backend/internal/repository"
)

// EventPublisher pushes stored notifications to out-of-process consumers
// (mailers, push senders). Delivery is best effort.
type EventPublisher interface {
	PublishNotificationCreated(ctx context.Context, n models.Notification) error
}

type Service struct {
	repo   repository.NotificationRepo
	events EventPublisher // nil when no broker is configured
	logger logger.Logger
}

func NewService(repo repository.NotificationRepo, events EventPublisher, l logger.Logger) *Service {
	if l == nil {
		l = logger.NewNoOpLogger()
	}
	return &Service{repo: repo, events: events, logger: l}
}

// Notify stores a notification and publishes it to the event queue.
// A publish failure never fails the request that created the notification.
func (s *Service) Notify(ctx context.Context, userID uuid.UUID, kind string, title string, message string) (models.Notification, error) {
	n, err := s.repo.Create(ctx, models.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
	})
	if err != nil {
		return n, err
	}

	if s.events != nil {
		if err := s.events.PublishNotificationCreated(ctx, n); err != nil {
			s.logger.Warn("notification event publish failed", "notification_id", n.ID, "error", err.Error())
		}
	}

	return n, nil
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	return s.repo.ListForUser(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) (models.Notification, error) {
	return s.repo.MarkRead(ctx, id, userID)
}
