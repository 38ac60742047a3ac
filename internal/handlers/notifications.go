package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/dsim/backend/internal/handlers/render"
	"github.com/dsim/backend/internal/models"
)

type notificationService interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) (models.Notification, error)
}

type NotificationHandler struct {
	notifications notificationService
}

func NewNotificationHandler(notifications notificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	notifications, err := h.notifications.ListForUser(r.Context(), s.UserID)
	if err != nil {
		serviceError(w, err)
		return
	}

	out := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, toNotificationResponse(n))
	}
	render.JSON(w, out)
}

// MarkRead flags the caller's notification as read. Foreign notifications
// are indistinguishable from absent ones.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	n, err := h.notifications.MarkRead(r.Context(), id, s.UserID)
	if err != nil {
		serviceError(w, err)
		return
	}

	render.JSON(w, toNotificationResponse(n))
}
