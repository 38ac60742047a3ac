package models

import (
	"time"

	"github.com/google/uuid"
)

type Follow struct {
	FollowerID  uuid.UUID
	FollowingID uuid.UUID
	CreatedAt   time.Time
}

// Notification types
const (
	NotificationFollow     = "follow"
	NotificationChatInvite = "chat_invite"
)

type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Type      string
	Title     string
	Message   string
	Read      bool
	CreatedAt time.Time
}
