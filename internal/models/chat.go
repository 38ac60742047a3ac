package models

import (
	"time"

	"github.com/google/uuid"
)

// Chat invitation statuses
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationDeclined = "declined"
)

type ChatRoom struct {
	ID        uuid.UUID
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time

	Members     []ChatMember
	LastMessage *ChatMessage
}

type ChatMember struct {
	RoomID   uuid.UUID
	UserID   uuid.UUID
	JoinedAt time.Time
}

type ChatMessage struct {
	ID        uuid.UUID
	RoomID    uuid.UUID
	SenderID  uuid.UUID
	Content   string
	CreatedAt time.Time

	Sender *UserSummary
}

type ChatInvitation struct {
	ID         uuid.UUID
	RoomID     uuid.UUID
	FromUserID uuid.UUID
	ToUserID   uuid.UUID
	Status     string
	CreatedAt  time.Time
}
