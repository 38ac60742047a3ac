package models

import (
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	UserID    uuid.UUID
	Bio       string
	Location  string
	Interests string
	Languages string
	AvatarURL string
	UpdatedAt time.Time
}
