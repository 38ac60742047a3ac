package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken persisted record
// Holds the sha256 digest of the raw secret only, never the secret itself
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	Revoked   bool
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued by TokenManager, AuthService
// Refresh carries the raw secret; it exists only in the response to the user
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
