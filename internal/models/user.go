package models

import (
	"time"

	"github.com/google/uuid"
)

// User roles
const (
	RoleTraveler = "traveler"
	RoleGuide    = "guide"
	RoleAdmin    = "admin"
)

type User struct {
	ID           uuid.UUID
	CreatedAt    time.Time
	Email        string
	Name         string
	Role         string
	PasswordHash string
}

// Short user representation embedded in posts, messages and follow lists
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Email: u.Email, Name: u.Name}
}
