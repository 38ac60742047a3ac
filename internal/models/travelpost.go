package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TravelPost struct {
	ID          uuid.UUID
	CreatorID   uuid.UUID
	Title       string
	Description string
	Destination string
	StartDate   *time.Time
	EndDate     *time.Time
	Budget      decimal.NullDecimal
	CreatedAt   time.Time

	// Filled when the post is loaded together with its creator
	Creator *UserSummary
}
