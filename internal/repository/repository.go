package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dsim/backend/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// If user with email exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, email string, name string, role string, passwordHash string) (models.User, error)

	// Get user by id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	// Case insensitive search over email and name
	SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error)
}

// RefreshToken repository interface
// Tokens are looked up by the sha256 digest of the raw secret only
type RefreshTokenRepo interface {
	// Persist a new token record
	Save(ctx context.Context, token models.RefreshToken) error

	// Atomically mark the token revoked and return it with nothing leaked
	// about why a miss happened: absent, already revoked and expired records
	// all yield apperrors.ErrAuthInvalid. Exactly one of N concurrent calls
	// on the same digest may succeed.
	Consume(ctx context.Context, tokenHash string, now time.Time) (models.RefreshToken, error)

	// Revoke every active record with the digest. Idempotent: zero affected
	// rows is still success.
	Revoke(ctx context.Context, tokenHash string) error
}

type ProfileRepo interface {
	// Insert or update the profile of profile.UserID
	Upsert(ctx context.Context, profile models.Profile) (models.Profile, error)

	// If profile not found must return apperrors.ErrProfileNotFound
	GetByUserID(ctx context.Context, userID uuid.UUID) (models.Profile, error)
}

type TravelPostRepo interface {
	Create(ctx context.Context, post models.TravelPost) (models.TravelPost, error)

	// If post not found must return apperrors.ErrTravelPostNotFound
	// Creator summary is loaded along with the post
	GetByID(ctx context.Context, id uuid.UUID) (models.TravelPost, error)

	// Newest first. Empty destination means no filter.
	List(ctx context.Context, destination string) ([]models.TravelPost, error)
}

type FollowRepo interface {
	// Idempotent: following twice is not an error
	Save(ctx context.Context, followerID uuid.UUID, followingID uuid.UUID) error

	// Idempotent: deleting an absent follow is not an error
	Delete(ctx context.Context, followerID uuid.UUID, followingID uuid.UUID) error

	ListFollowers(ctx context.Context, userID uuid.UUID) ([]models.UserSummary, error)
	ListFollowing(ctx context.Context, userID uuid.UUID) ([]models.UserSummary, error)
}

type NotificationRepo interface {
	Create(ctx context.Context, n models.Notification) (models.Notification, error)

	// Newest first
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)

	// Mark as read only when the notification belongs to userID,
	// otherwise apperrors.ErrNotificationNotFound
	MarkRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) (models.Notification, error)
}

type ChatRepo interface {
	// Create room with the given members. Caller guarantees memberIDs exist.
	CreateRoom(ctx context.Context, title string, memberIDs []uuid.UUID) (models.ChatRoom, error)

	// If room not found must return apperrors.ErrRoomNotFound
	GetRoom(ctx context.Context, roomID uuid.UUID) (models.ChatRoom, error)

	// Rooms the user is member of, most recently updated first,
	// each with its last message if any
	ListRoomsForUser(ctx context.Context, userID uuid.UUID) ([]models.ChatRoom, error)

	IsMember(ctx context.Context, roomID uuid.UUID, userID uuid.UUID) (bool, error)

	// Idempotent membership insert
	AddMember(ctx context.Context, roomID uuid.UUID, userID uuid.UUID) error

	// Ascending by creation time, sender summaries included
	ListMessages(ctx context.Context, roomID uuid.UUID) ([]models.ChatMessage, error)

	SaveMessage(ctx context.Context, roomID uuid.UUID, senderID uuid.UUID, content string) (models.ChatMessage, error)

	CreateInvitation(ctx context.Context, roomID uuid.UUID, fromUserID uuid.UUID, toUserID uuid.UUID) (models.ChatInvitation, error)

	// If invitation not found must return apperrors.ErrInvitationNotFound
	GetInvitation(ctx context.Context, id uuid.UUID) (models.ChatInvitation, error)

	// Pending invitations addressed to the user, newest first
	ListPendingInvitations(ctx context.Context, userID uuid.UUID) ([]models.ChatInvitation, error)

	SetInvitationStatus(ctx context.Context, id uuid.UUID, status string) (models.ChatInvitation, error)
}

// Storage combines all repositories over one connection or transaction
type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo
	Profile() ProfileRepo
	TravelPost() TravelPostRepo
	Follow() FollowRepo
	Notification() NotificationRepo
	Chat() ChatRepo

	// Run fn within a database transaction
	InTx(ctx context.Context, fn func(s Storage) error) error
}
