package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	// Deliberately generic: unknown email, wrong password and a missing,
	// revoked or expired refresh token all collapse here, so the caller can
	// never tell which check failed.
	ErrAuthInvalid = errors.New("invalid credentials or token")

	ErrProfileNotFound = errors.New("profile not found")

	ErrTravelPostNotFound = errors.New("travel post not found")

	ErrFollowSelf = errors.New("can't follow yourself")

	ErrRoomNotFound         = errors.New("chat room not found")
	ErrNotRoomMember        = errors.New("not a member of the chat room")
	ErrInvitationNotFound   = errors.New("invitation not found")
	ErrInvitationNotPending = errors.New("invitation already responded")

	ErrNotificationNotFound = errors.New("notification not found")
)
