package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/dsim/backend/internal/apperrors"
	"github.com/dsim/backend/internal/handlers/render"
	"github.com/dsim/backend/internal/handlers/userctx"
	"github.com/dsim/backend/internal/models"
)

// Dates in travel post payloads travel as plain calendar days
const dateLayout = "2006-01-02"

// session pulls the verified identity the auth middleware stored on the
// context. Routes calling this must be registered behind that middleware;
// a miss means a wiring bug, reported as 401 rather than a panic.
func session(w http.ResponseWriter, r *http.Request) (models.Session, bool) {
	s, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
	}
	return s, ok
}

// pathID parses the named path value as a UUID, rendering 400 on garbage
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		render.ServiceError(w, "Invalid identifier in path", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// serviceError maps known service failures onto HTTP statuses.
// Anything unmapped is a 500 with no detail leaked.
func serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrAuthInvalid):
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
	case errors.Is(err, apperrors.ErrUserNotFound):
		render.ServiceError(w, "User not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrProfileNotFound):
		render.ServiceError(w, "Profile not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrTravelPostNotFound):
		render.ServiceError(w, "Travel post not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrRoomNotFound):
		render.ServiceError(w, "Chat room not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrInvitationNotFound):
		render.ServiceError(w, "Invitation not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrNotificationNotFound):
		render.ServiceError(w, "Notification not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrNotRoomMember):
		render.ServiceError(w, "Not a member of this chat room", http.StatusForbidden)
	case errors.Is(err, apperrors.ErrFollowSelf):
		render.ServiceError(w, "Cannot follow yourself", http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrInvitationNotPending):
		render.ServiceError(w, "Invitation already answered", http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		render.ServiceError(w, "User with this email already exists", http.StatusConflict)
	default:
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}
