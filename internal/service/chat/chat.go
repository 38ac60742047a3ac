package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dsim/backend/internal/apperrors"
	"github.com/dsim/backend/internal/models"
	"github.com/dsim/backend/internal/repository"
)

// Notifier stores a notification for the user
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind string, title string, message string) (models.Notification, error)
}

type Service struct {
	rooms    repository.ChatRepo
	users    repository.UserRepo
	notifier Notifier
	broker   Broker
}

func NewService(rooms repository.ChatRepo, users repository.UserRepo, notifier Notifier, broker Broker) *Service {
	if broker == nil {
		broker = NewLocalBroker()
	}
	return &Service{rooms: rooms, users: users, notifier: notifier, broker: broker}
}

// CreateRoom creates a chat room with the caller and the given participants
// as members. Every participant must exist.
func (s *Service) CreateRoom(ctx context.Context, session models.Session, title string, participantIDs []uuid.UUID) (models.ChatRoom, error) {
	seen := map[uuid.UUID]struct{}{session.UserID: {}}
	memberIDs := []uuid.UUID{session.UserID}
	for _, id := range participantIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		memberIDs = append(memberIDs, id)
	}

	for _, id := range memberIDs {
		if _, err := s.users.GetUserByID(ctx, id); err != nil {
			if errors.Is(err, apperrors.ErrUserNotFound) {
				return models.ChatRoom{}, fmt.Errorf("participant %s: %w", id, apperrors.ErrUserNotFound)
			}
			return models.ChatRoom{}, err
		}
	}

	return s.rooms.CreateRoom(ctx, title, memberIDs)
}

func (s *Service) ListRooms(ctx context.Context, userID uuid.UUID) ([]models.ChatRoom, error) {
	return s.rooms.ListRoomsForUser(ctx, userID)
}

func (s *Service) ListMessages(ctx context.Context, userID uuid.UUID, roomID uuid.UUID) ([]models.ChatMessage, error) {
	if err := s.requireMember(ctx, roomID, userID); err != nil {
		return nil, err
	}
	return s.rooms.ListMessages(ctx, roomID)
}

// SendMessage stores the message and fans it out to room subscribers
func (s *Service) SendMessage(ctx context.Context, session models.Session, roomID uuid.UUID, content string) (models.ChatMessage, error) {
	if err := s.requireMember(ctx, roomID, session.UserID); err != nil {
		return models.ChatMessage{}, err
	}

	msg, err := s.rooms.SaveMessage(ctx, roomID, session.UserID, content)
	if err != nil {
		return msg, err
	}

	if err := s.broker.Publish(ctx, roomID, msg); err != nil {
		// Message is stored; subscribers will see it on reload
		return msg, nil
	}

	return msg, nil
}

// Stream subscribes the member to live room messages. The returned stop
// function must be called when the consumer is done.
func (s *Service) Stream(ctx context.Context, userID uuid.UUID, roomID uuid.UUID) (<-chan models.ChatMessage, func(), error) {
	if err := s.requireMember(ctx, roomID, userID); err != nil {
		return nil, nil, err
	}
	return s.broker.Subscribe(ctx, roomID)
}

// Invite asks an existing user into the room and notifies them
func (s *Service) Invite(ctx context.Context, session models.Session, roomID uuid.UUID, toUserID uuid.UUID) (models.ChatInvitation, error) {
	if _, err := s.rooms.GetRoom(ctx, roomID); err != nil {
		return models.ChatInvitation{}, err
	}

	if err := s.requireMember(ctx, roomID, session.UserID); err != nil {
		return models.ChatInvitation{}, err
	}

	if _, err := s.users.GetUserByID(ctx, toUserID); err != nil {
		return models.ChatInvitation{}, err
	}

	invitation, err := s.rooms.CreateInvitation(ctx, roomID, session.UserID, toUserID)
	if err != nil {
		return invitation, err
	}

	_, err = s.notifier.Notify(ctx, toUserID,
		models.NotificationChatInvite,
		"Chat invitation",
		fmt.Sprintf("%s invited you to a chat room", session.Email),
	)
	if err != nil {
		return invitation, err
	}

	return invitation, nil
}

func (s *Service) ListInvitations(ctx context.Context, userID uuid.UUID) ([]models.ChatInvitation, error) {
	return s.rooms.ListPendingInvitations(ctx, userID)
}

// RespondInvitation accepts or declines a pending invitation addressed to
// the caller. Accepting joins the room; membership insert is idempotent.
func (s *Service) RespondInvitation(ctx context.Context, userID uuid.UUID, invitationID uuid.UUID, accept bool) (models.ChatInvitation, error) {
	invitation, err := s.rooms.GetInvitation(ctx, invitationID)
	if err != nil {
		return invitation, err
	}

	// Foreign invitations look exactly like absent ones
	if invitation.ToUserID != userID {
		return models.ChatInvitation{}, apperrors.ErrInvitationNotFound
	}

	if invitation.Status != models.InvitationPending {
		return models.ChatInvitation{}, apperrors.ErrInvitationNotPending
	}

	status := models.InvitationDeclined
	if accept {
		status = models.InvitationAccepted
	}

	invitation, err = s.rooms.SetInvitationStatus(ctx, invitationID, status)
	if err != nil {
		return invitation, err
	}

	if accept {
		if err := s.rooms.AddMember(ctx, invitation.RoomID, userID); err != nil {
			return invitation, err
		}
	}

	return invitation, nil
}

func (s *Service) requireMember(ctx context.Context, roomID uuid.UUID, userID uuid.UUID) error {
	member, err := s.rooms.IsMember(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !member {
		return apperrors.ErrNotRoomMember
	}
	return nil
}
