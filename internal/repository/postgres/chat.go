package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dsim/backend/internal/apperrors"
	"github.com/dsim/backend/internal/models"
)

type ChatRepo struct {
	DB DBTX
}

const createRoom = `-- name: CreateChatRoom
INSERT INTO chat_rooms (id, title)
VALUES ($1, $2)
RETURNING id, title, created_at, updated_at
`

const addMember = `-- name: AddChatMember
INSERT INTO chat_members (room_id, user_id)
VALUES ($1, $2)
ON CONFLICT (room_id, user_id) DO NOTHING
`

func (r *ChatRepo) CreateRoom(ctx context.Context, title string, memberIDs []uuid.UUID) (models.ChatRoom, error) {
	rows, _ := r.DB.Query(ctx, createRoom, uuid.New(), title)
	room, err := pgx.CollectOneRow(rows, rowToChatRoom)
	if err != nil {
		return room, fmt.Errorf("db error: %w", err)
	}

	for _, id := range memberIDs {
		if _, err := r.DB.Exec(ctx, addMember, room.ID, id); err != nil {
			return room, fmt.Errorf("db error: %w", err)
		}
		room.Members = append(room.Members, models.ChatMember{RoomID: room.ID, UserID: id})
	}

	return room, nil
}

const getRoom = `-- name: GetChatRoom
SELECT id, title, created_at, updated_at
FROM chat_rooms
WHERE id = $1
`

func (r *ChatRepo) GetRoom(ctx context.Context, roomID uuid.UUID) (models.ChatRoom, error) {
	rows, _ := r.DB.Query(ctx, getRoom, roomID)
	room, err := pgx.CollectOneRow(rows, rowToChatRoom)

	switch {
	case err == nil:
		return room, nil
	case errors.Is(err, pgx.ErrNoRows):
		return room, apperrors.ErrRoomNotFound
	default:
		return room, fmt.Errorf("db error: %w", err)
	}
}

const listRoomsForUser = `-- name: ListChatRoomsForUser
SELECT r.id, r.title, r.created_at, r.updated_at
FROM chat_rooms r
JOIN chat_members m ON m.room_id = r.id
WHERE m.user_id = $1
ORDER BY r.updated_at DESC
`

const lastMessage = `-- name: LastChatMessage
SELECT msg.id, msg.room_id, msg.sender_id, msg.content, msg.created_at,
       u.id, u.email, u.name
FROM chat_messages msg
JOIN users u ON u.id = msg.sender_id
WHERE msg.room_id = $1
ORDER BY msg.created_at DESC
LIMIT 1
`

const listRoomMembers = `-- name: ListChatRoomMembers
SELECT room_id, user_id, joined_at
FROM chat_members
WHERE room_id = $1
ORDER BY joined_at
`

func (r *ChatRepo) ListRoomsForUser(ctx context.Context, userID uuid.UUID) ([]models.ChatRoom, error) {
	rows, _ := r.DB.Query(ctx, listRoomsForUser, userID)
	rooms, err := pgx.CollectRows(rows, rowToChatRoom)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	for i := range rooms {
		memberRows, _ := r.DB.Query(ctx, listRoomMembers, rooms[i].ID)
		members, err := pgx.CollectRows(memberRows, rowToChatMember)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		rooms[i].Members = members

		msgRows, _ := r.DB.Query(ctx, lastMessage, rooms[i].ID)
		msg, err := pgx.CollectOneRow(msgRows, rowToChatMessage)
		switch {
		case err == nil:
			rooms[i].LastMessage = &msg
		case errors.Is(err, pgx.ErrNoRows):
			// room has no messages yet
		default:
			return nil, fmt.Errorf("db error: %w", err)
		}
	}

	return rooms, nil
}

const isMember = `-- name: IsChatMember
SELECT EXISTS (
    SELECT 1 FROM chat_members WHERE room_id = $1 AND user_id = $2
)
`

func (r *ChatRepo) IsMember(ctx context.Context, roomID uuid.UUID, userID uuid.UUID) (bool, error) {
	var member bool
	err := r.DB.QueryRow(ctx, isMember, roomID, userID).Scan(&member)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return member, nil
}

func (r *ChatRepo) AddMember(ctx context.Context, roomID uuid.UUID, userID uuid.UUID) error {
	_, err := r.DB.Exec(ctx, addMember, roomID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const listMessages = `-- name: ListChatMessages
SELECT msg.id, msg.room_id, msg.sender_id, msg.content, msg.created_at,
       u.id, u.email, u.name
FROM chat_messages msg
JOIN users u ON u.id = msg.sender_id
WHERE msg.room_id = $1
ORDER BY msg.created_at
`

func (r *ChatRepo) ListMessages(ctx context.Context, roomID uuid.UUID) ([]models.ChatMessage, error) {
	rows, _ := r.DB.Query(ctx, listMessages, roomID)
	messages, err := pgx.CollectRows(rows, rowToChatMessage)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return messages, nil
}

const saveMessage = `-- name: SaveChatMessage
WITH msg AS (
    INSERT INTO chat_messages (id, room_id, sender_id, content)
    VALUES ($1, $2, $3, $4)
    RETURNING id, room_id, sender_id, content, created_at
), bump AS (
    UPDATE chat_rooms SET updated_at = now() WHERE id = $2
)
SELECT msg.id, msg.room_id, msg.sender_id, msg.content, msg.created_at,
       u.id, u.email, u.name
FROM msg
JOIN users u ON u.id = msg.sender_id
`

func (r *ChatRepo) SaveMessage(ctx context.Context, roomID uuid.UUID, senderID uuid.UUID, content string) (models.ChatMessage, error) {
	rows, _ := r.DB.Query(ctx, saveMessage, uuid.New(), roomID, senderID, content)
	msg, err := pgx.CollectOneRow(rows, rowToChatMessage)
	if err != nil {
		return msg, fmt.Errorf("db error: %w", err)
	}
	return msg, nil
}

const createInvitation = `-- name: CreateChatInvitation
INSERT INTO chat_invitations (id, room_id, from_user_id, to_user_id)
VALUES ($1, $2, $3, $4)
RETURNING id, room_id, from_user_id, to_user_id, status, created_at
`

func (r *ChatRepo) CreateInvitation(ctx context.Context, roomID uuid.UUID, fromUserID uuid.UUID, toUserID uuid.UUID) (models.ChatInvitation, error) {
	rows, _ := r.DB.Query(ctx, createInvitation, uuid.New(), roomID, fromUserID, toUserID)
	invitation, err := pgx.CollectOneRow(rows, rowToChatInvitation)
	if err != nil {
		return invitation, fmt.Errorf("db error: %w", err)
	}
	return invitation, nil
}

const getInvitation = `-- name: GetChatInvitation
SELECT id, room_id, from_user_id, to_user_id, status, created_at
FROM chat_invitations
WHERE id = $1
`

func (r *ChatRepo) GetInvitation(ctx context.Context, id uuid.UUID) (models.ChatInvitation, error) {
	rows, _ := r.DB.Query(ctx, getInvitation, id)
	invitation, err := pgx.CollectOneRow(rows, rowToChatInvitation)

	switch {
	case err == nil:
		return invitation, nil
	case errors.Is(err, pgx.ErrNoRows):
		return invitation, apperrors.ErrInvitationNotFound
	default:
		return invitation, fmt.Errorf("db error: %w", err)
	}
}

const listPendingInvitations = `-- name: ListPendingChatInvitations
SELECT id, room_id, from_user_id, to_user_id, status, created_at
FROM chat_invitations
WHERE to_user_id = $1 AND status = 'pending'
ORDER BY created_at DESC
`

func (r *ChatRepo) ListPendingInvitations(ctx context.Context, userID uuid.UUID) ([]models.ChatInvitation, error) {
	rows, _ := r.DB.Query(ctx, listPendingInvitations, userID)
	invitations, err := pgx.CollectRows(rows, rowToChatInvitation)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return invitations, nil
}

const setInvitationStatus = `-- name: SetChatInvitationStatus
UPDATE chat_invitations
SET status = $2
WHERE id = $1
RETURNING id, room_id, from_user_id, to_user_id, status, created_at
`

func (r *ChatRepo) SetInvitationStatus(ctx context.Context, id uuid.UUID, status string) (models.ChatInvitation, error) {
	rows, _ := r.DB.Query(ctx, setInvitationStatus, id, status)
	invitation, err := pgx.CollectOneRow(rows, rowToChatInvitation)

	switch {
	case err == nil:
		return invitation, nil
	case errors.Is(err, pgx.ErrNoRows):
		return invitation, apperrors.ErrInvitationNotFound
	default:
		return invitation, fmt.Errorf("db error: %w", err)
	}
}

func rowToChatRoom(row pgx.CollectableRow) (models.ChatRoom, error) {
	var r models.ChatRoom
	err := row.Scan(&r.ID, &r.Title, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func rowToChatMember(row pgx.CollectableRow) (models.ChatMember, error) {
	var m models.ChatMember
	err := row.Scan(&m.RoomID, &m.UserID, &m.JoinedAt)
	return m, err
}

func rowToChatMessage(row pgx.CollectableRow) (models.ChatMessage, error) {
	var m models.ChatMessage
	var sender models.UserSummary
	err := row.Scan(&m.ID, &m.RoomID, &m.SenderID, &m.Content, &m.CreatedAt,
		&sender.ID, &sender.Email, &sender.Name)
	if err != nil {
		return m, err
	}
	m.Sender = &sender
	return m, nil
}

func rowToChatInvitation(row pgx.CollectableRow) (models.ChatInvitation, error) {
	var i models.ChatInvitation
	err := row.Scan(&i.ID, &i.RoomID, &i.FromUserID, &i.ToUserID, &i.Status, &i.CreatedAt)
	return i, err
}
