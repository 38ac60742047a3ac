package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/dsim/backend/internal/handlers/render"
	"github.com/dsim/backend/internal/models"
)

type chatService interface {
	CreateRoom(ctx context.Context, session models.Session, title string, participantIDs []uuid.UUID) (models.ChatRoom, error)
	ListRooms(ctx context.Context, userID uuid.UUID) ([]models.ChatRoom, error)
	ListMessages(ctx context.Context, userID uuid.UUID, roomID uuid.UUID) ([]models.ChatMessage, error)
	SendMessage(ctx context.Context, session models.Session, roomID uuid.UUID, content string) (models.ChatMessage, error)
	Stream(ctx context.Context, userID uuid.UUID, roomID uuid.UUID) (<-chan models.ChatMessage, func(), error)
	Invite(ctx context.Context, session models.Session, roomID uuid.UUID, toUserID uuid.UUID) (models.ChatInvitation, error)
	ListInvitations(ctx context.Context, userID uuid.UUID) ([]models.ChatInvitation, error)
	RespondInvitation(ctx context.Context, userID uuid.UUID, invitationID uuid.UUID, accept bool) (models.ChatInvitation, error)
}

type ChatHandler struct {
	chat chatService
}

func NewChatHandler(chat chatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type CreateRoomRequest struct {
	Title          string      `json:"title" validate:"required,max=200"`
	ParticipantIDs []uuid.UUID `json:"participantIds"`
}

func (h *ChatHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	req, err := render.BindAndValidate[CreateRoomRequest](w, r)
	if err != nil {
		return
	}

	room, err := h.chat.CreateRoom(r.Context(), s, req.Title, req.ParticipantIDs)
	if err != nil {
		serviceError(w, err)
		return
	}

	render.JSONWithStatus(w, toChatRoomResponse(room), http.StatusCreated)
}

func (h *ChatHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	rooms, err := h.chat.ListRooms(r.Context(), s.UserID)
	if err != nil {
		serviceError(w, err)
		return
	}

	out := make([]ChatRoomResponse, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toChatRoomResponse(room))
	}
	render.JSON(w, out)
}

func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	roomID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	messages, err := h.chat.ListMessages(r.Context(), s.UserID, roomID)
	if err != nil {
		serviceError(w, err)
		return
	}

	out := make([]ChatMessageResponse, 0, len(messages))
	for _, msg := range messages {
		out = append(out, toChatMessageResponse(msg))
	}
	render.JSON(w, out)
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	roomID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	req, err := render.BindAndValidate[SendMessageRequest](w, r)
	if err != nil {
		return
	}

	msg, err := h.chat.SendMessage(r.Context(), s, roomID, req.Content)
	if err != nil {
		serviceError(w, err)
		return
	}

	render.JSONWithStatus(w, toChatMessageResponse(msg), http.StatusCreated)
}

// Stream pushes room messages to the client as server-sent events until the
// client disconnects
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	roomID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	messages, stop, err := h.chat.Stream(r.Context(), s.UserID, roomID)
	if err != nil {
		serviceError(w, err)
		return
	}
	defer stop()

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	_ = rc.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, open := <-messages:
			if !open {
				return
			}

			payload, err := json.Marshal(toChatMessageResponse(msg))
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

type InviteRequest struct {
	UserID uuid.UUID `json:"userId" validate:"required"`
}

func (h *ChatHandler) Invite(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	roomID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	req, err := render.BindAndValidate[InviteRequest](w, r)
	if err != nil {
		return
	}

	invitation, err := h.chat.Invite(r.Context(), s, roomID, req.UserID)
	if err != nil {
		serviceError(w, err)
		return
	}

	render.JSONWithStatus(w, toChatInvitationResponse(invitation), http.StatusCreated)
}

func (h *ChatHandler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	invitations, err := h.chat.ListInvitations(r.Context(), s.UserID)
	if err != nil {
		serviceError(w, err)
		return
	}

	out := make([]ChatInvitationResponse, 0, len(invitations))
	for _, inv := range invitations {
		out = append(out, toChatInvitationResponse(inv))
	}
	render.JSON(w, out)
}

type RespondInvitationRequest struct {
	Action string `json:"action" validate:"required,oneof=accept decline"`
}

func (h *ChatHandler) RespondInvitation(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	invitationID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	req, err := render.BindAndValidate[RespondInvitationRequest](w, r)
	if err != nil {
		return
	}

	invitation, err := h.chat.RespondInvitation(r.Context(), s.UserID, invitationID, req.Action == "accept")
	if err != nil {
		serviceError(w, err)
		return
	}

	render.JSON(w, toChatInvitationResponse(invitation))
}
