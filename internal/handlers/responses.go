package handlers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dsim/backend/internal/models"
)

// JSON shapes returned to the frontend. Field names follow the camelCase
// convention the web client expects.

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserResponse(u models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

type ProfileResponse struct {
	UserID    uuid.UUID `json:"userId"`
	Bio       string    `json:"bio"`
	Location  string    `json:"location"`
	Interests string    `json:"interests"`
	Languages string    `json:"languages"`
	AvatarURL string    `json:"avatarUrl"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toProfileResponse(p models.Profile) ProfileResponse {
	return ProfileResponse{
		UserID:    p.UserID,
		Bio:       p.Bio,
		Location:  p.Location,
		Interests: p.Interests,
		Languages: p.Languages,
		AvatarURL: p.AvatarURL,
		UpdatedAt: p.UpdatedAt,
	}
}

type TravelPostResponse struct {
	ID          uuid.UUID           `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Destination string              `json:"destination"`
	StartDate   *string             `json:"startDate"`
	EndDate     *string             `json:"endDate"`
	Budget      *decimal.Decimal    `json:"budget"`
	CreatedAt   time.Time           `json:"createdAt"`
	Creator     *models.UserSummary `json:"creator,omitempty"`
}

func toTravelPostResponse(p models.TravelPost) TravelPostResponse {
	resp := TravelPostResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Destination: p.Destination,
		CreatedAt:   p.CreatedAt,
		Creator:     p.Creator,
	}
	if p.StartDate != nil {
		d := p.StartDate.Format(dateLayout)
		resp.StartDate = &d
	}
	if p.EndDate != nil {
		d := p.EndDate.Format(dateLayout)
		resp.EndDate = &d
	}
	if p.Budget.Valid {
		b := p.Budget.Decimal
		resp.Budget = &b
	}
	return resp
}

func toTravelPostResponses(posts []models.TravelPost) []TravelPostResponse {
	out := make([]TravelPostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toTravelPostResponse(p))
	}
	return out
}

type ChatMessageResponse struct {
	ID        uuid.UUID           `json:"id"`
	RoomID    uuid.UUID           `json:"roomId"`
	Content   string              `json:"content"`
	CreatedAt time.Time           `json:"createdAt"`
	Sender    *models.UserSummary `json:"sender,omitempty"`
}

func toChatMessageResponse(m models.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		ID:        m.ID,
		RoomID:    m.RoomID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		Sender:    m.Sender,
	}
}

type ChatRoomResponse struct {
	ID          uuid.UUID            `json:"id"`
	Title       string               `json:"title"`
	MemberIDs   []uuid.UUID          `json:"memberIds"`
	LastMessage *ChatMessageResponse `json:"lastMessage,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

func toChatRoomResponse(r models.ChatRoom) ChatRoomResponse {
	memberIDs := make([]uuid.UUID, 0, len(r.Members))
	for _, m := range r.Members {
		memberIDs = append(memberIDs, m.UserID)
	}

	resp := ChatRoomResponse{
		ID:        r.ID,
		Title:     r.Title,
		MemberIDs: memberIDs,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.LastMessage != nil {
		msg := toChatMessageResponse(*r.LastMessage)
		resp.LastMessage = &msg
	}
	return resp
}

type ChatInvitationResponse struct {
	ID         uuid.UUID `json:"id"`
	RoomID     uuid.UUID `json:"roomId"`
	FromUserID uuid.UUID `json:"fromUserId"`
	ToUserID   uuid.UUID `json:"toUserId"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toChatInvitationResponse(i models.ChatInvitation) ChatInvitationResponse {
	return ChatInvitationResponse(i)
}

type NotificationResponse struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

func toNotificationResponse(n models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}
