package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dsim/backend/internal/handlers/render"
	"github.com/dsim/backend/internal/models"
	"github.com/dsim/backend/internal/service/travelpost"
)

type travelPostService interface {
	Create(ctx context.Context, creatorID uuid.UUID, in travelpost.CreateInput) (models.TravelPost, error)
	Get(ctx context.Context, id uuid.UUID) (models.TravelPost, error)
	List(ctx context.Context, destination string) ([]models.TravelPost, error)
}

type TravelPostHandler struct {
	posts travelPostService
}

func NewTravelPostHandler(posts travelPostService) *TravelPostHandler {
	return &TravelPostHandler{posts: posts}
}

type CreateTravelPostRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Destination string `json:"destination" validate:"required,max=200"`
	StartDate   string `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate     string `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	Budget      string `json:"budget"`
}

func (h *TravelPostHandler) Create(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	req, err := render.BindAndValidate[CreateTravelPostRequest](w, r)
	if err != nil {
		return
	}

	in := travelpost.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Destination: req.Destination,
	}

	if req.StartDate != "" {
		d, _ := time.Parse(dateLayout, req.StartDate)
		in.StartDate = &d
	}
	if req.EndDate != "" {
		d, _ := time.Parse(dateLayout, req.EndDate)
		in.EndDate = &d
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		render.ServiceError(w, "End date must not be before start date", http.StatusBadRequest)
		return
	}

	if req.Budget != "" {
		budget, err := decimal.NewFromString(req.Budget)
		if err != nil || budget.IsNegative() {
			render.ServiceError(w, "Budget must be a non-negative number", http.StatusBadRequest)
			return
		}
		in.Budget = decimal.NullDecimal{Decimal: budget, Valid: true}
	}

	post, err := h.posts.Create(r.Context(), s.UserID, in)
	if err != nil {
		serviceError(w, err)
		return
	}

	render.JSONWithStatus(w, toTravelPostResponse(post), http.StatusCreated)
}

func (h *TravelPostHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	post, err := h.posts.Get(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}

	render.JSON(w, toTravelPostResponse(post))
}

// List returns posts newest first, optionally filtered by the
// "destination" query param
func (h *TravelPostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.List(r.Context(), r.URL.Query().Get("destination"))
	if err != nil {
		serviceError(w, err)
		return
	}

	render.JSON(w, toTravelPostResponses(posts))
}
