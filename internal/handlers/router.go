package handlers

import (
	"net/http"

	"github.com/dsim/backend/internal/handlers/middleware"
	"github.com/dsim/backend/internal/logger"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type RouterConfig struct {
	Auth          *AuthHandler
	Users         *UserHandler
	TravelPosts   *TravelPostHandler
	Follows       *FollowHandler
	Chat          *ChatHandler
	Notifications *NotificationHandler

	// Service backing the auth and csrf middlewares
	Guard interface {
		middleware.AuthService
		middleware.CSRFService
	}

	// Origins allowed to make credentialed browser calls
	AllowedOrigins []string

	Logger logger.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	authMW := middleware.NewAuth(cfg.Guard)
	csrfMW := middleware.NewCSRF(cfg.Guard)
	withAuth := func(h http.HandlerFunc) http.Handler {
		return authMW(h)
	}

	health := NewHealthHandler()

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", health.Check)

	mux.HandleFunc("POST /auth/signup", cfg.Auth.SignUp)
	mux.HandleFunc("POST /auth/signin", cfg.Auth.SignIn)
	// Refresh rides on a cookie alone, so it is the one rotation call that
	// needs the CSRF check. Logout stays unguarded: forcing a logout is not
	// a useful forgery.
	mux.Handle("POST /auth/refresh", csrfMW(http.HandlerFunc(cfg.Auth.Refresh)))
	mux.HandleFunc("POST /auth/logout", cfg.Auth.Logout)
	mux.Handle("GET /auth/me", withAuth(cfg.Auth.Me))

	mux.Handle("GET /users/search", withAuth(cfg.Users.Search))
	mux.HandleFunc("GET /profiles/{userId}", cfg.Users.GetProfile)
	mux.Handle("PUT /profiles", withAuth(cfg.Users.UpsertProfile))

	mux.HandleFunc("GET /travel-posts", cfg.TravelPosts.List)
	mux.HandleFunc("GET /travel-posts/{id}", cfg.TravelPosts.Get)
	mux.Handle("POST /travel-posts", withAuth(cfg.TravelPosts.Create))

	mux.Handle("POST /follows/{userId}", withAuth(cfg.Follows.Follow))
	mux.Handle("DELETE /follows/{userId}", withAuth(cfg.Follows.Unfollow))
	mux.Handle("GET /follows/followers", withAuth(cfg.Follows.ListFollowers))
	mux.Handle("GET /follows/following", withAuth(cfg.Follows.ListFollowing))

	mux.Handle("POST /chat/rooms", withAuth(cfg.Chat.CreateRoom))
	mux.Handle("GET /chat/rooms", withAuth(cfg.Chat.ListRooms))
	mux.Handle("GET /chat/rooms/{id}/messages", withAuth(cfg.Chat.ListMessages))
	mux.Handle("POST /chat/rooms/{id}/messages", withAuth(cfg.Chat.SendMessage))
	mux.Handle("GET /chat/rooms/{id}/stream", withAuth(cfg.Chat.Stream))
	mux.Handle("POST /chat/rooms/{id}/invitations", withAuth(cfg.Chat.Invite))
	mux.Handle("GET /chat/invitations", withAuth(cfg.Chat.ListInvitations))
	mux.Handle("POST /chat/invitations/{id}/respond", withAuth(cfg.Chat.RespondInvitation))

	mux.Handle("GET /notifications", withAuth(cfg.Notifications.List))
	mux.Handle("PATCH /notifications/{id}/read", withAuth(cfg.Notifications.MarkRead))

	return chain(mux,
		middleware.NewLogger(cfg.Logger),
		middleware.NewCORS(cfg.AllowedOrigins),
	)
}
