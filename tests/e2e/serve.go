package e2e

import (
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stretchr/testify/require"

	"github.com/dsim/backend/internal/handlers"
	"github.com/dsim/backend/internal/logger"
	"github.com/dsim/backend/internal/repository/postgres"
	"github.com/dsim/backend/internal/service/auth"
	"github.com/dsim/backend/internal/service/auth/tokenmanager"
	"github.com/dsim/backend/internal/service/chat"
	"github.com/dsim/backend/internal/service/follow"
	"github.com/dsim/backend/internal/service/notification"
	"github.com/dsim/backend/internal/service/travelpost"
	"github.com/dsim/backend/internal/service/user"
	"github.com/dsim/backend/internal/testutil"
)

type Services struct {
	AuthService         *auth.AuthService
	UserService         *user.Service
	TravelPostService   *travelpost.Service
	FollowService       *follow.Service
	ChatService         *chat.Service
	NotificationService *notification.Service
}

// Create db transaction and run server in with that connection (one connection cause one transaction)
// The created transaction passed to inner function: so, you can safely use testutil.WithTx with it
func ServeWithTx(dbpool *pgxpool.Pool, t *testing.T, fn func(tx pgx.Tx, srvURL string, services Services)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		storage := postgres.NewStorage(tx)

		tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: "test-secret"}, storage.Refresh())
		require.NoError(t, err, "token manager should be created without errors")

		as, err := auth.NewService(auth.Config{}, tokenManager, storage.User())
		require.NoError(t, err, "auth service starting error", err)

		ns := notification.NewService(storage.Notification(), nil, nil)
		us := user.NewService(storage.User(), storage.Profile())
		ts := travelpost.NewService(storage.TravelPost())
		fs := follow.NewService(storage.User(), storage.Follow(), ns)
		cs := chat.NewService(storage.Chat(), storage.User(), ns, nil)

		router := handlers.NewRouter(handlers.RouterConfig{
			Auth:           handlers.NewAuthHandler(as, us),
			Users:          handlers.NewUserHandler(us),
			TravelPosts:    handlers.NewTravelPostHandler(ts),
			Follows:        handlers.NewFollowHandler(fs),
			Chat:           handlers.NewChatHandler(cs),
			Notifications:  handlers.NewNotificationHandler(ns),
			Guard:          as,
			AllowedOrigins: []string{"http://localhost:3000"},
			Logger:         logger.NewNoOpLogger(),
		})

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, Services{
			AuthService:         as,
			UserService:         us,
			TravelPostService:   ts,
			FollowService:       fs,
			ChatService:         cs,
			NotificationService: ns,
		})
	})
}
