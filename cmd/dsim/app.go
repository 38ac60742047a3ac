package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dsim/backend/internal/db"
	"github.com/dsim/backend/internal/handlers"
	"github.com/dsim/backend/internal/logger"
	"github.com/dsim/backend/internal/queue"
	"github.com/dsim/backend/internal/repository/postgres"
	"github.com/dsim/backend/internal/service/auth"
	"github.com/dsim/backend/internal/service/auth/tokenmanager"
	"github.com/dsim/backend/internal/service/chat"
	"github.com/dsim/backend/internal/service/follow"
	"github.com/dsim/backend/internal/service/notification"
	"github.com/dsim/backend/internal/service/travelpost"
	"github.com/dsim/backend/internal/service/user"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	// Released on shutdown, in order
	closers []func()
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	log, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	app := &ServerApp{ListenAddr: c.ListenAddr}
	app.closers = append(app.closers, pool.Close)

	storage := postgres.NewStorage(pool)

	tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: c.SecretKey}, storage.Refresh())
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	authService, err := auth.NewService(auth.Config{
		SecureCookies: c.Environment == logger.EnvProduction,
	}, tokenManager, storage.User())
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	// Notification events go to AMQP when a broker is configured
	var events notification.EventPublisher
	if c.AMQPURL != "" {
		publisher, err := queue.NewPublisher(c.AMQPURL)
		if err != nil {
			return nil, fmt.Errorf("error while connecting to amqp broker. Err: %w", err)
		}
		app.closers = append(app.closers, func() { _ = publisher.Close() })
		events = publisher
	}

	// Chat fan-out rides on redis when configured, otherwise stays in-process
	var broker chat.Broker
	if c.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		app.closers = append(app.closers, func() { _ = client.Close() })
		broker = chat.NewRedisBroker(client, log)
	}

	notificationService := notification.NewService(storage.Notification(), events, log)
	userService := user.NewService(storage.User(), storage.Profile())
	travelPostService := travelpost.NewService(storage.TravelPost())
	followService := follow.NewService(storage.User(), storage.Follow(), notificationService)
	chatService := chat.NewService(storage.Chat(), storage.User(), notificationService, broker)

	app.Handler = handlers.NewRouter(handlers.RouterConfig{
		Auth:           handlers.NewAuthHandler(authService, userService),
		Users:          handlers.NewUserHandler(userService),
		TravelPosts:    handlers.NewTravelPostHandler(travelPostService),
		Follows:        handlers.NewFollowHandler(followService),
		Chat:           handlers.NewChatHandler(chatService),
		Notifications:  handlers.NewNotificationHandler(notificationService),
		Guard:          authService,
		AllowedOrigins: c.FrontendOrigins,
		Logger:         log,
	})

	return app, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	for _, closeFn := range s.closers {
		closeFn()
	}

	return err
}
