package container

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/ourbooktalk/booktalk-backend/app/db"
	"github.com/ourbooktalk/booktalk-backend/config"
	"github.com/ourbooktalk/booktalk-backend/internal/api/auth"
	"github.com/ourbooktalk/booktalk-backend/internal/api/book"
	"github.com/ourbooktalk/booktalk-backend/internal/api/order"
	"github.com/ourbooktalk/booktalk-backend/internal/api/user"
	"github.com/ourbooktalk/booktalk-backend/internal/api/video"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	Pool   *pgxpool.Pool

	AuthService auth.AuthService

	AuthHandler  *auth.AuthHandler
	UserHandler  *user.UserHandler
	VideoHandler *video.VideoHandler
	BookHandler  *book.BookHandler
	OrderHandler *order.OrderHandler
}

// NewContainer initializes and returns a new dependency container
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	authRepo := auth.NewPostgresAuthRepo(pool, logger)
	authService := auth.NewAuthService(authRepo, cfg.JWT, logger)
	authHandler := auth.NewAuthHandler(authService, logger)

	userRepo := user.NewPostgresUserRepo(pool, logger)
	userService := user.NewUserService(userRepo, logger)
	userHandler := user.NewUserHandler(userService, logger)

	videoRepo := video.NewPostgresVideoRepo(pool, logger)
	videoService := video.NewVideoService(videoRepo, logger)
	videoHandler := video.NewVideoHandler(videoService, logger)

	bookRepo := book.NewPostgresBookRepo(pool, logger)
	bookService := book.NewBookService(bookRepo, logger)
	bookHandler := book.NewBookHandler(bookService, logger)

	orderRepo := order.NewPostgresOrderRepo(pool, logger)
	orderService := order.NewOrderService(orderRepo, logger)
	orderHandler := order.NewOrderHandler(orderService, logger)

	return &Container{
		Config:       cfg,
		Logger:       logger,
		Pool:         pool,
		AuthService:  authService,
		AuthHandler:  authHandler,
		UserHandler:  userHandler,
		VideoHandler: videoHandler,
		BookHandler:  bookHandler,
		OrderHandler: orderHandler,
	}, nil
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}

// RunMigrations runs database migrations
func (c *Container) RunMigrations(connectionURL string) error {
	return database.RunMigrations(connectionURL, c.Logger)
}
