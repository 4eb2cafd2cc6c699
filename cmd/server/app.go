package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/tasksphere/shareme-api/internal/api"
	"github.com/tasksphere/shareme-api/internal/api/middleware"
	"github.com/tasksphere/shareme-api/internal/config"
	"github.com/tasksphere/shareme-api/internal/platform/filestore"
	"github.com/tasksphere/shareme-api/internal/platform/postgres"
	"github.com/tasksphere/shareme-api/internal/platform/redisstore"
	"github.com/tasksphere/shareme-api/internal/service"
	"github.com/tasksphere/shareme-api/internal/service/auth"
	"github.com/tasksphere/shareme-api/internal/store"
)

// application holds the shared dependencies and owns their cleanup.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	redis  redis.UniversalClient

	userStore       store.UserStore
	projectStore    store.ProjectStore
	taskStore       store.TaskStore
	noteStore       store.NoteStore
	attachmentStore store.AttachmentStore
	resetTokenStore store.ResetTokenStore
	fileStore       store.FileStore

	jwtService auth.JWTService

	authService       service.AuthService
	projectService    service.ProjectService
	taskService       service.TaskService
	noteService       service.NoteService
	attachmentService service.AttachmentService
}

// newApplication wires stores, services and the JWT service. db and
// redisClient must already be connected.
func newApplication(
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
	redisClient redis.UniversalClient,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes),
		slog.Int("refresh_token_lifetime_minutes", cfg.Auth.RefreshTokenLifetimeMinutes))

	app.userStore = postgres.NewPostgresUserStore(db, logger, cfg.Auth.BCryptCost)
	app.projectStore = postgres.NewPostgresProjectStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)
	app.noteStore = postgres.NewPostgresNoteStore(db, logger)
	app.attachmentStore = postgres.NewPostgresAttachmentStore(db, logger)
	app.resetTokenStore = redisstore.NewResetTokenStore(redisClient, logger)

	files, err := filestore.NewOS(cfg.Server.UploadDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file store: %w", err)
	}
	app.fileStore = files

	if err := app.initServices(); err != nil {
		return nil, err
	}

	logger.Info("application initialized")
	return app, nil
}

func (app *application) initServices() error {
	var err error
	logger := app.logger

	app.authService, err = service.NewAuthService(
		app.db,
		app.userStore,
		app.resetTokenStore,
		app.jwtService,
		auth.NewBcryptVerifier(),
		service.NewLogResetNotifier(app.config.Auth.ResetURLBase, logger),
		app.config.Auth,
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create auth service: %w", err)
	}

	app.projectService, err = service.NewProjectService(
		app.db, app.projectStore, app.taskStore, app.userStore, app.attachmentStore, app.fileStore, logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create project service: %w", err)
	}

	app.taskService, err = service.NewTaskService(
		app.db, app.taskStore, app.projectStore, app.userStore, app.attachmentStore, app.fileStore, logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create task service: %w", err)
	}

	app.noteService, err = service.NewNoteService(app.db, app.noteStore, app.taskStore, logger)
	if err != nil {
		return fmt.Errorf("failed to create note service: %w", err)
	}

	app.attachmentService, err = service.NewAttachmentService(
		app.db, app.attachmentStore, app.taskStore, app.userStore, app.fileStore, logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create attachment service: %w", err)
	}

	return nil
}

// handlers builds the HTTP handler set from the wired services.
func (app *application) handlers() routeHandlers {
	return routeHandlers{
		auth:        api.NewAuthHandler(app.authService),
		projects:    api.NewProjectHandler(app.projectService),
		tasks:       api.NewTaskHandler(app.taskService),
		notes:       api.NewNoteHandler(app.noteService),
		attachments: api.NewAttachmentHandler(app.attachmentService, app.config.Server.MaxUploadMB),
		authn:       middleware.NewAuthMiddleware(app.jwtService),
	}
}

// Run serves HTTP until ctx is cancelled, then shuts down and cleans up.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()

	router := newRouter(app.logger, app.handlers())
	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases the database pool and the Redis client.
func (app *application) cleanup() {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", slog.Any("error", err))
		}
	}
	if app.db != nil {
		closeDatabase(app.db, app.logger)
	}
	app.logger.Info("application shutdown completed")
}
