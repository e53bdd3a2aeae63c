package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/phrazzld/notes-api/internal/config"
	"github.com/phrazzld/notes-api/internal/job"
	"github.com/phrazzld/notes-api/internal/platform/filesystem"
	"github.com/phrazzld/notes-api/internal/platform/minio"
	"github.com/phrazzld/notes-api/internal/platform/postgres"
	"github.com/phrazzld/notes-api/internal/platform/rabbitmq"
	"github.com/phrazzld/notes-api/internal/platform/redis"
	"github.com/phrazzld/notes-api/internal/service"
	"github.com/phrazzld/notes-api/internal/service/auth"
	"github.com/phrazzld/notes-api/internal/store"
	"github.com/phrazzld/notes-api/internal/worker"
)

// application holds the shared dependencies of every command and releases
// them on cleanup.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores
	userStore    store.UserStore
	refreshStore store.RefreshTokenStore
	noteStore    store.NoteStore
	taskStore    store.TaskStore
	blobStore    store.BlobStore

	// Auth
	tokenService     auth.TokenService
	passwordVerifier auth.PasswordVerifier
	blacklist        auth.Blacklist
	sessions         *auth.SessionManager

	// Services
	userService service.UserService
	noteService service.NoteService
	taskService service.TaskService

	// Jobs. queue is what the services enqueue into; runner and consumer
	// are the two ways of draining it.
	queue      job.Queue
	dispatcher *job.Dispatcher
	runner     *job.Runner
	rabbit     *rabbitmq.Client
	consumer   *rabbitmq.Consumer

	closers      []io.Closer
	stopConsumer context.CancelFunc
	consumerWG   sync.WaitGroup
}

// newApplication connects to every backend the configuration names and
// wires the services on top of them.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	db, err := openDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	app.db = db

	app.userStore = postgres.NewPostgresUserStore(db, cfg.Auth.BcryptCost, logger)
	app.refreshStore = postgres.NewPostgresRefreshTokenStore(db, logger)
	app.noteStore = postgres.NewPostgresNoteStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)

	if err := app.setupBlobStore(ctx); err != nil {
		app.cleanup()
		return nil, err
	}
	if err := app.setupBlacklist(ctx); err != nil {
		app.cleanup()
		return nil, err
	}

	app.tokenService, err = auth.NewTokenService(cfg.Auth)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	app.passwordVerifier = auth.NewBcryptVerifier()
	logger.Info("token service initialized",
		"access_token_lifetime", cfg.Auth.AccessTokenLifetime.String(),
		"rotate_refresh_tokens", cfg.Auth.RotateRefreshTokens)

	app.dispatcher = job.NewDispatcher()
	worker.Register(app.dispatcher, app.noteStore, app.taskStore, app.blobStore, worker.Config{
		CreateDelay: cfg.Worker.CreateDelay,
		DeleteDelay: cfg.Worker.DeleteDelay,
	}, logger)

	if err := app.setupQueue(); err != nil {
		app.cleanup()
		return nil, err
	}

	app.wireServices()

	logger.Info("application initialized")
	return app, nil
}

// wireServices builds the services and session manager from the stores
// already set on app.
func (app *application) wireServices() {
	app.sessions = auth.NewSessionManager(
		app.userStore,
		app.refreshStore,
		app.tokenService,
		app.passwordVerifier,
		app.blacklist,
		auth.SessionConfig{
			BlacklistTTL:        app.config.Auth.BlacklistTTL,
			RotateRefreshTokens: app.config.Auth.RotateRefreshTokens,
		},
		app.logger,
	)
	app.userService = service.NewUserService(app.userStore, app.logger)
	app.noteService = service.NewNoteService(app.noteStore, app.queue, app.logger)
	app.taskService = service.NewTaskService(app.taskStore, app.queue, app.config.Storage.MaxFileSize, app.logger)
}

func (app *application) setupBlobStore(ctx context.Context) error {
	switch app.config.Storage.Driver {
	case "minio":
		blobs, err := minio.New(ctx, app.config.Storage.MinIO, app.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize minio storage: %w", err)
		}
		app.blobStore = blobs
	default:
		blobs, err := filesystem.New(app.config.Storage.LocalDir, app.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize local storage: %w", err)
		}
		app.blobStore = blobs
	}
	app.logger.Info("attachment storage ready", "driver", app.config.Storage.Driver)
	return nil
}

func (app *application) setupBlacklist(ctx context.Context) error {
	switch app.config.Cache.Driver {
	case "redis":
		client, err := redis.Connect(ctx, app.config.Cache.RedisURL)
		if err != nil {
			return err
		}
		app.closers = append(app.closers, client)
		app.blacklist = redis.NewBlacklist(client, app.logger)
	default:
		app.blacklist = auth.NewMemoryBlacklist()
		app.logger.Warn("using in-process token blacklist, logouts are not shared between instances")
	}
	return nil
}

func (app *application) setupQueue() error {
	qc := app.config.Queue
	switch qc.Driver {
	case "rabbitmq":
		client, err := rabbitmq.Dial(qc.RabbitMQURL)
		if err != nil {
			return err
		}
		app.rabbit = client
		app.closers = append(app.closers, client)

		publisher, err := rabbitmq.NewPublisher(client, qc.Name)
		if err != nil {
			return fmt.Errorf("failed to declare queue %q: %w", qc.Name, err)
		}
		app.queue = publisher
	default:
		app.runner = job.NewRunner(
			postgres.NewPostgresJobStore(app.db, app.logger),
			app.dispatcher,
			job.RunnerConfig{
				WorkerCount:  qc.WorkerCount,
				QueueSize:    qc.BufferSize,
				MaxAttempts:  qc.MaxAttempts,
				RetryBackoff: qc.RetryBackoff,
				PollInterval: qc.PollInterval,
				StuckJobAge:  qc.StuckJobAge,
			},
			app.logger,
		)
		app.queue = app.runner
	}
	app.logger.Info("job queue ready", "driver", qc.Driver, "queue", qc.Name)
	return nil
}

// startWorkers begins draining the queue in this process.
func (app *application) startWorkers(ctx context.Context) error {
	if app.runner != nil {
		if err := app.runner.Start(); err != nil {
			return fmt.Errorf("failed to start job runner: %w", err)
		}
		return nil
	}

	if app.rabbit == nil {
		return errors.New("no job transport configured")
	}
	consumer, err := rabbitmq.NewConsumer(app.rabbit, app.config.Queue.Name, app.dispatcher, rabbitmq.ConsumerConfig{
		Concurrency:  app.config.Queue.WorkerCount,
		MaxAttempts:  app.config.Queue.MaxAttempts,
		RetryBackoff: app.config.Queue.RetryBackoff,
	}, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}
	app.consumer = consumer

	runCtx, cancel := context.WithCancel(ctx)
	app.stopConsumer = cancel
	app.consumerWG.Add(1)
	go func() {
		defer app.consumerWG.Done()
		if err := consumer.Run(runCtx); err != nil {
			app.logger.Error("consumer stopped with error", "error", err)
		}
	}()
	return nil
}

// Run serves HTTP until ctx is cancelled.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup stops the workers and closes connections. In-flight jobs are
// released before the database goes away.
func (app *application) cleanup() {
	if app.runner != nil {
		app.runner.Stop()
	}
	if app.stopConsumer != nil {
		app.stopConsumer()
		app.consumerWG.Wait()
	}

	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			app.logger.Error("error closing connection", "error", err)
		}
	}
	app.closers = nil

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
		app.db = nil
	}

	app.logger.Info("application shutdown completed")
}
