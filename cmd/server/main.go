package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/nano-midea/stories/internal/handlers"
	"github.com/anonto42/nano-midea/stories/internal/models"
	"github.com/anonto42/nano-midea/stories/internal/playback"
	"github.com/anonto42/nano-midea/stories/internal/repositories"
	"github.com/anonto42/nano-midea/stories/internal/router"
	"github.com/anonto42/nano-midea/stories/internal/services"
	"github.com/anonto42/nano-midea/stories/pkg/config"
	"github.com/anonto42/nano-midea/stories/pkg/firebase"
	"github.com/anonto42/nano-midea/stories/pkg/logger"
	"github.com/anonto42/nano-midea/stories/validators"
	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	log := logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)
	defer logger.Flush(2 * time.Second)

	db, err := config.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("initialize databases: %w", err)
	}
	defer db.CloseDB()

	if err := db.Postgres.AutoMigrate(&models.User{}, &models.Notification{}, &repositories.KVEntry{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	blobs, err := storyBlobStore(cfg, db)
	if err != nil {
		return err
	}
	shares := repositories.NewMemoryShareCounter()
	if db.Redis != nil {
		shares = repositories.NewRedisShareCounter(repositories.NewRedisAdapter(db.Redis))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var firebaseAuth handlers.IDTokenVerifier
	if cfg.FirebaseCredentialsPath != "" {
		firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, log)
		if err != nil {
			return fmt.Errorf("initialize firebase: %w", err)
		}
		firebaseAuth = firebaseApp.AuthClient
	}

	users := repositories.NewPostgresUserRepository(db.Postgres)
	notifications := repositories.NewPostgresNotificationRepository(db.Postgres)

	store := services.NewStoryStore(
		repositories.NewStoryRepository(blobs),
		services.WithLogger(log),
		services.WithStoryTTL(cfg.StoryTTL),
	)
	tracker := services.NewStoryTracker(store, shares, services.NewNotificationReactionNotifier(notifications), log)
	sessions := playback.NewManager(ctx, tracker, cfg.TickInterval, log)
	defer sessions.CloseAll()

	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	config.SetupMiddleware(e, log)
	router.SetupRoutes(e, router.Dependencies{
		Users:         users,
		Notifications: notifications,
		Stories:       store,
		Tracker:       tracker,
		Sessions:      sessions,
		FirebaseAuth:  firebaseAuth,
		JWTSecret:     cfg.JWTSecret,
		Logger:        log,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "story_backend", cfg.StoryBackend)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return services.NewSweeper(store, cfg.SweepInterval, log).Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func storyBlobStore(cfg *config.Config, db *config.DB) (repositories.BlobStore, error) {
	switch cfg.StoryBackend {
	case config.BackendMemory:
		return repositories.NewMemoryBlobStore(), nil
	case config.BackendRedis:
		return repositories.NewRedisBlobStore(repositories.NewRedisAdapter(db.Redis), "storyline:"), nil
	case config.BackendPostgres:
		return repositories.NewPostgresBlobStore(db.Postgres), nil
	case config.BackendMongo:
		return repositories.NewMongoBlobStore(db.Mongo.Database(cfg.MongoDatabase)), nil
	default:
		return nil, fmt.Errorf("unknown STORY_BACKEND %q", cfg.StoryBackend)
	}
}
