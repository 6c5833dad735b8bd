package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"video-coords/server/internal/component"
	"video-coords/server/internal/config"
	"video-coords/server/internal/database"
	"video-coords/server/internal/emitter"
	"video-coords/server/internal/geometry"
	"video-coords/server/internal/ledger"
	logger "video-coords/server/internal/logging"
	"video-coords/server/internal/repository"
	"video-coords/server/internal/router"
	"video-coords/server/internal/services"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// projectRoot holds config/ and logs/; the server runs from server/.
const projectRoot = ".."

func main() {
	if err := config.Init(projectRoot); err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	conf := config.Get()

	// Initialize Logger
	log, err := logger.Init(projectRoot, conf.Logging)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	config.Watch(log)

	store, err := openStore(log, conf)
	if err != nil {
		log.Fatal("Failed to open click store", zap.Error(err))
	}

	hub := emitter.NewHub(log)
	registry := component.NewRegistry(log, store, hub, captureSettings(log))
	r := router.Setup(log, registry, hub)

	storage := conf.Storage
	janitor := services.NewJanitor(log, registry, hub, storage.IdleTTL, storage.Sweep, storage.Driver == "memory")

	srv := &http.Server{
		Addr:    ":" + conf.Server.Port,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Server listening on http://localhost" + srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("run server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("Shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return janitor.Run(ctx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("Server stopped with error", zap.Error(err))
	}
}

// openStore selects the ledger backend named by storage.driver.
func openStore(log *zap.Logger, conf *config.Config) (ledger.Store, error) {
	switch conf.Storage.Driver {
	case "", "memory":
		log.Info("Keeping click ledgers in memory")
		return ledger.NewMemoryStore(), nil
	case "postgres":
		if err := database.Init(log, conf.Database); err != nil {
			return nil, err
		}
		return repository.NewClickStore(database.DB), nil
	case "redis":
		client := repository.NewRedisClient(conf.Redis.Addr, conf.Redis.Password, conf.Redis.DB)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect to redis at %s: %w", conf.Redis.Addr, err)
		}
		log.Info("Redis connection established successfully.", zap.String("addr", conf.Redis.Addr))
		return repository.NewRedisStore(client, conf.Redis.Prefix, conf.Storage.IdleTTL), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", conf.Storage.Driver)
}

// captureSettings reads the capture section on every click so a config
// reload changes the mapping mode without a restart.
func captureSettings(log *zap.Logger) func() component.Settings {
	return func() component.Settings {
		capture := config.Get().Capture
		mode, err := geometry.ParseMode(capture.Mode)
		if err != nil {
			log.Warn("Invalid capture mode, using stretch", zap.String("mode", capture.Mode), zap.Error(err))
			mode = geometry.ModeStretch
		}
		return component.Settings{
			Mode:          mode,
			FrameRate:     capture.FrameRate,
			RequirePaused: capture.RequirePaused,
		}
	}
}
