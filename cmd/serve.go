package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	config "task-manager.com/task-manager/internal/configs"
	httpapi "task-manager.com/task-manager/internal/http"
	"task-manager.com/task-manager/internal/ratelimit"
	repository "task-manager.com/task-manager/internal/repositories"
	"task-manager.com/task-manager/internal/services"
	"task-manager.com/task-manager/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Starts the task HTTP API and serves stored attachments under /storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		database, err := config.NewDatabaseClient(cfg.DatabaseDriver, cfg.DatabaseDSN)
		if err != nil {
			return err
		}
		if sqlDB, err := database.DB(); err == nil {
			defer sqlDB.Close()
		}

		files, err := storage.NewLocalStore(cfg.StorageDir, cfg.PublicURL)
		if err != nil {
			return err
		}

		limiter, closeLimiter, err := newLimiter(cfg)
		if err != nil {
			return err
		}
		defer closeLimiter()

		taskRepo := repository.NewTaskRepository(database)
		taskService := services.NewTaskService(taskRepo, files)

		e := httpapi.NewServer(taskService, files, httpapi.ServerOptions{
			Limiter:          limiter,
			MaxUploadKB:      cfg.MaxUploadKB,
			CORSAllowOrigins: cfg.CORSAllowOrigins,
		})

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return runServer(ctx, e, cfg.AppURL, cfg.ShutdownTimeoutSeconds, "HTTP server")
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func newLimiter(cfg config.Config) (ratelimit.Limiter, func(), error) {
	if cfg.RateLimitBackend == "redis" {
		redisClient, err := config.NewRedisClient(cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}

		limiter, err := ratelimit.NewRedisLimiter(redisClient, cfg.RedisRateLimitPrefix, cfg.RateLimit, time.Minute)
		if err != nil {
			redisClient.Close()
			return nil, nil, err
		}
		return limiter, redisClient.Close, nil
	}

	limiter, err := ratelimit.NewMemoryLimiter(cfg.RateLimit, time.Minute)
	if err != nil {
		return nil, nil, err
	}
	return limiter, func() {}, nil
}

// runServer serves e on addr until ctx is done, then shuts it down.
func runServer(ctx context.Context, e *echo.Echo, addr string, shutdownTimeoutSeconds int, name string) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("%s listening on %s", name, addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("%s stopped: %w", name, err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(shutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s shutdown: %w", name, err)
	}

	log.Printf("%s shut down gracefully", name)
	return nil
}
