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
	_ "time/tzdata"

	httpadp "municipal-portal/internal/adapter/http"
	"municipal-portal/internal/adapter/repository/mysql"
	"municipal-portal/internal/config"
	"municipal-portal/internal/infrastructure/attachment"
	"municipal-portal/internal/infrastructure/cache"
	"municipal-portal/internal/infrastructure/db"
	"municipal-portal/internal/infrastructure/document"
	"municipal-portal/internal/infrastructure/folder"
	"municipal-portal/internal/infrastructure/logging"
	"municipal-portal/internal/infrastructure/mailer"
	"municipal-portal/internal/usecase/submission"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return serve(cmd.Context(), cfg, logger)
		},
	}
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(level, cfg.LogFormat, os.Stdout), nil
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		return fmt.Errorf("open mysql: %w", err)
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		if rdb, err = cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB); err != nil {
			return fmt.Errorf("open redis: %w", err)
		}
		defer rdb.Close()
	} else {
		logger.Warn("REDIS_ADDR not set, idempotency disabled")
	}

	deps := submission.Deps{
		UoW:         mysql.NewGormUoW(gdb),
		Requests:    mysql.NewRequestRepository(gdb),
		Responses:   mysql.NewResponseRepository(gdb),
		Folders:     folder.NewMaterializer(cfg.StorageRoot),
		Attachments: attachment.NewStore(),
		Documents:   document.NewRenderer(cfg.LogoPath, logger),
		Logger:      logger,
	}
	m, err := mailer.New(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.SMTPFrom,
		Timeout:  cfg.MailTimeout,
	}, logger)
	switch {
	case err == nil:
		deps.Notifier = m
	case errors.Is(err, mailer.ErrNotConfigured):
		logger.Warn("SMTP_HOST not set, responses will not be emailed")
	default:
		return fmt.Errorf("mailer: %w", err)
	}

	uc := submission.NewUsecase(deps, submission.Options{
		Location:          loc,
		SubmissionTimeout: cfg.SubmissionTimeout,
		MailTimeout:       cfg.MailTimeout,
	})

	e := httpadp.NewRouter(httpadp.RouterConfig{
		Health:       httpadp.NewHandler(db.NewReadiness(gdb)),
		Submissions:  httpadp.NewSubmissionHandler(uc, cfg.MaxUploadBytes(), logger),
		JWTSecret:    []byte(cfg.JWTSecret),
		Redis:        rdb,
		IdempTTL:     cfg.IdempotencyTTL(),
		MaxBodyBytes: cfg.MaxUploadBytes(),
		Logger:       logger,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.AppPort
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", addr), slog.String("storage_root", cfg.StorageRoot))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
