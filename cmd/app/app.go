package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vietanh2810/class-treasury-api/internal/api"
	"github.com/vietanh2810/class-treasury-api/internal/config"
	"github.com/vietanh2810/class-treasury-api/internal/db"
	"github.com/vietanh2810/class-treasury-api/internal/events"
	"github.com/vietanh2810/class-treasury-api/internal/events/kafka"
	"github.com/vietanh2810/class-treasury-api/internal/logger"
	"github.com/vietanh2810/class-treasury-api/internal/repository/dao"
)

const (
	configPath      = "./cmd/app/config.yml"
	shutdownTimeout = 10 * time.Second
)

func Start() error {
	conf, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment, conf.Log.Level); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}
	defer func() { _ = zap.L().Sync() }()

	err = config.Watch(configPath, func(c *config.AppConfig, err error) {
		if err != nil {
			zap.L().Warn("ignoring invalid config reload", zap.Error(err))
			return
		}
		if err = logger.SetLevel(c.Log.Level); err != nil {
			zap.L().Warn("ignoring invalid log level", zap.Error(err))
			return
		}
		zap.L().Info("config reloaded", zap.String("log_level", c.Log.Level))
	})
	if err != nil {
		return fmt.Errorf("failed to watch config -> %w", err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	var postgresDB *gorm.DB
	if dbURL != "" {
		postgresDB, err = db.OpenPostgresWithURL(dbURL)
	} else {
		postgresDB, err = db.OpenPostgres(conf.Postgres)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database -> %w", err)
	}

	if err = dao.InitTables(postgresDB); err != nil {
		return fmt.Errorf("failed to migrate database -> %w", err)
	}

	publisher := newPublisher(conf.Kafka)
	defer func() {
		if err := publisher.Close(); err != nil {
			zap.L().Warn("failed to close event publisher", zap.Error(err))
		}
	}()

	s := api.NewServer(conf, postgresDB, publisher)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go s.Feed.Run(ctx)

	addr := ":" + s.Config.API.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info(fmt.Sprintf("starting server at %v", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err = <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start the server -> %w", err)
		}
	case <-ctx.Done():
		zap.L().Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down the server -> %w", err)
	}

	return nil
}

func newPublisher(conf *config.KafkaConfig) events.Publisher {
	if conf == nil || len(conf.Brokers) == 0 {
		zap.L().Info("no kafka brokers configured, audit events stay in process")
		return events.NopPublisher{}
	}

	zap.L().Info("publishing audit events to kafka",
		zap.Strings("brokers", conf.Brokers),
		zap.String("topic", conf.Topic))

	return kafka.NewPublisher(conf.Brokers, conf.Topic)
}
