package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"todo-api/internal/config"
	"todo-api/internal/platform/database"
	"todo-api/internal/platform/logging"
	rabbitmqClient "todo-api/internal/platform/rabbitmq"
	redisClient "todo-api/internal/platform/redis"
	"todo-api/internal/worker"
)

// App holds process-wide resources. Redis, MQConn and EventWorker are nil
// when their feature is disabled.
type App struct {
	Config      *config.Config
	DB          *gorm.DB
	Redis       *redis.Client
	MQConn      *amqp.Connection
	EventWorker *worker.TaskEventWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	generated, err := config.EnsureJWTSecret(cfg)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.Auth.SecretFile).Msg("could not persist jwt secret, tokens will not survive a restart")
	} else if generated {
		log.Info().Str("path", cfg.Auth.SecretFile).Msg("generated and saved new jwt secret")
	}

	app := &App{Config: cfg, StartedAt: time.Now()}
	if err := app.open(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) open(ctx context.Context) error {
	cfg := a.Config

	db, err := database.Open(ctx, cfg.Database.Driver, cfg.DatabaseDSN())
	if err != nil {
		return err
	}
	a.DB = db
	if err := database.Migrate(db); err != nil {
		return err
	}

	if cfg.Redis.Enabled {
		redisCli, err := redisClient.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		a.Redis = redisCli
	}

	if cfg.RabbitMQ.Enabled {
		mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.TaskEventQueue)
		if err != nil {
			return err
		}
		a.MQConn = mqConn

		eventWorker := worker.NewTaskEventWorker(mqConn, cfg.RabbitMQ.TaskEventQueue)
		if err := eventWorker.Start(ctx); err != nil {
			return fmt.Errorf("start task event worker failed: %w", err)
		}
		a.EventWorker = eventWorker
	}
	return nil
}

func (a *App) Close() error {
	var errs []error
	if a.EventWorker != nil {
		a.EventWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.DB != nil {
		if err := database.Close(a.DB); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
