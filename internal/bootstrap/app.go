package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mealtracker/internal/config"
	"mealtracker/internal/platform/database"
	loggerpkg "mealtracker/internal/platform/logger"
	rabbitmqClient "mealtracker/internal/platform/rabbitmq"
	redisClient "mealtracker/internal/platform/redis"
	"mealtracker/internal/repository"
	"mealtracker/internal/worker"
)

// App holds the process-wide resources. Redis and MQConn are nil when the
// corresponding integration is disabled.
type App struct {
	Config         *config.Config
	Logger         *zap.Logger
	DB             *gorm.DB
	Redis          *redis.Client
	MQConn         *amqp.Connection
	ActivityWorker *worker.MealActivityWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	logger, err := loggerpkg.New(cfg.IsDevelopment(), cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("init logger failed: %w", err)
	}

	app := &App{
		Config:    cfg,
		Logger:    logger,
		StartedAt: time.Now(),
	}

	db, err := database.New(ctx, cfg.Database.Driver, cfg.DatabaseDSN())
	if err != nil {
		app.Close()
		return nil, err
	}
	app.DB = db
	if err := database.Migrate(db); err != nil {
		app.Close()
		return nil, err
	}

	if cfg.Redis.Enabled {
		redisCli, err := redisClient.New(ctx, cfg.Redis)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Redis = redisCli
	}

	if cfg.RabbitMQ.Enabled {
		mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.MQConn = mqConn

		activityRepo := repository.NewMealActivityRepository(db)
		activityWorker := worker.NewMealActivityWorker(mqConn, activityRepo, cfg.RabbitMQ.MealActivityQueue, logger)
		if err := activityWorker.Start(ctx); err != nil {
			app.Close()
			return nil, fmt.Errorf("start meal activity worker failed: %w", err)
		}
		app.ActivityWorker = activityWorker
	}

	logger.Info("app initialized",
		zap.String("env", cfg.App.Env),
		zap.String("database", cfg.Database.Driver),
		zap.Bool("redis", app.Redis != nil),
		zap.Bool("rabbitmq", app.MQConn != nil),
	)
	return app, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.ActivityWorker != nil {
		a.ActivityWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return closeErr
}
