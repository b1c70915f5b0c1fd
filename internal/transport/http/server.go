package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appsvc "mealtracker/internal/app"
	"mealtracker/internal/bootstrap"
	"mealtracker/internal/cache"
	"mealtracker/internal/platform/rabbitmq"
	"mealtracker/internal/repository"
	"mealtracker/internal/transport/http/handler"
	"mealtracker/internal/transport/http/middleware"
	"mealtracker/internal/validation"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	logger := app.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(
		middleware.Recovery(logger),
		middleware.RequestLogger(logger),
		middleware.SecureHeaders(app.Config.Session.Secure, logger),
	)

	userRepo := repository.NewUserRepository(app.DB)
	mealRepo := repository.NewMealRepository(app.DB)
	activityRepo := repository.NewMealActivityRepository(app.DB)

	// Interfaces stay untyped nil when an integration is off so the service
	// can tell a disabled cache from a nil pointer.
	var metricsCache appsvc.MetricsCache
	if app.Redis != nil {
		metricsCache = cache.NewMetricsCache(
			app.Redis,
			time.Duration(app.Config.Redis.MetricsTTLSeconds)*time.Second,
			time.Duration(app.Config.Redis.MetricsDirtyTTLSeconds)*time.Second,
		)
	}
	var publisher appsvc.MealEventPublisher
	if app.MQConn != nil {
		publisher = rabbitmq.NewMealEventPublisher(app.MQConn, app.Config.RabbitMQ.MealActivityQueue)
	}

	authService := appsvc.NewAuthService(userRepo)
	mealService := appsvc.NewMealService(mealRepo, activityRepo, metricsCache, publisher, logger)

	v := validation.New()
	healthHandler := handler.NewHealthHandler(app)
	userHandler := handler.NewUserHandler(authService, v, app.Config.Session, logger)
	mealHandler := handler.NewMealHandler(mealService, v, logger)

	router.GET("/", healthHandler.Index)
	router.GET("/healthz", healthHandler.Check)

	router.POST("/users",
		middleware.RateLimitByIP(app.Config.RateLimit.RegisterPerMinute, time.Minute),
		userHandler.Register,
	)

	meals := router.Group("/meals")
	meals.Use(middleware.RequireSession(authService, app.Config.Session.CookieName, logger))
	meals.POST("", mealHandler.Create)
	meals.GET("", mealHandler.List)
	meals.GET("/metrics", mealHandler.Metrics)
	meals.GET("/activity", mealHandler.Activity)
	meals.GET("/:mealId", mealHandler.Get)
	meals.PUT("/:mealId", mealHandler.Update)
	meals.DELETE("/:mealId", mealHandler.Delete)

	return router
}
