package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "todo-api/internal/app"
	"todo-api/internal/bootstrap"
	"todo-api/internal/cache"
	"todo-api/internal/platform/rabbitmq"
	"todo-api/internal/repository"
	"todo-api/internal/transport/http/handler"
	"todo-api/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	if app.Config.App.GinMode != "" {
		gin.SetMode(app.Config.App.GinMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	var userCache appsvc.UserCache
	if app.Redis != nil {
		userCache = cache.NewUserCache(app.Redis, time.Duration(app.Config.Redis.UserTTLSeconds)*time.Second)
	}
	var publisher appsvc.TaskEventPublisher
	if app.MQConn != nil {
		publisher = rabbitmq.NewTaskEventPublisher(app.MQConn, app.Config.RabbitMQ.TaskEventQueue)
	}

	userRepo := repository.NewUserRepository(app.DB)
	taskRepo := repository.NewTaskRepository(app.DB)
	authService := appsvc.NewAuthService(
		userRepo,
		userCache,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	taskService := appsvc.NewTaskService(taskRepo, publisher)
	authHandler := handler.NewAuthHandler(authService)
	taskHandler := handler.NewTaskHandler(taskService)
	authRequired := middleware.AuthRequired(authService)

	router.POST("/register", authHandler.Register)
	router.POST("/login", authHandler.Login)
	router.GET("/me", authRequired, authHandler.Me)

	todoGroup := router.Group("/todos")
	todoGroup.Use(authRequired)
	for _, path := range []string{"", "/"} {
		todoGroup.POST(path, taskHandler.Create)
		todoGroup.GET(path, taskHandler.List)
	}
	todoGroup.GET("/:id", taskHandler.Get)
	todoGroup.PUT("/:id", taskHandler.Update)
	todoGroup.DELETE("/:id", taskHandler.Delete)

	return router
}
