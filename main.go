package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SebastianInsurriaga/UpTask-Backend/internal/cache"
	"github.com/SebastianInsurriaga/UpTask-Backend/internal/config"
	"github.com/SebastianInsurriaga/UpTask-Backend/internal/database"
	"github.com/SebastianInsurriaga/UpTask-Backend/internal/handlers"
	"github.com/SebastianInsurriaga/UpTask-Backend/internal/middleware"
	"github.com/SebastianInsurriaga/UpTask-Backend/internal/monitoring"
	"github.com/SebastianInsurriaga/UpTask-Backend/internal/notify"
	"github.com/SebastianInsurriaga/UpTask-Backend/internal/repositories"
	"github.com/SebastianInsurriaga/UpTask-Backend/internal/services"
	"github.com/SebastianInsurriaga/UpTask-Backend/internal/worker"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Application wires configuration, storage, the background worker and the
// HTTP layer together.
type Application struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *database.Pool
	Redis  *redis.Client
	Cache  cache.Cache
	Worker *worker.Worker
	Router *gin.Engine
	Server *http.Server

	AuthzService      services.AuthorizationService
	AuthService       services.AuthService
	UserService       services.UserService
	RegisterService   services.RegisterService
	ProjectService    services.ProjectService
	MembershipService services.MembershipService
	TaskService       services.TaskService
	NoteService       services.NoteService
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize application: %v", err)
	}

	app.setupRoutes()
	app.startServer()
}

func initializeApplication(cfg *config.Config) (*Application, error) {
	logLevel := slog.LevelDebug
	if cfg.IsProduction() {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	app := &Application{Config: cfg, Logger: logger}

	log.Println("🚀 Initializing UpTask backend...")
	log.Printf("📋 Environment: %s", cfg.Server.Environment)

	pool, err := database.NewPool(database.PoolConfigFromApp(cfg))
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	app.DB = pool
	log.Println("✅ Database connected")

	migrationConfig := &repositories.MigrationConfig{
		MigrationsPath: "file://migrations",
		DBName:         cfg.Database.Name,
		MaxRetries:     5,
		RetryDelay:     2 * time.Second,
	}
	if err := repositories.RunMigrations(pool.DB, migrationConfig); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️  Redis unavailable: %v (degraded mode: memory cache, in-process email)", err)
		redisClient = nil
	} else {
		app.Redis = redisClient
		log.Println("✅ Redis connected")
	}

	if redisClient != nil {
		app.Cache = cache.NewMultiLevelCache(cache.NewRedisCache(redisClient, "uptask"))
		log.Println("✅ Multi-level cache initialized (memory L1 + Redis L2)")
	} else {
		app.Cache = cache.NewMultiLevelCache(nil)
		log.Println("✅ Memory cache initialized")
	}

	notifier := notify.NewEmailNotifier(&cfg.SMTP, cfg.Server.FrontendURL, logger)

	var mailer notify.Dispatcher
	if redisClient != nil {
		app.Worker = worker.NewWorker(worker.WorkerConfig{
			RedisClient:  redisClient,
			Concurrency:  cfg.Worker.Concurrency,
			PollInterval: cfg.Worker.PollInterval,
			Queues:       []string{cfg.Worker.EmailQueue, "retry_queue"},
			Logger:       logger,
		})
		app.Worker.RegisterHandler(worker.JobTypeEmailNotification, worker.EmailHandler(notifier))
		app.Worker.Start(cfg.Worker.Concurrency)

		mailer = worker.NewEmailDispatcher(worker.NewJobQueue(redisClient), cfg.Worker.EmailQueue, logger)
		log.Println("✅ Email worker started")
	} else {
		mailer = notify.NewAsyncDispatcher(notifier, logger)
	}

	app.AuthzService = services.NewAuthorizationService()
	app.AuthService = services.NewAuthService(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL, mailer, logger)
	app.UserService = services.NewUserService()
	app.RegisterService = services.NewRegisterService(mailer, logger)
	app.ProjectService = services.NewProjectService()
	app.MembershipService = services.NewMembershipService()
	app.NoteService = services.NewNoteService()

	app.TaskService = services.NewCachedTaskService(
		services.NewTaskService(app.AuthzService), app.Cache, 2*time.Minute, logger)

	monitoring.RegisterHealthCheck("database", func(ctx context.Context) error {
		return app.DB.Health()
	})
	if app.Redis != nil {
		monitoring.RegisterHealthCheck("redis", func(ctx context.Context) error {
			return app.Redis.Ping(ctx).Err()
		})
	}

	log.Println("✅ All services initialized")
	return app, nil
}

func (app *Application) setupRoutes() {
	r := gin.New()

	r.Use(middleware.RequestLogger(app.Logger))
	r.Use(middleware.RecoveryWithLog(app.Logger))
	r.Use(middleware.SecureHeader())
	r.Use(monitoring.MetricsMiddleware())

	if app.Redis != nil {
		limiter := middleware.NewDistributedRateLimiter(app.Redis)
		r.Use(limiter.CreateMiddleware("api", &middleware.RateLimit{
			Rate:    app.Config.RateLimit.RequestsPerMin,
			Window:  time.Minute,
			KeyFunc: middleware.UserKeyFunc,
		}))
	} else {
		rateLimit := rate.Limit(float64(app.Config.RateLimit.RequestsPerMin) / 60.0)
		r.Use(middleware.RateLimiter(rateLimit, app.Config.RateLimit.BurstSize))
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{app.Config.Server.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", monitoring.HealthHandler())
	r.GET("/ready", monitoring.ReadinessHandler())
	r.GET("/live", monitoring.LivenessHandler())
	r.GET("/metrics", monitoring.MetricsHandler())

	v1 := r.Group("/api/v1")

	registerHandler := handlers.NewRegisterHandler(app.DB.DB, app.RegisterService)
	authHandler := handlers.NewAuthHandler(app.DB.DB, app.AuthService)
	userHandler := handlers.NewUserHandler(app.DB.DB, app.UserService, app.AuthService)
	projectHandler := handlers.NewProjectHandler(app.DB.DB, app.ProjectService, app.AuthzService)
	teamHandler := handlers.NewTeamHandler(app.DB.DB, app.MembershipService, app.ProjectService, app.AuthzService)
	taskHandler := handlers.NewTaskHandler(app.DB.DB, app.TaskService, app.ProjectService, app.AuthzService)
	noteHandler := handlers.NewNoteHandler(app.DB.DB, app.NoteService, app.TaskService, app.ProjectService, app.AuthzService)
	cacheHandler := handlers.NewCacheHandler(app.Cache)

	auth := v1.Group("/auth")
	{
		auth.POST("/create-account", registerHandler.CreateAccount)
		auth.POST("/confirm-account", registerHandler.ConfirmAccount)
		auth.POST("/request-code", registerHandler.RequestConfirmationCode)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/validate-token", authHandler.ValidateToken)
		auth.POST("/reset-password/:token", authHandler.ResetPassword)
	}

	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(app.Config.JWT.Secret))
	{
		protected.GET("/auth/user", userHandler.Profile)
		protected.PUT("/profile", userHandler.UpdateProfile)
		protected.POST("/profile/change-password", userHandler.ChangePassword)

		projects := protected.Group("/projects")
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.ListProjects)
			projects.GET("/:projectId", projectHandler.GetProject)
			projects.PUT("/:projectId", projectHandler.UpdateProject)
			projects.DELETE("/:projectId", projectHandler.DeleteProject)

			projects.POST("/:projectId/team/find", teamHandler.FindMember)
			projects.GET("/:projectId/team", teamHandler.ListTeam)
			projects.POST("/:projectId/team", teamHandler.AddMember)
			projects.DELETE("/:projectId/team/:userId", teamHandler.RemoveMember)

			projects.POST("/:projectId/tasks", taskHandler.CreateTask)
			projects.GET("/:projectId/tasks", taskHandler.ListTasks)
			projects.GET("/:projectId/tasks/:taskId", taskHandler.GetTask)
			projects.PUT("/:projectId/tasks/:taskId", taskHandler.UpdateTask)
			projects.POST("/:projectId/tasks/:taskId/status", taskHandler.UpdateStatus)
			projects.DELETE("/:projectId/tasks/:taskId", taskHandler.DeleteTask)

			projects.POST("/:projectId/tasks/:taskId/notes", noteHandler.CreateNote)
			projects.GET("/:projectId/tasks/:taskId/notes", noteHandler.ListNotes)
			projects.DELETE("/:projectId/tasks/:taskId/notes/:noteId", noteHandler.DeleteNote)
		}

		cacheRoutes := protected.Group("/cache")
		{
			cacheRoutes.GET("/stats", cacheHandler.Stats)
			cacheRoutes.DELETE("/:key", cacheHandler.Evict)
		}
	}

	app.Router = r
}

func (app *Application) startServer() {
	addr := app.Config.GetServerAddr()

	app.Server = &http.Server{
		Addr:         addr,
		Handler:      app.Router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("🛑 Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := app.Server.Shutdown(ctx); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}

		app.cleanup()
		log.Println("✅ Server stopped gracefully")
	}()

	log.Printf("🚀 Server starting on %s", addr)
	log.Printf("📊 Metrics at http://%s/metrics", addr)
	log.Printf("💚 Health check at http://%s/health", addr)

	if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("❌ Server failed to start: %v", err)
	}
}

func (app *Application) cleanup() {
	log.Println("🧹 Cleaning up resources...")

	if app.Worker != nil {
		app.Worker.Stop()
	}
	if app.Cache != nil {
		if err := app.Cache.Close(); err != nil {
			log.Printf("⚠️  Error closing cache: %v", err)
		}
	}
	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			log.Printf("⚠️  Error closing Redis: %v", err)
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			log.Printf("⚠️  Error closing database: %v", err)
		}
	}

	log.Println("✅ Cleanup complete")
}
