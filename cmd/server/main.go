// Package main runs the First in Dallas HTTP server: organizer hub API, admin API,
// public directory surfaces and the admin websocket feed, with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/firstindallas/backend/config"
	"github.com/firstindallas/backend/internal/auth"
	"github.com/firstindallas/backend/internal/cms"
	"github.com/firstindallas/backend/internal/dashboard"
	"github.com/firstindallas/backend/internal/directory"
	"github.com/firstindallas/backend/internal/events"
	"github.com/firstindallas/backend/internal/images"
	"github.com/firstindallas/backend/internal/middleware"
	"github.com/firstindallas/backend/internal/models"
	"github.com/firstindallas/backend/internal/organizers"
	"github.com/firstindallas/backend/internal/realtime"
	"github.com/firstindallas/backend/internal/submissions"
	"github.com/firstindallas/backend/internal/syncjobs"
	"github.com/firstindallas/backend/pkg/database"
	"github.com/firstindallas/backend/pkg/queue"
	"github.com/firstindallas/backend/pkg/redis"
	"github.com/firstindallas/backend/pkg/response"
	"github.com/firstindallas/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" && cfg.AWS.ImagesBucket != "" {
		s3Client, err = storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			ImagesBucket:    cfg.AWS.ImagesBucket,
			PublicBaseURL:   cfg.AWS.PublicBaseURL,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	loc := cfg.Directory.Location()
	cmsClient := cms.NewClient(cfg.CMS.BaseURL, cfg.CMS.APIToken, cfg.CMS.Timeout, logger)

	// Realtime
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	notifier := realtime.NewNotifier(hub)

	// Directory
	dirCache := directory.NewCache(rdb.Client, cfg.Directory.CacheTTL)
	dirService := directory.NewService(cmsClient, dirCache, loc, cfg.Directory.PageSize, logger)
	dirHandler := directory.NewHandler(dirService, directory.NewRenderer(loc, cfg.Directory.EventURLBase),
		cfg.Directory.CalendarURL, cfg.Directory.SubmitURL, logger)

	// Auth
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	revocations := auth.NewRevocations(rdb.Client)
	userRepo := auth.NewRepository(pool)
	organizerRepo := organizers.NewRepository(pool)
	authService := auth.NewService(userRepo, organizerRepo, jwtService, cfg.Admin.IsAdminEmail, logger)
	var google auth.IdentityProvider
	if p := auth.NewGoogleProvider(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL); p != nil {
		google = p
	}
	states := auth.NewStateCookies(cfg.Cookie.HashKey, cfg.Cookie.BlockKey, cfg.JWT.Secure)
	authHandler := auth.NewHandler(authService, revocations, google, states, auth.CookieSettings{
		Name:   cfg.JWT.CookieName,
		Secure: cfg.JWT.Secure,
		MaxAge: time.Duration(cfg.JWT.ExpireHours) * time.Hour,
	}, cfg.Server.LoginURL, logger)

	// Organizers
	organizerHandler := organizers.NewHandler(organizerRepo, logger)

	// Submissions
	jobQueue := queue.NewQueue(rdb.Client, logger)
	submissionRepo := submissions.NewRepository(pool)
	submissionService := submissions.NewService(submissions.Deps{
		Store:        submissionRepo,
		Events:       cmsClient,
		Mirror:       jobQueue,
		Locker:       redis.NewLocker(rdb.Client, "lock:"),
		Notifier:     notifier,
		Directory:    dirCache,
		Location:     loc,
		EventURLBase: cfg.Directory.EventURLBase,
		Logger:       logger,
	})
	submissionHandler := submissions.NewHandler(submissionService, logger)

	// Images
	var uploader images.Uploader
	if s3Client != nil {
		uploader = s3Client
	}
	imageHandler := images.NewHandler(uploader, submissionService, cfg.Uploads.MaxImageBytes, cfg.Uploads.MaxImageWidth, logger)

	// Events, sync, dashboard
	eventHandler := events.NewHandler(cmsClient, submissionService, dirCache, logger)
	syncService := syncjobs.NewService(cmsClient, syncjobs.Options{
		Snapshots: syncjobs.NewRedisSnapshots(rdb.Client),
		Notifier:  notifier,
		Directory: dirCache,
		Poller: syncjobs.Poller{
			Interval:    cfg.Sync.PollInterval,
			MaxAttempts: cfg.Sync.MaxAttempts,
			Timeout:     cfg.Sync.WatchTimeout,
		},
		FacebookURLs: cfg.Sync.FacebookURLs,
		Logger:       logger,
	})
	defer syncService.Close()
	syncHandler := syncjobs.NewHandler(syncService, logger)
	dashboardHandler := dashboard.NewHandler(cmsClient, submissionRepo, jobQueue, logger)

	wsAuth := func(token string) (auth.Session, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return auth.Session{}, err
		}
		if gone, err := revocations.IsRevoked(context.Background(), claims.ID); err != nil || gone {
			return auth.Session{}, auth.ErrInvalidToken
		}
		return auth.SessionFromClaims(claims), nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Session(jwtService, revocations, cfg.JWT.CookieName))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/signup", authHandler.Signup)
		authGroup.GET("/login", auth.LoginPage(cfg.Server.LoginURL))
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/me", middleware.RequireSession(cfg.Server.LoginURL), authHandler.Me)
		authGroup.GET("/google", authHandler.GoogleStart)
		authGroup.GET("/callback", authHandler.GoogleCallback)
	}

	// Public directory surfaces
	router.GET("/api/public/events", dirHandler.List)
	router.GET("/api/directory", dirHandler.List)
	router.GET("/api/directory/cities", dirHandler.Cities)
	router.GET("/directory", dirHandler.Render)
	router.GET("/widgets/upcoming", dirHandler.Widget)

	// Organizer hub (session required)
	api := router.Group("/api")
	api.Use(middleware.RequireSession(cfg.Server.LoginURL))
	{
		api.GET("/organizer/profile", organizerHandler.GetProfile)
		api.PATCH("/organizer/profile", organizerHandler.UpdateProfile)

		api.POST("/submissions/validate/:step", submissionHandler.ValidateStep)
		api.POST("/submissions", submissionHandler.Create)
		api.GET("/submissions", submissionHandler.ListMine)
		api.GET("/submissions/:id", submissionHandler.GetMine)

		api.POST("/uploads/images", imageHandler.Upload)
	}

	// Admin CMS API
	admin := router.Group("/admin")
	admin.Use(middleware.RequireSession(cfg.Server.LoginURL), middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/submissions", submissionHandler.AdminList)
		admin.GET("/submissions/pending-count", submissionHandler.PendingCount)
		admin.POST("/submissions/:id/approve", submissionHandler.Approve)
		admin.POST("/submissions/:id/reject", submissionHandler.Reject)

		admin.GET("/events", eventHandler.List)
		admin.GET("/events/cities", eventHandler.Cities)
		admin.GET("/events/categories", eventHandler.Categories)
		admin.DELETE("/events/:id", eventHandler.Delete)
		admin.PATCH("/events/:id/status", eventHandler.SetStatus)
		admin.POST("/events/:id/wordpress", eventHandler.PublishToWordPress)
		admin.POST("/events/bulk/publish", eventHandler.BulkPublish)
		admin.POST("/events/bulk/delete", eventHandler.BulkDelete)
		admin.POST("/events/cleanup", eventHandler.Cleanup)

		admin.GET("/sync/providers", syncHandler.Providers)
		admin.GET("/sync/status", syncHandler.Status)
		admin.GET("/sync/active", syncHandler.Active)
		admin.POST("/sync/:provider", syncHandler.Trigger)
		admin.GET("/tasks", syncHandler.ListTasks)
		admin.GET("/tasks/:id", syncHandler.GetTask)
		admin.POST("/tasks/extract", syncHandler.Extract)

		admin.GET("/organizers", organizerHandler.AdminList)
		admin.GET("/stats", dashboardHandler.Stats)
	}

	// WebSocket (token in query or session cookie; admin only)
	router.GET("/admin/ws", realtime.ServeWs(hub, realtime.NewUpgrader(strings.Split(cfg.Server.CORSAllowedOrigins, ",")), logger, wsAuth))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
