package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/digishelf/digishelf/internal/activity"
	"github.com/digishelf/digishelf/internal/auth"
	"github.com/digishelf/digishelf/internal/config"
	"github.com/digishelf/digishelf/internal/database"
	activityrepo "github.com/digishelf/digishelf/internal/database/activity"
	booksrepo "github.com/digishelf/digishelf/internal/database/books"
	lendingrepo "github.com/digishelf/digishelf/internal/database/lending"
	notificationsrepo "github.com/digishelf/digishelf/internal/database/notifications"
	readingrepo "github.com/digishelf/digishelf/internal/database/reading"
	recommendrepo "github.com/digishelf/digishelf/internal/database/recommend"
	reportsrepo "github.com/digishelf/digishelf/internal/database/reports"
	reviewsrepo "github.com/digishelf/digishelf/internal/database/reviews"
	statsrepo "github.com/digishelf/digishelf/internal/database/stats"
	usersrepo "github.com/digishelf/digishelf/internal/database/users"
	wishlistrepo "github.com/digishelf/digishelf/internal/database/wishlist"
	http_controllers "github.com/digishelf/digishelf/internal/http"
	"github.com/digishelf/digishelf/internal/lending"
	"github.com/digishelf/digishelf/internal/notify"
	"github.com/digishelf/digishelf/internal/reading"
	"github.com/digishelf/digishelf/internal/recommend"
	"github.com/digishelf/digishelf/internal/reports"
	"github.com/digishelf/digishelf/internal/reviews"
	"github.com/digishelf/digishelf/internal/scheduler"
	"github.com/digishelf/digishelf/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for SIGINT / SIGTERM, then drain within the shutdown timeout.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown requested, waiting up to %v", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background workers before closing the listener
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting DigiShelf v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	if err := os.MkdirAll(cfg.Reports.Dir, 0o755); err != nil {
		log.Fatalf("Reports directory %s is not usable: %v", cfg.Reports.Dir, err)
	}

	// Repositories
	catalogStore := booksrepo.NewRepository(db.DB)
	memberStore := usersrepo.NewRepository(db.DB)
	lendingStore := lendingrepo.NewRepository(db.DB)
	reviewStore := reviewsrepo.NewRepository(db.DB)
	readingStore := readingrepo.NewRepository(db.DB)
	wishlistStore := wishlistrepo.NewRepository(db.DB)
	notificationStore := notificationsrepo.NewRepository(db.DB)
	activityStore := activityrepo.NewRepository(db.DB)
	recommendStore := recommendrepo.NewRepository(db.DB)
	reportStore := reportsrepo.NewRepository(db.DB)
	statsStore := statsrepo.NewRepository(db.DB)

	// Services
	activityService := activity.NewService(activityStore)
	notifyService := notify.NewService(notificationStore)
	lendingService := lending.NewService(lendingStore, notifyService, activityService, cfg.Lending)
	reviewsService := reviews.NewService(reviewStore, activityService)
	readingService := reading.NewService(readingStore)
	recommendService := recommend.NewService(recommendStore)
	reportsService := reports.NewService(reportStore, cfg.Reports.Dir, cfg.Lending)

	// Task queue
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewOverdueNoticeQueue(notifyService),
			tasks.NewBulkNotificationQueue(notifyService),
			tasks.NewCleanupActivityLogsQueue(activityService),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Daily overdue scan
	var overdueScan *scheduler.OverdueScanScheduler
	if cfg.OverdueScan.Enabled && taskClient != nil {
		overdueScan = scheduler.NewOverdueScanScheduler(lendingService, taskClient, scheduler.Config{
			Schedule:              cfg.OverdueScan.Schedule,
			ActivityRetentionDays: cfg.Activity.RetentionDays,
		})
		if err := overdueScan.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start overdue scan scheduler: %v", err)
		}
	} else if cfg.OverdueScan.Enabled {
		log.Printf("Overdue scan disabled: task queue is not enabled")
	}

	// Authentication
	var authService *auth.Service
	var authMiddleware *auth.Middleware
	var sessionManager *auth.SessionManager
	var rateLimiter *auth.RateLimiter
	var csrfSecret []byte

	if cfg.Auth.Mode == config.AuthModeLocal {
		log.Printf("Authentication mode: local")

		authService = auth.NewService(db.DB, cfg.Auth, activityService)

		sqlDB, err := db.DB.DB()
		if err != nil {
			log.Fatalf("Failed to get SQL DB for sessions: %v", err)
		}

		sessionManager, err = auth.NewSessionManager(sqlDB, cfg.Auth)
		if err != nil {
			log.Fatalf("Failed to initialize session manager: %v", err)
		}

		authMiddleware = auth.NewMiddleware(authService, sessionManager, cfg.Auth)

		rateLimiter = auth.NewRateLimiter(auth.RateLimitConfig{
			MaxAttempts:     cfg.Auth.MaxLoginAttempts,
			WindowDuration:  cfg.Auth.RateLimitWindow,
			LockoutDuration: cfg.Auth.LockoutDuration,
		})
		defer rateLimiter.Stop()

		if cfg.Auth.SessionSecret != "" {
			csrfSecret, err = hex.DecodeString(cfg.Auth.SessionSecret)
			if err != nil {
				// Not hex, use as raw bytes
				csrfSecret = []byte(cfg.Auth.SessionSecret)
			}
		} else {
			secret, err := auth.GenerateSessionSecret()
			if err != nil {
				log.Fatalf("Failed to generate CSRF secret: %v", err)
			}
			csrfSecret, _ = hex.DecodeString(secret)
			log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
		}

		hasAdmin, _ := authService.HasAdmin()
		if !hasAdmin {
			log.Printf("No admin account found. Run 'digishelf create-admin' to create one.")
		}
	} else {
		log.Printf("Authentication mode: none (no authentication required)")
	}

	routerCfg := http_controllers.RouterConfig{
		Database:         db,
		AuthService:      authService,
		SessionManager:   sessionManager,
		AuthMiddleware:   authMiddleware,
		RateLimiter:      rateLimiter,
		AuthConfig:       cfg.Auth,
		CSRFSecret:       csrfSecret,
		SecureCookies:    cfg.Auth.SecureCookies,
		CatalogStore:     catalogStore,
		MemberStore:      memberStore,
		WishlistStore:    wishlistStore,
		LendingService:   lendingService,
		ReviewsService:   reviewsService,
		ReadingService:   readingService,
		NotifyService:    notifyService,
		RecommendService: recommendService,
		ActivityService:  activityService,
		ReportsService:   reportsService,
		StatsRepository:  statsStore,
		TaskClient:       taskClient,
		Version:          version,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if overdueScan != nil {
			overdueScan.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
