package http

import (
	"github.com/gin-gonic/gin"

	"github.com/digishelf/digishelf/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	// CSRF protects session-cookie requests; it must run before the
	// session middleware so the session context survives the request
	// replacement gorilla/csrf performs.
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.AuthService))
	}

	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	} else {
		// No auth - inject default user ID
		router.Use(func(c *gin.Context) {
			c.Set(auth.ContextKeyUserID, auth.DefaultUserID)
			c.Set(auth.ContextKeyAuthType, auth.AuthTypeNone)
			c.Next()
		})
	}

	// Create controllers with appropriate interfaces
	health := NewHealthController(cfg.Database, cfg.Version)
	booksController := NewBooksController(cfg.CatalogStore, cfg.Database, cfg.ReviewsService)
	lendingController := NewLendingController(cfg.LendingService)
	reviewsController := NewReviewsController(cfg.ReviewsService)
	readingController := NewReadingController(cfg.ReadingService)
	wishlistController := NewWishlistController(cfg.WishlistStore)
	notificationsController := NewNotificationsController(cfg.NotifyService)
	dashboardController := NewDashboardController(
		cfg.StatsRepository,
		cfg.LendingService,
		cfg.ReadingService,
		cfg.NotifyService,
		cfg.RecommendService,
		cfg.ActivityService,
	)
	profileController := NewProfileController(cfg.MemberStore, cfg.NotifyService, cfg.ActivityService)
	adminLending := NewAdminLendingController(cfg.LendingService)
	adminMembers := NewAdminMembersController(cfg.MemberStore, cfg.ActivityService)
	adminAnalytics := NewAdminAnalyticsController(
		cfg.StatsRepository,
		cfg.ReportsService,
		cfg.NotifyService,
		cfg.ActivityService,
		cfg.TaskClient,
	)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Auth endpoints
	if cfg.AuthService != nil {
		authController := NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.RateLimiter)
		router.POST("/api/auth/register", authController.Register)
		router.POST("/api/auth/login", authController.Login)
		router.POST("/api/auth/admin/login", authController.AdminLogin)
		router.POST("/api/auth/logout", authController.Logout)
		router.GET("/api/auth/verify", authController.Verify)
		router.POST("/api/auth/password", authController.ChangePassword)
	}

	// Catalog endpoints
	router.GET("/api/books", booksController.ListBooks)
	router.GET("/api/books/categories", booksController.ListCategories)
	router.GET("/api/books/stats", booksController.GetCatalogStats)
	router.GET("/api/books/popular", booksController.GetPopularBooks)
	router.GET("/api/books/:id", booksController.GetBook)

	// Borrowing endpoints
	router.POST("/api/requests", lendingController.SubmitRequest)
	router.GET("/api/requests", lendingController.ListMyRequests)
	router.GET("/api/loans", lendingController.ListMyLoans)
	router.POST("/api/loans/:id/pay-fine", lendingController.PayFine)

	// Review endpoints
	router.GET("/api/books/:id/reviews", reviewsController.ListReviews)
	router.POST("/api/books/:id/reviews", reviewsController.AddReview)
	router.DELETE("/api/reviews/:id", reviewsController.DeleteReview)
	router.POST("/api/reviews/:id/vote", reviewsController.Vote)

	// Reading session endpoints
	router.POST("/api/reading/sessions", readingController.StartSession)
	router.GET("/api/reading/sessions", readingController.ListRecentSessions)
	router.PATCH("/api/reading/sessions/:id", readingController.UpdateProgress)
	router.POST("/api/reading/sessions/:id/end", readingController.EndSession)
	router.GET("/api/reading/stats", readingController.GetStats)

	// Wishlist endpoints
	router.POST("/api/wishlist", wishlistController.Add)
	router.GET("/api/wishlist", wishlistController.List)
	router.DELETE("/api/wishlist/:bookId", wishlistController.Remove)

	// Notification endpoints
	router.GET("/api/notifications", notificationsController.List)
	router.GET("/api/notifications/unread", notificationsController.ListUnread)
	router.POST("/api/notifications/:id/read", notificationsController.MarkRead)
	router.POST("/api/notifications/read-all", notificationsController.MarkAllRead)

	// Profile endpoints
	router.GET("/api/profile", profileController.GetProfile)
	router.PUT("/api/profile", profileController.UpdateProfile)

	// Dashboard endpoints
	router.GET("/api/dashboard", dashboardController.GetDashboard)
	router.GET("/api/recommendations", dashboardController.GetRecommendations)

	// Admin endpoints
	admin := router.Group("/api/admin")
	if cfg.AuthMiddleware != nil {
		admin.Use(cfg.AuthMiddleware.RequireAdmin())
	}

	admin.GET("/requests", adminLending.ListPendingRequests)
	admin.POST("/requests/:id/approve", adminLending.ApproveRequest)
	admin.POST("/requests/:id/reject", adminLending.RejectRequest)
	admin.POST("/issue", adminLending.IssueBook)
	admin.GET("/loans", adminLending.ListIssuedBooks)
	admin.GET("/loans/overdue", adminLending.ListOverdueBooks)
	admin.POST("/loans/:id/return", adminLending.ReturnBook)
	admin.POST("/loans/:id/pay-fine", adminLending.PayFine)

	admin.POST("/books", booksController.CreateBook)
	admin.PUT("/books/:id", booksController.UpdateBook)
	admin.DELETE("/books/:id", booksController.DeleteBook)

	admin.GET("/members", adminMembers.ListMembers)
	admin.POST("/members", adminMembers.CreateMember)
	admin.GET("/members/courses", adminMembers.ListCourses)
	admin.GET("/members/:id", adminMembers.GetMember)
	admin.PUT("/members/:id", adminMembers.UpdateMember)
	admin.POST("/members/:id/block", adminMembers.BlockMember)
	admin.POST("/members/:id/unblock", adminMembers.UnblockMember)
	admin.DELETE("/members/:id", adminMembers.DeleteMember)

	admin.GET("/analytics", adminAnalytics.GetAnalytics)
	admin.GET("/reports", adminAnalytics.GetReport)
	admin.POST("/notifications", adminAnalytics.SendBulkNotification)
	admin.GET("/activity", adminAnalytics.GetActivityLog)

	return router
}
