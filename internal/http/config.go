package http

import (
	"github.com/digishelf/digishelf/internal/activity"
	"github.com/digishelf/digishelf/internal/auth"
	"github.com/digishelf/digishelf/internal/config"
	"github.com/digishelf/digishelf/internal/database"
	statsrepo "github.com/digishelf/digishelf/internal/database/stats"
	"github.com/digishelf/digishelf/internal/lending"
	"github.com/digishelf/digishelf/internal/notify"
	"github.com/digishelf/digishelf/internal/reading"
	"github.com/digishelf/digishelf/internal/recommend"
	"github.com/digishelf/digishelf/internal/reports"
	"github.com/digishelf/digishelf/internal/reviews"
	"github.com/digishelf/digishelf/internal/tasks"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router. This replaces a long parameter list
// in NewRouter for better maintainability.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database

	// Authentication
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware
	RateLimiter    *auth.RateLimiter
	AuthConfig     config.Auth
	CSRFSecret     []byte
	SecureCookies  bool

	// Catalog and members
	CatalogStore  CatalogStore
	MemberStore   MemberStore
	WishlistStore WishlistStore

	// Domain services
	LendingService   *lending.Service
	ReviewsService   *reviews.Service
	ReadingService   *reading.Service
	NotifyService    *notify.Service
	RecommendService *recommend.Service
	ActivityService  *activity.Service
	ReportsService   *reports.Service
	StatsRepository  *statsrepo.Repository

	// Background work (optional; bulk sends fall back to inline delivery)
	TaskClient *tasks.Client

	// Application info
	Version string
}
