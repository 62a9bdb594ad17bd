package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/digishelf/digishelf/internal/activity"
	statsrepo "github.com/digishelf/digishelf/internal/database/stats"
	"github.com/digishelf/digishelf/internal/entities"
	"github.com/digishelf/digishelf/internal/lending"
	"github.com/digishelf/digishelf/internal/notify"
	"github.com/digishelf/digishelf/internal/reading"
	"github.com/digishelf/digishelf/internal/recommend"
)

// DashboardController assembles the member home screen from the
// per-domain services.
type DashboardController struct {
	stats         *statsrepo.Repository
	lending       *lending.Service
	reading       *reading.Service
	notifications *notify.Service
	recommender   *recommend.Service
	activity      *activity.Service
}

func NewDashboardController(
	stats *statsrepo.Repository,
	lendingService *lending.Service,
	readingService *reading.Service,
	notifications *notify.Service,
	recommender *recommend.Service,
	activityService *activity.Service,
) *DashboardController {
	return &DashboardController{
		stats:         stats,
		lending:       lendingService,
		reading:       readingService,
		notifications: notifications,
		recommender:   recommender,
		activity:      activityService,
	}
}

// GetDashboard returns the member's headline numbers, open loans,
// reading streak, unread notifications, recent activity,
// recommendations and favorite genres.
// GET /api/dashboard
func (dc *DashboardController) GetDashboard(c *gin.Context) {
	userID := GetUserID(c)

	userStats, err := dc.stats.GetUserStats(userID, time.Now())
	if err != nil {
		respondInternalError(c, err, "dashboard stats")
		return
	}

	loans, err := dc.lending.ListLoansForUser(userID)
	if err != nil {
		respondInternalError(c, err, "dashboard loans")
		return
	}
	open := make([]entities.Transaction, 0, len(loans))
	for _, loan := range loans {
		if loan.Status == entities.TransactionStatusIssued {
			open = append(open, loan)
		}
	}

	streak, err := dc.reading.Streak(userID)
	if err != nil {
		respondInternalError(c, err, "dashboard streak")
		return
	}

	_, unreadCount, err := dc.notifications.ListUnread(userID)
	if err != nil {
		respondInternalError(c, err, "dashboard notifications")
		return
	}

	recentActivity, err := dc.activity.GetRecent(userID, 7*24*time.Hour)
	if err != nil {
		respondInternalError(c, err, "dashboard activity")
		return
	}

	recommendations, err := dc.recommender.ForUser(userID, 5)
	if err != nil {
		respondInternalError(c, err, "dashboard recommendations")
		return
	}

	genres, err := dc.recommender.FavoriteGenres(userID)
	if err != nil {
		respondInternalError(c, err, "dashboard genres")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":           userStats,
		"borrowed_books":  open,
		"reading_streak":  streak,
		"unread_count":    unreadCount,
		"recent_activity": recentActivity,
		"recommendations": recommendations,
		"favorite_genres": genres,
	})
}

// GetRecommendations returns personalized book suggestions.
// GET /api/recommendations
func (dc *DashboardController) GetRecommendations(c *gin.Context) {
	limit, _ := parsePagination(c, 10)
	books, err := dc.recommender.ForUser(GetUserID(c), limit)
	if err != nil {
		respondInternalError(c, err, "recommendations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": books})
}
