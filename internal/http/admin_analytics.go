package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/digishelf/digishelf/internal/activity"
	statsrepo "github.com/digishelf/digishelf/internal/database/stats"
	"github.com/digishelf/digishelf/internal/entities"
	"github.com/digishelf/digishelf/internal/notify"
	"github.com/digishelf/digishelf/internal/reports"
	"github.com/digishelf/digishelf/internal/tasks"
)

// AdminAnalyticsController serves the admin dashboard, reports, bulk
// notifications and the activity log.
type AdminAnalyticsController struct {
	stats         *statsrepo.Repository
	reports       *reports.Service
	notifications *notify.Service
	activity      *activity.Service
	taskClient    *tasks.Client
}

func NewAdminAnalyticsController(
	stats *statsrepo.Repository,
	reportsService *reports.Service,
	notifications *notify.Service,
	activityService *activity.Service,
	taskClient *tasks.Client,
) *AdminAnalyticsController {
	return &AdminAnalyticsController{
		stats:         stats,
		reports:       reportsService,
		notifications: notifications,
		activity:      activityService,
		taskClient:    taskClient,
	}
}

// GetAnalytics returns the admin dashboard aggregates.
// GET /api/admin/analytics
func (aac *AdminAnalyticsController) GetAnalytics(c *gin.Context) {
	months := 12
	if monthsStr := c.Query("months"); monthsStr != "" {
		if m, err := strconv.Atoi(monthsStr); err == nil && m > 0 && m <= 60 {
			months = m
		}
	}

	library, err := aac.stats.GetLibraryStats(time.Now())
	if err != nil {
		respondInternalError(c, err, "library stats")
		return
	}
	growth, err := aac.stats.UserGrowthByMonth(months)
	if err != nil {
		respondInternalError(c, err, "user growth")
		return
	}
	circulation, err := aac.stats.CirculationByMonth(months)
	if err != nil {
		respondInternalError(c, err, "circulation series")
		return
	}
	categories, err := aac.stats.CategoryDistribution()
	if err != nil {
		respondInternalError(c, err, "category distribution")
		return
	}
	performance, err := aac.stats.GetPerformanceMetrics()
	if err != nil {
		respondInternalError(c, err, "performance metrics")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"library":               library,
		"user_growth":           growth,
		"circulation_by_month":  circulation,
		"category_distribution": categories,
		"performance":           performance,
	})
}

// GetReport builds a report over a date range. The type query parameter
// selects circulation, member_activity, reading_trends or overdue;
// format=csv writes a CSV file and returns its path.
// GET /api/admin/reports
func (aac *AdminAnalyticsController) GetReport(c *gin.Context) {
	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}

	reportType := c.DefaultQuery("type", "circulation")
	asCSV := c.Query("format") == "csv"

	switch reportType {
	case "circulation":
		if asCSV {
			path, err := aac.reports.ExportCirculationCSV(from, to)
			if err != nil {
				aac.respondReportError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"file": path})
			return
		}
		report, err := aac.reports.Circulation(from, to)
		if err != nil {
			aac.respondReportError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)

	case "member_activity":
		if asCSV {
			path, err := aac.reports.ExportMemberActivityCSV(from, to)
			if err != nil {
				aac.respondReportError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"file": path})
			return
		}
		report, err := aac.reports.MemberActivity(from, to)
		if err != nil {
			aac.respondReportError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)

	case "reading_trends":
		if asCSV {
			path, err := aac.reports.ExportReadingTrendsCSV(from, to)
			if err != nil {
				aac.respondReportError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"file": path})
			return
		}
		report, err := aac.reports.ReadingTrends(from, to)
		if err != nil {
			aac.respondReportError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)

	case "overdue":
		if asCSV {
			path, err := aac.reports.ExportOverdueCSV()
			if err != nil {
				aac.respondReportError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"file": path})
			return
		}
		report, err := aac.reports.OverdueAnalysis()
		if err != nil {
			aac.respondReportError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)

	default:
		respondBadRequest(c, "unknown report type, expected circulation, member_activity, reading_trends or overdue")
	}
}

func (aac *AdminAnalyticsController) respondReportError(c *gin.Context, err error) {
	if errors.Is(err, reports.ErrInvalidRange) {
		respondBadRequest(c, err.Error())
		return
	}
	respondInternalError(c, err, "build report")
}

type bulkNotificationBody struct {
	Audience string `json:"audience" binding:"required"`
	Title    string `json:"title" binding:"required"`
	Message  string `json:"message" binding:"required"`
	Type     string `json:"type"`
}

// SendBulkNotification notifies an audience of members: all, active or
// overdue.
// POST /api/admin/notifications
func (aac *AdminAnalyticsController) SendBulkNotification(c *gin.Context) {
	var body bulkNotificationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "audience, title and message are required")
		return
	}

	// Large audiences fan out in a worker; without a task queue the send
	// happens inline.
	if aac.taskClient != nil {
		task := tasks.BulkNotificationTask{
			Audience: body.Audience,
			Title:    body.Title,
			Message:  body.Message,
			Type:     body.Type,
		}
		if _, err := aac.taskClient.Add(task).Save(); err != nil {
			respondInternalError(c, err, "enqueue bulk notification")
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"queued": true})
		return
	}

	notificationType := entities.NotificationTypeInfo
	switch entities.NotificationType(body.Type) {
	case entities.NotificationTypeSuccess, entities.NotificationTypeWarning, entities.NotificationTypeError:
		notificationType = entities.NotificationType(body.Type)
	}

	sent, err := aac.notifications.SendBulk(body.Audience, body.Title, body.Message, notificationType)
	if err != nil {
		respondInternalError(c, err, "send bulk notification")
		return
	}

	c.JSON(http.StatusOK, gin.H{"sent": sent})
}

// GetActivityLog returns activity entries, optionally for one member.
// GET /api/admin/activity
func (aac *AdminAnalyticsController) GetActivityLog(c *gin.Context) {
	limit, offset := parsePagination(c, 50)

	var userID uint
	if userStr := c.Query("user_id"); userStr != "" {
		parsed, err := strconv.ParseUint(userStr, 10, 32)
		if err != nil {
			respondBadRequest(c, "invalid user_id")
			return
		}
		userID = uint(parsed)
	}

	entries, total, err := aac.activity.GetEntries(userID, limit, offset)
	if err != nil {
		respondInternalError(c, err, "activity log")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    entries,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(entries)) < total,
	})
}
