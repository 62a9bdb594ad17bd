package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/digishelf/digishelf/internal/database"
)

// HealthController reports whether the service can reach its catalog
// database, for load balancers and uptime probes.
type HealthController struct {
	db        *database.Database
	version   string
	startedAt time.Time
}

func NewHealthController(db *database.Database, version string) *HealthController {
	return &HealthController{db: db, version: version, startedAt: time.Now()}
}

type healthStatus struct {
	Status        string `json:"status"`
	Time          string `json:"time"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Version       string `json:"version,omitempty"`
	Database      string `json:"database"`
}

func (h *HealthController) Status(c *gin.Context) {
	dbState := h.databaseState()

	status := "healthy"
	code := http.StatusOK
	if dbState != "ok" && dbState != "not configured" {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	c.IndentedJSON(code, healthStatus{
		Status:        status,
		Time:          time.Now().Format(time.RFC3339),
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		Version:       h.version,
		Database:      dbState,
	})
}

func (h *HealthController) databaseState() string {
	if h.db == nil {
		return "not configured"
	}
	sqlDB, err := h.db.DB.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
