package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mrlokans/readinglists/internal/database"
	"github.com/mrlokans/readinglists/internal/entities"
	"github.com/mrlokans/readinglists/internal/syncstate"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
	Sync    *HealthSync       `json:"sync,omitempty"`
}

// HealthSync summarizes the reading list sync for monitoring.
type HealthSync struct {
	State           string     `json:"state"`
	Syncing         bool       `json:"syncing"`
	LastStatus      string     `json:"last_status,omitempty"`
	LastError       string     `json:"last_error,omitempty"`
	LastCompletedAt *time.Time `json:"last_completed_at,omitempty"`
}

// SyncStateReader exposes the sync state reported by the health check.
type SyncStateReader interface {
	SyncState() syncstate.State
	IsSyncing() bool
}

type HealthController struct {
	db       *database.Database
	sync     SyncStateReader
	progress SyncProgressReader
	version  string
}

func NewHealthController(db *database.Database, sync SyncStateReader, progress SyncProgressReader, version string) *HealthController {
	return &HealthController{
		db:       db,
		sync:     sync,
		progress: progress,
		version:  version,
	}
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	// Check database connectivity
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not configured"
	}

	var syncInfo *HealthSync
	if h.sync != nil && status == "healthy" {
		syncInfo = &HealthSync{
			State:   h.sync.SyncState().String(),
			Syncing: h.sync.IsSyncing(),
		}
		checks["sync"] = h.lastPass(syncInfo)
		// Failed passes degrade the status but keep 200.
		if syncInfo.LastStatus == string(entities.SyncStatusFailed) {
			status = "degraded"
		}
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
		Sync:    syncInfo,
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}

// lastPass fills info from the recorded sync pass and returns the check text.
func (h *HealthController) lastPass(info *HealthSync) string {
	if h.progress == nil {
		return "ok"
	}
	progress, err := h.progress.GetSyncProgress()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "no pass recorded"
	}
	if err != nil {
		return "error: " + err.Error()
	}

	info.LastStatus = string(progress.Status)
	info.LastError = progress.Error
	info.LastCompletedAt = progress.CompletedAt
	if progress.Status == entities.SyncStatusFailed {
		return "last pass failed: " + progress.Error
	}
	return "ok"
}
