package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readinglists/internal/settingsstore"
)

// SchedulePreset represents a common schedule option
type SchedulePreset struct {
	Label       string `json:"label"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

var schedulePresets = []SchedulePreset{
	{Label: "Every 5 minutes", Value: "*/5 * * * *", Description: "Runs every 5 minutes"},
	{Label: "Every 15 minutes", Value: "*/15 * * * *", Description: "Runs at :00, :15, :30, :45"},
	{Label: "Every 30 minutes", Value: "*/30 * * * *", Description: "Runs at :00, :30"},
	{Label: "Every hour", Value: "0 * * * *", Description: "Runs at the top of every hour"},
	{Label: "Every 6 hours", Value: "0 */6 * * *", Description: "Runs at midnight, 6am, noon, 6pm"},
	{Label: "Daily at midnight", Value: "0 0 * * *", Description: "Runs once daily at 00:00"},
}

// PeriodicSyncController handles periodic sync settings
type PeriodicSyncController struct {
	settingsStore *settingsstore.SettingsStore
	scheduler     PeriodicScheduler
}

// NewPeriodicSyncController creates a new controller. sched may be nil.
func NewPeriodicSyncController(store *settingsstore.SettingsStore, sched PeriodicScheduler) *PeriodicSyncController {
	return &PeriodicSyncController{
		settingsStore: store,
		scheduler:     sched,
	}
}

// PeriodicSyncSettingsResponse is the response for GET /api/settings/periodic-sync
type PeriodicSyncSettingsResponse struct {
	Config    settingsstore.PeriodicSyncConfigInfo `json:"config"`
	NextRun   *time.Time                           `json:"next_run,omitempty"`
	IsRunning bool                                 `json:"is_running"`
	IsSyncing bool                                 `json:"is_syncing"`
	Presets   []SchedulePreset                     `json:"presets"`
}

func (pc *PeriodicSyncController) settings() PeriodicSyncSettingsResponse {
	response := PeriodicSyncSettingsResponse{
		Config:  pc.settingsStore.GetPeriodicSyncConfigInfo(),
		Presets: schedulePresets,
	}
	if pc.scheduler != nil {
		response.NextRun = pc.scheduler.GetNextRunTime()
		response.IsRunning = pc.scheduler.IsRunning()
		response.IsSyncing = pc.scheduler.IsSyncing()
	}
	return response
}

// GetSettings returns current periodic sync settings
func (pc *PeriodicSyncController) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, pc.settings())
}

// UpdatePeriodicSyncRequest is the request body for PUT /api/settings/periodic-sync
type UpdatePeriodicSyncRequest struct {
	Enabled  *bool  `json:"enabled"`
	Schedule string `json:"schedule"`
}

// UpdateSettings saves periodic sync settings and reschedules the worker
func (pc *PeriodicSyncController) UpdateSettings(c *gin.Context) {
	var req UpdatePeriodicSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request: "+err.Error())
		return
	}

	// Validate first so an invalid schedule changes nothing
	if req.Schedule != "" {
		if err := settingsstore.ValidateCronSchedule(req.Schedule); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid schedule: " + err.Error(), Code: "invalid_schedule"})
			return
		}
		if err := pc.settingsStore.SetPeriodicSyncSchedule(req.Schedule); err != nil {
			respondInternalError(c, err, "save periodic sync schedule")
			return
		}
	}
	if req.Enabled != nil {
		if err := pc.settingsStore.SetPeriodicSyncEnabled(*req.Enabled); err != nil {
			respondInternalError(c, err, "save periodic sync enabled")
			return
		}
	}

	if pc.scheduler != nil {
		if err := pc.scheduler.Reschedule(); err != nil {
			respondInternalError(c, err, "reschedule periodic sync")
			return
		}
	}

	c.JSON(http.StatusOK, pc.settings())
}
