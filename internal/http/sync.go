package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readinglists/internal/entities"
)

// SyncController exposes the sync state machine and its triggers.
type SyncController struct {
	sync     SyncControl
	progress SyncProgressReader
	tasks    BackgroundSyncQueue
}

// NewSyncController creates a SyncController. progress and tasks may be nil.
func NewSyncController(sync SyncControl, progress SyncProgressReader, tasks BackgroundSyncQueue) *SyncController {
	return &SyncController{sync: sync, progress: progress, tasks: tasks}
}

type SyncStatusResponse struct {
	State              string                 `json:"state"`
	Flags              []string               `json:"flags"`
	Enabled            bool                   `json:"enabled"`
	Syncing            bool                   `json:"syncing"`
	RemotelyEnabled    bool                   `json:"remotely_enabled"`
	DefaultListEnabled bool                   `json:"default_list_enabled"`
	MaxListsPerUser    int64                  `json:"max_lists_per_user"`
	MaxEntriesPerList  int64                  `json:"max_entries_per_list"`
	LastSync           *entities.SyncProgress `json:"last_sync,omitempty"`
}

func (sc *SyncController) status() (SyncStatusResponse, error) {
	state := sc.sync.SyncState()
	maxLists, maxEntries, err := sc.sync.Limits()
	if err != nil {
		return SyncStatusResponse{}, err
	}
	response := SyncStatusResponse{
		State:              state.String(),
		Flags:              state.Flags(),
		Enabled:            state.IsSyncEnabled(),
		Syncing:            sc.sync.IsSyncing(),
		RemotelyEnabled:    sc.sync.IsSyncRemotelyEnabled(),
		DefaultListEnabled: sc.sync.IsDefaultListEnabled(),
		MaxListsPerUser:    maxLists,
		MaxEntriesPerList:  maxEntries,
	}
	if sc.progress != nil {
		// No row yet just means no pass was recorded
		if progress, err := sc.progress.GetSyncProgress(); err == nil {
			response.LastSync = progress
		}
	}
	return response, nil
}

func (sc *SyncController) respondStatus(c *gin.Context, status int) {
	response, err := sc.status()
	if err != nil {
		respondInternalError(c, err, "get sync status")
		return
	}
	c.JSON(status, response)
}

// GetStatus handles GET /api/sync
func (sc *SyncController) GetStatus(c *gin.Context) {
	sc.respondStatus(c, http.StatusOK)
}

type SetSyncEnabledRequest struct {
	Enabled      *bool `json:"enabled" binding:"required"`
	DeleteLocal  bool  `json:"delete_local"`
	DeleteRemote bool  `json:"delete_remote"`
}

// SetEnabled handles PUT /api/sync
func (sc *SyncController) SetEnabled(c *gin.Context) {
	var req SetSyncEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "enabled is required")
		return
	}
	sc.sync.SetSyncEnabled(*req.Enabled, req.DeleteLocal, req.DeleteRemote)
	sc.respondStatus(c, http.StatusOK)
}

// Sync handles POST /api/sync
// The pass runs after the debounce delay.
func (sc *SyncController) Sync(c *gin.Context) {
	sc.sync.Sync()
	respondAccepted(c, "sync scheduled", nil)
}

// FullSync handles POST /api/sync/full
// With ?wait=true the response is sent once the pass has finished.
func (sc *SyncController) FullSync(c *gin.Context) {
	h := sc.sync.FullSync()
	if c.Query("wait") != "true" {
		respondAccepted(c, "full sync queued", nil)
		return
	}
	if err := waitHandle(c.Request.Context(), h); err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error(), Code: "sync_failed"})
		return
	}
	sc.respondStatus(c, http.StatusOK)
}

// Stop handles POST /api/sync/stop
func (sc *SyncController) Stop(c *gin.Context) {
	h := sc.sync.Stop(nil)
	if err := waitHandle(c.Request.Context(), h); err != nil {
		respondInternalError(c, err, "stop sync")
		return
	}
	respondSuccess(c, "sync stopped")
}

// BackgroundSync handles POST /api/sync/background
func (sc *SyncController) BackgroundSync(c *gin.Context) {
	if sc.tasks == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "task queue is disabled"})
		return
	}
	taskID, err := sc.tasks.EnqueueBackgroundSync("api")
	if err != nil {
		respondInternalError(c, err, "enqueue background sync")
		return
	}
	respondAccepted(c, "background sync queued", gin.H{"task_id": taskID})
}

type SetLimitsRequest struct {
	MaxListsPerUser   int64 `json:"max_lists_per_user" binding:"min=0"`
	MaxEntriesPerList int64 `json:"max_entries_per_list" binding:"min=0"`
}

// SetLimits handles PUT /api/sync/limits
// Zero leaves a quota unchanged.
func (sc *SyncController) SetLimits(c *gin.Context) {
	var req SetLimitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "limits must not be negative")
		return
	}
	if err := sc.sync.SetLimits(req.MaxListsPerUser, req.MaxEntriesPerList); err != nil {
		respondInternalError(c, err, "set limits")
		return
	}
	sc.respondStatus(c, http.StatusOK)
}

type SetDefaultListRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// SetDefaultList handles PUT /api/sync/default-list
func (sc *SyncController) SetDefaultList(c *gin.Context) {
	var req SetDefaultListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "enabled is required")
		return
	}
	if err := sc.sync.SetDefaultListEnabled(*req.Enabled); err != nil {
		respondInternalError(c, err, "set default list")
		return
	}
	sc.respondStatus(c, http.StatusOK)
}

type DebugSyncRequest struct {
	CreateLists bool  `json:"create_lists"`
	ListCount   int64 `json:"list_count"`
	AddEntries  bool  `json:"add_entries"`
	EntryCount  int64 `json:"entry_count"`
}

// DebugSync handles POST /api/sync/debug
func (sc *SyncController) DebugSync(c *gin.Context) {
	var req DebugSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if !req.CreateLists && !req.AddEntries {
		respondBadRequest(c, "create_lists or add_entries is required")
		return
	}
	sc.sync.DebugSync(req.CreateLists, req.ListCount, req.AddEntries, req.EntryCount)
	respondAccepted(c, "debug sync scheduled", nil)
}

// Erase handles POST /api/erase
func (sc *SyncController) Erase(c *gin.Context) {
	sc.sync.EraseAllSavedArticlesAndReadingLists()
	respondAccepted(c, "erase scheduled", nil)
}
