package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/readinglists/internal/database"
	"github.com/mrlokans/readinglists/internal/entities"
	"github.com/mrlokans/readinglists/internal/syncstate"
)

type healthSync struct {
	state   syncstate.State
	syncing bool
}

func (h healthSync) SyncState() syncstate.State { return h.state }
func (h healthSync) IsSyncing() bool            { return h.syncing }

func setupHealthTestDB(t *testing.T) (*database.Database, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := filepath.Join(t.TempDir(), "health.db")
	db, err := database.NewDatabaseWithOptions(dbPath, database.Options{LogLevel: logger.Silent})
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
	}
	return db, cleanup
}

func getHealth(t *testing.T, controller *HealthController) (*httptest.ResponseRecorder, HealthResponse) {
	t.Helper()
	router := gin.New()
	router.GET("/health", controller.Status)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return w, response
}

func TestHealthController_Status(t *testing.T) {
	t.Run("returns healthy when database is connected", func(t *testing.T) {
		db, cleanup := setupHealthTestDB(t)
		defer cleanup()

		w, response := getHealth(t, NewHealthController(db, nil, nil, "1.0.0"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "1.0.0", response.Version)
		assert.Equal(t, "ok", response.Checks["database"])
		assert.NotEmpty(t, response.Time)
	})

	t.Run("reports missing database", func(t *testing.T) {
		w, response := getHealth(t, NewHealthController(nil, nil, nil, "1.0.0"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "not configured", response.Checks["database"])
	})

	t.Run("returns unhealthy when database connection is closed", func(t *testing.T) {
		db, _ := setupHealthTestDB(t)
		db.Close()

		w, response := getHealth(t, NewHealthController(db, nil, nil, "1.0.0"))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "unhealthy", response.Status)
		assert.Contains(t, response.Checks["database"], "error")
	})

	t.Run("includes timestamp in response", func(t *testing.T) {
		db, cleanup := setupHealthTestDB(t)
		defer cleanup()

		_, response := getHealth(t, NewHealthController(db, nil, nil, "1.0.0"))

		_, err := time.Parse(time.RFC3339, response.Time)
		assert.NoError(t, err)
	})

	t.Run("reports sync state and last pass", func(t *testing.T) {
		db, cleanup := setupHealthTestDB(t)
		defer cleanup()
		completed := time.Now()
		progress := &fakeProgress{progress: &entities.SyncProgress{
			Status:      entities.SyncStatusCompleted,
			CompletedAt: &completed,
		}}

		w, response := getHealth(t, NewHealthController(db, healthSync{state: syncstate.NeedsUpdate, syncing: true}, progress, "1.0.0"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "ok", response.Checks["sync"])
		require.NotNil(t, response.Sync)
		assert.Equal(t, "needs_update", response.Sync.State)
		assert.True(t, response.Sync.Syncing)
		assert.Equal(t, "completed", response.Sync.LastStatus)
		assert.NotNil(t, response.Sync.LastCompletedAt)
	})

	t.Run("degraded after a failed pass", func(t *testing.T) {
		db, cleanup := setupHealthTestDB(t)
		defer cleanup()
		progress := &fakeProgress{progress: &entities.SyncProgress{
			Status: entities.SyncStatusFailed,
			Error:  "server unavailable",
		}}

		w, response := getHealth(t, NewHealthController(db, healthSync{state: syncstate.NeedsUpdate}, progress, "1.0.0"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "degraded", response.Status)
		assert.Equal(t, "last pass failed: server unavailable", response.Checks["sync"])
		require.NotNil(t, response.Sync)
		assert.Equal(t, "server unavailable", response.Sync.LastError)
	})

	t.Run("omits sync without a controller", func(t *testing.T) {
		db, cleanup := setupHealthTestDB(t)
		defer cleanup()

		_, response := getHealth(t, NewHealthController(db, nil, nil, "1.0.0"))

		assert.Nil(t, response.Sync)
		_, ok := response.Checks["sync"]
		assert.False(t, ok)
	})
}
