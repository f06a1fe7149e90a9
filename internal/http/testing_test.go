package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/readinglists/internal/database"
	"github.com/mrlokans/readinglists/internal/readinglists"
	"github.com/mrlokans/readinglists/internal/remote"
)

// newTestService returns a controller on a fresh database. Its debounce
// delay is long enough that no sync pass runs during a test.
func newTestService(t *testing.T) (*readinglists.Controller, *database.Database) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDatabaseWithOptions(filepath.Join(t.TempDir(), "http.db"), database.Options{LogLevel: logger.Silent})
	require.NoError(t, err)

	c := readinglists.NewController(readinglists.Options{
		DB:            db.DB,
		API:           remote.NewClient(remote.Options{BaseURL: "http://127.0.0.1:1"}),
		DebounceDelay: time.Hour,
	})
	t.Cleanup(func() {
		c.Shutdown()
		db.Close()
	})
	return c, db
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
