package http

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupArticlesRouter(t *testing.T) *gin.Engine {
	t.Helper()
	service, _ := newTestService(t)
	controller := NewArticlesController(service)

	router := gin.New()
	router.POST("/api/articles/save", controller.SaveArticle)
	router.POST("/api/articles/unsave", controller.UnsaveArticle)
	router.GET("/api/articles/saved", controller.GetSavedArticles)
	return router
}

func TestArticlesController_SaveAndUnsave(t *testing.T) {
	router := setupArticlesRouter(t)
	checkPath := "/api/articles/saved?key=" + url.QueryEscape(adaKey)

	w := doJSON(t, router, "POST", "/api/articles/save", ArticleRequest{Key: adaKey, Variant: "en"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"saved":true`)
	assert.Contains(t, w.Body.String(), `"display_title":"Ada Lovelace"`)

	w = doJSON(t, router, "GET", checkPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"saved":true`)

	w = doJSON(t, router, "GET", "/api/articles/saved", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)

	w = doJSON(t, router, "POST", "/api/articles/unsave", ArticleRequest{Key: adaKey})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"saved":false`)

	w = doJSON(t, router, "GET", checkPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"saved":false`)
}

func TestArticlesController_SaveArticle_Invalid(t *testing.T) {
	router := setupArticlesRouter(t)

	w := doJSON(t, router, "POST", "/api/articles/save", ArticleRequest{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
