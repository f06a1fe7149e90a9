package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readinglists/internal/metrics"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.ReadingLists, cfg.SyncProgress, cfg.Version)
	lists := NewReadingListsController(cfg.ReadingLists)
	articles := NewArticlesController(cfg.ReadingLists)
	syncController := NewSyncController(cfg.ReadingLists, cfg.SyncProgress, cfg.TaskQueue)
	events := NewEventsController(cfg.ReadingLists)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	if cfg.MetricsGatherer != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler(cfg.MetricsGatherer)))
	}

	api := router.Group("/api")

	// Reading lists
	api.GET("/reading-lists", lists.GetReadingLists)
	api.POST("/reading-lists", lists.CreateReadingList)
	api.GET("/reading-lists/named/:name", lists.GetReadingListByName)
	api.PATCH("/reading-lists/:id", lists.UpdateReadingList)
	api.DELETE("/reading-lists/:id", lists.DeleteReadingList)
	api.GET("/reading-lists/:id/entries", lists.GetEntries)
	api.POST("/reading-lists/:id/entries", lists.AddEntries)
	api.POST("/reading-lists/:id/entries/remove", lists.RemoveArticles)
	api.DELETE("/entries/:id", lists.RemoveEntry)

	// Saved articles (default list)
	api.POST("/articles/save", articles.SaveArticle)
	api.POST("/articles/unsave", articles.UnsaveArticle)
	api.GET("/articles/saved", articles.GetSavedArticles)

	// Sync
	api.GET("/sync", syncController.GetStatus)
	api.PUT("/sync", syncController.SetEnabled)
	api.POST("/sync", syncController.Sync)
	api.POST("/sync/full", syncController.FullSync)
	api.POST("/sync/stop", syncController.Stop)
	api.POST("/sync/background", syncController.BackgroundSync)
	api.PUT("/sync/limits", syncController.SetLimits)
	api.PUT("/sync/default-list", syncController.SetDefaultList)
	api.POST("/sync/debug", syncController.DebugSync)
	api.POST("/erase", syncController.Erase)

	api.GET("/events", events.Stream)

	// Periodic sync settings (if SettingsStore is available)
	if cfg.SettingsStore != nil {
		periodicSync := NewPeriodicSyncController(cfg.SettingsStore, cfg.PeriodicScheduler)
		api.GET("/settings/periodic-sync", periodicSync.GetSettings)
		api.PUT("/settings/periodic-sync", periodicSync.UpdateSettings)
	}

	return router
}
