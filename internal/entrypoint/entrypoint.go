package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mrlokans/readinglists/internal/config"
	"github.com/mrlokans/readinglists/internal/database"
	syncdb "github.com/mrlokans/readinglists/internal/database/sync"
	http_controllers "github.com/mrlokans/readinglists/internal/http"
	"github.com/mrlokans/readinglists/internal/metrics"
	"github.com/mrlokans/readinglists/internal/readinglists"
	"github.com/mrlokans/readinglists/internal/remote"
	"github.com/mrlokans/readinglists/internal/scheduler"
	"github.com/mrlokans/readinglists/internal/settingsstore"
	"github.com/mrlokans/readinglists/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		// service connections
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	// kill (no param) default send syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	// kill -9 is syscall.SIGKILL but can't be caught, so don't need to add it
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop sync workers)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// NewRemoteClient creates the reading lists API client. The token is
// resolved on every request so runtime changes apply immediately.
func NewRemoteClient(cfg *config.Config, store *settingsstore.SettingsStore) *remote.Client {
	return remote.NewClient(remote.Options{
		BaseURL: cfg.Remote.BaseURL,
		Timeout: cfg.Remote.Timeout,
		Rate:    cfg.Remote.Rate,
		Burst:   cfg.Remote.Burst,
		Token:   store.GetRemoteToken,
	})
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Reading Lists v%s", version)

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	settingsStore := settingsstore.New(db)
	if !settingsStore.HasRemoteToken() {
		log.Printf("WARNING: reading lists API token is not set. Sync requests will be unauthenticated. Set 'READING_LISTS_API_TOKEN' environment variable to enable.")
	}

	// Metrics registry shared by the sync collector and the runtime collectors
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	syncProgress := syncdb.NewRepository(db.DB)
	controller := readinglists.NewController(readinglists.Options{
		DB:                       db.DB,
		API:                      NewRemoteClient(cfg, settingsStore),
		Progress:                 syncProgress,
		Metrics:                  collector,
		DebounceDelay:            cfg.ReadingLists.SyncDebounce,
		DefaultMaxListsPerUser:   cfg.ReadingLists.MaxListsPerUser,
		DefaultMaxEntriesPerList: cfg.ReadingLists.MaxEntriesPerList,
	})
	controller.Start()

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(tasks.NewBackgroundSyncQueue(controller))

		// Start task workers in background
		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Periodic sync worker; schedule and toggle are read from the settings store
	periodicSync := scheduler.NewPeriodicSyncScheduler(settingsStore, controller)
	if err := periodicSync.Start(context.Background()); err != nil {
		log.Printf("WARNING: periodic sync not started: %v", err)
	}

	// Build router configuration with all dependencies
	routerCfg := http_controllers.RouterConfig{
		ReadingLists:      controller,
		Database:          db,
		SyncProgress:      syncProgress,
		SettingsStore:     settingsStore,
		PeriodicScheduler: periodicSync,
		MetricsGatherer:   registry,
		Version:           version,
	}
	if taskClient != nil {
		routerCfg.TaskQueue = taskClient
	}

	router := http_controllers.NewRouter(routerCfg)

	// Shutdown callback for graceful cleanup
	onShutdown := func(ctx context.Context) {
		periodicSync.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		if err := controller.Stop(nil).Wait(ctx); err != nil {
			log.Printf("Reading lists: stop did not complete: %v", err)
		}
		controller.Shutdown()
	}

	Serve(router, cfg, onShutdown)
}
