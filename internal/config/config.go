package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Database
		ReadingLists
		Remote
		PeriodicSync
		Tasks
		Global
	}

	HTTP struct {
		Port int32
		Host string
	}
	Database struct {
		Path string
	}
	ReadingLists struct {
		SyncDebounce      time.Duration
		MaxListsPerUser   int64 // Used until the server provides a quota
		MaxEntriesPerList int64
	}
	Remote struct {
		BaseURL string
		Token   string
		Rate    float64 // Requests per second
		Burst   int
		Timeout time.Duration
	}
	PeriodicSync struct {
		Enabled  bool
		Schedule string // Cron format: "*/15 * * * *" = every 15 minutes
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Reading list defaults
	v.SetDefault("reading_lists_sync_debounce", "500ms")
	v.SetDefault("reading_lists_max_lists_per_user", 100)
	v.SetDefault("reading_lists_max_entries_per_list", 5000)

	// Remote API defaults
	v.SetDefault("reading_lists_api_url", "https://en.wikipedia.org/api/rest_v1")
	v.SetDefault("reading_lists_api_token", "")
	v.SetDefault("reading_lists_api_rate", 10)
	v.SetDefault("reading_lists_api_burst", 5)
	v.SetDefault("reading_lists_api_timeout", "30s")

	v.SetDefault("periodic_sync_enabled", true)
	v.SetDefault("periodic_sync_schedule", "*/15 * * * *") // Every 15 minutes

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		ReadingLists: ReadingLists{
			SyncDebounce:      v.GetDuration("READING_LISTS_SYNC_DEBOUNCE"),
			MaxListsPerUser:   v.GetInt64("READING_LISTS_MAX_LISTS_PER_USER"),
			MaxEntriesPerList: v.GetInt64("READING_LISTS_MAX_ENTRIES_PER_LIST"),
		},
		Remote: Remote{
			BaseURL: v.GetString("READING_LISTS_API_URL"),
			Token:   v.GetString("READING_LISTS_API_TOKEN"),
			Rate:    v.GetFloat64("READING_LISTS_API_RATE"),
			Burst:   v.GetInt("READING_LISTS_API_BURST"),
			Timeout: v.GetDuration("READING_LISTS_API_TIMEOUT"),
		},
		PeriodicSync: PeriodicSync{
			Enabled:  v.GetBool("PERIODIC_SYNC_ENABLED"),
			Schedule: v.GetString("PERIODIC_SYNC_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
	}
}
