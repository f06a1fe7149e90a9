package settingsstore

import (
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/readinglists/internal/config"
	"github.com/mrlokans/readinglists/internal/entities"
)

// DefaultPeriodicSyncSchedule runs the periodic sync every 15 minutes.
const DefaultPeriodicSyncSchedule = "*/15 * * * *"

// PeriodicSyncConfig represents the effective configuration of the periodic sync worker
type PeriodicSyncConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule"`
}

// PeriodicSyncConfigInfo includes source information for each field
type PeriodicSyncConfigInfo struct {
	Enabled       bool   `json:"enabled"`
	EnabledSource string `json:"enabled_source"` // "database", "environment", "default"

	Schedule       string `json:"schedule"`
	ScheduleSource string `json:"schedule_source"`
	Description    string `json:"description"`
}

func parseBool(value string) bool {
	return value == "true" || value == "1"
}

// GetPeriodicSyncEnabled returns whether periodic sync is enabled (database > env > default)
func (s *SettingsStore) GetPeriodicSyncEnabled() bool {
	value, _ := s.resolve(entities.SettingKeyPeriodicSyncEnabled, "PERIODIC_SYNC_ENABLED", "true")
	return parseBool(value)
}

func (s *SettingsStore) GetPeriodicSyncEnabledSource() string {
	_, source := s.resolve(entities.SettingKeyPeriodicSyncEnabled, "PERIODIC_SYNC_ENABLED", "true")
	return source
}

func (s *SettingsStore) SetPeriodicSyncEnabled(enabled bool) error {
	return s.db.SetSetting(entities.SettingKeyPeriodicSyncEnabled, strconv.FormatBool(enabled))
}

// GetPeriodicSyncSchedule returns the cron schedule (database > env > default)
func (s *SettingsStore) GetPeriodicSyncSchedule() string {
	value, _ := s.resolve(entities.SettingKeyPeriodicSyncSchedule, "PERIODIC_SYNC_SCHEDULE", DefaultPeriodicSyncSchedule)
	return value
}

func (s *SettingsStore) GetPeriodicSyncScheduleSource() string {
	_, source := s.resolve(entities.SettingKeyPeriodicSyncSchedule, "PERIODIC_SYNC_SCHEDULE", DefaultPeriodicSyncSchedule)
	return source
}

// SetPeriodicSyncSchedule validates and saves the schedule to database
func (s *SettingsStore) SetPeriodicSyncSchedule(schedule string) error {
	if err := ValidateCronSchedule(schedule); err != nil {
		return err
	}
	return s.db.SetSetting(entities.SettingKeyPeriodicSyncSchedule, schedule)
}

func (s *SettingsStore) GetPeriodicSyncConfig() PeriodicSyncConfig {
	return PeriodicSyncConfig{
		Enabled:  s.GetPeriodicSyncEnabled(),
		Schedule: s.GetPeriodicSyncSchedule(),
	}
}

func (s *SettingsStore) GetPeriodicSyncConfigInfo() PeriodicSyncConfigInfo {
	schedule := s.GetPeriodicSyncSchedule()
	return PeriodicSyncConfigInfo{
		Enabled:        s.GetPeriodicSyncEnabled(),
		EnabledSource:  s.GetPeriodicSyncEnabledSource(),
		Schedule:       schedule,
		ScheduleSource: s.GetPeriodicSyncScheduleSource(),
		Description:    GetCronDescription(schedule),
	}
}

// ClearPeriodicSyncSettings clears all database overrides, reverting to env/default
func (s *SettingsStore) ClearPeriodicSyncSettings() error {
	return s.clear(entities.SettingKeyPeriodicSyncEnabled, entities.SettingKeyPeriodicSyncSchedule)
}

// NewPeriodicSyncConfigFromEnv creates settings from environment config (for use when database not yet ready)
func NewPeriodicSyncConfigFromEnv(cfg config.PeriodicSync) PeriodicSyncConfig {
	return PeriodicSyncConfig{
		Enabled:  cfg.Enabled,
		Schedule: cfg.Schedule,
	}
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule checks a standard five-field cron expression
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// GetCronDescription returns a human-readable description of a cron schedule
func GetCronDescription(schedule string) string {
	switch schedule {
	case "*/5 * * * *":
		return "Every 5 minutes"
	case "*/15 * * * *":
		return "Every 15 minutes"
	case "*/30 * * * *":
		return "Every 30 minutes"
	case "0 * * * *":
		return "Every hour at :00"
	case "0 */6 * * *":
		return "Every 6 hours"
	case "0 0 * * *":
		return "Daily at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}

// GetNextRunTime calculates when the next sync will run based on the schedule
func GetNextRunTime(schedule string) (*time.Time, error) {
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return nil, err
	}
	next := sched.Next(time.Now())
	return &next, nil
}
