package entities

import (
	"time"
)

type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	// Reading list sync state and quotas
	SettingKeySyncState          = "WMFReadingListSyncStateKey"
	SettingKeySyncRemotelyEnable = "WMFReadingListSyncRemotelyEnabledKey"
	SettingKeyDefaultListEnabled = "WMFReadingListDefaultListEnabledKey"
	SettingKeyMaxEntriesPerList  = "WMFReadingListsConfigMaxEntriesPerList"
	SettingKeyMaxListsPerUser    = "WMFReadingListsConfigMaxListsPerUser"
	SettingKeyUpdateSince        = "WMFReadingListUpdateKey"

	// Debug population counts
	SettingKeyCountOfListsToCreate   = "WMFCountOfListsToCreate"
	SettingKeyCountOfEntriesToCreate = "WMFCountOfEntriesToCreate"

	// Periodic sync settings
	SettingKeyPeriodicSyncEnabled  = "periodic_sync_enabled"
	SettingKeyPeriodicSyncSchedule = "periodic_sync_schedule"

	// Remote API settings
	SettingKeyRemoteToken = "remote_api_token"
)
