package entities

import (
	"time"
)

type SyncType string

const (
	SyncTypeReadingLists SyncType = "reading_lists"
)

type SyncStatus string

const (
	SyncStatusRunning   SyncStatus = "running"
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusFailed    SyncStatus = "failed"
)

// SyncProgress records the most recent sync pass of a given type.
type SyncProgress struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	SyncType      SyncType   `gorm:"size:50;uniqueIndex" json:"sync_type"`
	OperationID   string     `gorm:"size:36" json:"operation_id,omitempty"`
	Status        SyncStatus `gorm:"size:20" json:"status"`
	SyncedLists   int        `json:"synced_lists"`
	SyncedEntries int        `json:"synced_entries"`
	CurrentStep   string     `gorm:"size:100" json:"current_step,omitempty"`
	Error         string     `gorm:"type:text" json:"error,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

func (SyncProgress) TableName() string {
	return "sync_progress"
}
