package entities

import (
	"time"
)

// DefaultReadingListName is the display name of the single default list.
const DefaultReadingListName = "Saved"

type ReadingList struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	RemoteID         *int64    `gorm:"index" json:"remote_id,omitempty"`
	Name             string    `gorm:"size:512" json:"name"`
	CanonicalName    string    `gorm:"index;size:512" json:"-"`
	Description      *string   `gorm:"type:text" json:"description,omitempty"`
	IsDefault        bool      `gorm:"index" json:"is_default"`
	IsDeletedLocally bool      `gorm:"index" json:"is_deleted_locally"`
	IsUpdatedLocally bool      `gorm:"index" json:"is_updated_locally"`
	ErrorCode        *string   `gorm:"size:100" json:"error_code,omitempty"`
	CountOfEntries   int64     `json:"count_of_entries"`
	Revision         int64     `json:"-"`
	CreatedDate      time.Time `json:"created_date"`
	UpdatedDate      time.Time `json:"updated_date"`
}

func (ReadingList) TableName() string {
	return "reading_lists"
}

// Touch marks the list dirty for the next sync.
func (l *ReadingList) Touch(now time.Time) {
	l.IsUpdatedLocally = true
	l.UpdatedDate = now
	l.Revision++
}

type ReadingListEntry struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	RemoteID         *int64    `gorm:"index" json:"remote_id,omitempty"`
	ListID           uint      `gorm:"index" json:"list_id"`
	ArticleKey       string    `gorm:"index;size:1024" json:"article_key"`
	Variant          string    `gorm:"size:32" json:"variant,omitempty"`
	DisplayTitle     string    `gorm:"size:512" json:"display_title"`
	IsDeletedLocally bool      `gorm:"index" json:"is_deleted_locally"`
	IsUpdatedLocally bool      `gorm:"index" json:"is_updated_locally"`
	ErrorCode        *string   `gorm:"size:100" json:"error_code,omitempty"`
	Revision         int64     `json:"-"`
	CreatedDate      time.Time `json:"created_date"`
	UpdatedDate      time.Time `json:"updated_date"`
}

func (ReadingListEntry) TableName() string {
	return "reading_list_entries"
}

// Touch marks the entry dirty for the next sync.
func (e *ReadingListEntry) Touch(now time.Time) {
	e.IsUpdatedLocally = true
	e.UpdatedDate = now
	e.Revision++
}
