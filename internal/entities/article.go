package entities

import (
	"time"
)

// Article is one language variant of an article. Variants of the same
// article share a Key; the saved state is tracked per variant but looked up
// by Key alone.
type Article struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Key          string     `gorm:"uniqueIndex:idx_article_key_variant;size:1024" json:"key"`
	Variant      string     `gorm:"uniqueIndex:idx_article_key_variant;size:32" json:"variant,omitempty"`
	DisplayTitle string     `gorm:"size:512" json:"display_title"`
	SavedDate    *time.Time `gorm:"index" json:"saved_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (Article) TableName() string {
	return "articles"
}

func (a *Article) IsSaved() bool {
	return a.SavedDate != nil
}
