// Package settings provides database operations for application settings.
//
// Besides plain string settings, it stores the typed values of the reading
// list configuration blob (sync state, quotas, update token). The repository
// can be bound to a transaction so those values commit together with the
// records they describe.
//
// # Usage
//
//	repo := settings.NewRepository(db)
//	state, err := repo.Int64Value(entities.SettingKeySyncState, 0)
package settings

import (
	"errors"
	"strconv"

	"gorm.io/gorm"

	"github.com/mrlokans/readinglists/internal/entities"
)

// Repository handles all settings database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new settings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetSetting retrieves a setting by key.
func (r *Repository) GetSetting(key string) (*entities.Setting, error) {
	var setting entities.Setting
	err := r.db.Where("key = ?", key).First(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// SetSetting creates or updates a setting.
func (r *Repository) SetSetting(key, value string) error {
	var setting entities.Setting
	result := r.db.Where("key = ?", key).First(&setting)

	if result.Error == gorm.ErrRecordNotFound {
		setting = entities.Setting{
			Key:   key,
			Value: value,
		}
		return r.db.Create(&setting).Error
	} else if result.Error != nil {
		return result.Error
	}

	setting.Value = value
	return r.db.Save(&setting).Error
}

// DeleteSetting removes a setting by key.
func (r *Repository) DeleteSetting(key string) error {
	return r.db.Where("key = ?", key).Delete(&entities.Setting{}).Error
}

// StringValue returns the value of key, or ok=false if it is not set.
func (r *Repository) StringValue(key string) (value string, ok bool, err error) {
	setting, err := r.GetSetting(key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return setting.Value, true, nil
}

// Int64Value returns the numeric value of key, or fallback if it is unset
// or not a number.
func (r *Repository) Int64Value(key string, fallback int64) (int64, error) {
	value, ok, err := r.StringValue(key)
	if err != nil || !ok {
		return fallback, err
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback, nil
	}
	return n, nil
}

// SetInt64Value stores a numeric value.
func (r *Repository) SetInt64Value(key string, value int64) error {
	return r.SetSetting(key, strconv.FormatInt(value, 10))
}

// BoolValue returns the boolean value of key, or fallback if it is unset.
func (r *Repository) BoolValue(key string, fallback bool) (bool, error) {
	value, ok, err := r.StringValue(key)
	if err != nil || !ok {
		return fallback, err
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback, nil
	}
	return b, nil
}

// SetBoolValue stores a boolean value.
func (r *Repository) SetBoolValue(key string, value bool) error {
	return r.SetSetting(key, strconv.FormatBool(value))
}
