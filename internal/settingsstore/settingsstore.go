package settingsstore

import (
	"errors"
	"os"

	"gorm.io/gorm"

	"github.com/mrlokans/readinglists/internal/database"
	"github.com/mrlokans/readinglists/internal/entities"
)

// Setting sources, in resolution order.
const (
	SourceDatabase    = "database"
	SourceEnvironment = "environment"
	SourceDefault     = "default"
)

// Priority: database > environment > default
type SettingsStore struct {
	db *database.Database
}

func New(db *database.Database) *SettingsStore {
	return &SettingsStore{db: db}
}

// resolve returns the effective value of key and where it came from.
func (s *SettingsStore) resolve(key, envVar, fallback string) (string, string) {
	// Try database first
	setting, err := s.db.GetSetting(key)
	if err == nil && setting.Value != "" {
		return setting.Value, SourceDatabase
	}

	// Try environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal, SourceEnvironment
	}

	return fallback, SourceDefault
}

func (s *SettingsStore) clear(keys ...string) error {
	for _, key := range keys {
		err := s.db.DeleteSetting(key)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	return nil
}

// RemoteTokenInfo describes the configured reading lists API token.
type RemoteTokenInfo struct {
	Token    string `json:"token"` // Masked for display
	Source   string `json:"source"`
	HasToken bool   `json:"has_token"`
}

// GetRemoteToken returns the reading lists API token (database > env > "")
func (s *SettingsStore) GetRemoteToken() string {
	token, _ := s.resolve(entities.SettingKeyRemoteToken, "READING_LISTS_API_TOKEN", "")
	return token
}

func (s *SettingsStore) GetRemoteTokenSource() string {
	_, source := s.resolve(entities.SettingKeyRemoteToken, "READING_LISTS_API_TOKEN", "")
	return source
}

func (s *SettingsStore) HasRemoteToken() bool {
	return s.GetRemoteToken() != ""
}

func (s *SettingsStore) SetRemoteToken(token string) error {
	return s.db.SetSetting(entities.SettingKeyRemoteToken, token)
}

// ClearRemoteToken removes the database override, reverting to env/default
func (s *SettingsStore) ClearRemoteToken() error {
	return s.clear(entities.SettingKeyRemoteToken)
}

func (s *SettingsStore) GetRemoteTokenInfo() RemoteTokenInfo {
	token, source := s.resolve(entities.SettingKeyRemoteToken, "READING_LISTS_API_TOKEN", "")
	return RemoteTokenInfo{
		Token:    maskToken(token),
		Source:   source,
		HasToken: token != "",
	}
}

// maskToken returns a masked version of the token for display
func maskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "****" + token[len(token)-4:]
}
