package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/readinglists/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Database: config.Database{Path: "./reading-lists.db"},
		Remote:   config.Remote{BaseURL: "https://en.wikipedia.org/api/rest_v1"},
	}
}

func TestSyncCommand_ParseFlags(t *testing.T) {
	t.Run("defaults come from config", func(t *testing.T) {
		cmd := NewSyncCommand(testConfig())
		require.NoError(t, cmd.ParseFlags(nil))

		assert.Equal(t, "./reading-lists.db", cmd.DatabasePath)
		assert.Equal(t, "https://en.wikipedia.org/api/rest_v1", cmd.APIURL)
		assert.Equal(t, 10*time.Minute, cmd.Timeout)
		assert.False(t, cmd.Full)
	})

	t.Run("parses options", func(t *testing.T) {
		cmd := NewSyncCommand(testConfig())
		require.NoError(t, cmd.ParseFlags([]string{"-db", "/tmp/lists.db", "-full", "-enable", "-token", "abc"}))

		assert.Equal(t, "/tmp/lists.db", cmd.DatabasePath)
		assert.True(t, cmd.Full)
		assert.True(t, cmd.Enable)
		assert.Equal(t, "abc", cmd.Token)
	})

	t.Run("enable and disable conflict", func(t *testing.T) {
		cmd := NewSyncCommand(testConfig())
		err := cmd.ParseFlags([]string{"-enable", "-disable"})
		assert.Error(t, err)
	})
}

func TestSyncCommand_TokenFunc(t *testing.T) {
	cmd := NewSyncCommand(testConfig())
	cmd.Token = "flag-token"

	token := cmd.tokenFunc(nil)

	assert.Equal(t, "flag-token", token())
}
