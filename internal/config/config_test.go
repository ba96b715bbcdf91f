package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad_Defaults(t *testing.T) {
	// Given: a config that sets nothing
	path := writeConfig(t, "log-level: debug\n")

	// When: it is loaded
	conf, err := Load(path)

	// Then: every default applies
	require.NoError(t, err)
	assert.Equal(t, "debug", conf.LogLevel)
	assert.Equal(t, "9090", conf.HTTPPort)
	assert.Equal(t, "8001", conf.SocketPort)
	assert.Equal(t, entity.DefaultBoardSize, conf.Board.Size)
	assert.Equal(t, entity.DefaultPlayers, conf.Board.EntityPlayers())
	assert.Equal(t, time.Duration(0), conf.WebSocket.PingInterval)
	assert.Equal(t, 10*time.Second, conf.WebSocket.WriteTimeout)
	assert.Equal(t, 64, conf.WebSocket.SendBuffer)
	assert.Empty(t, conf.Redis.GetRedisAddr())
}

func TestLoad_Custom(t *testing.T) {
	path := writeConfig(t, `
board:
  size: 4
  players:
    - label: A
      color: red
    - label: B
      color: yellow
    - label: C
      color: cyan
websocket:
  ping-interval: 15s
redis:
  host: cache
  port: "6380"
`)

	conf, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 4, conf.Board.Size)
	assert.Equal(t, []entity.Player{
		{Label: "A", Color: "red"},
		{Label: "B", Color: "yellow"},
		{Label: "C", Color: "cyan"},
	}, conf.Board.EntityPlayers())
	assert.Equal(t, 15*time.Second, conf.WebSocket.PingInterval)
	assert.Equal(t, "cache:6380", conf.Redis.GetRedisAddr())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "Board too large",
			content: "board:\n  size: 10\n",
		},
		{
			name:    "Board too small",
			content: "board:\n  size: -1\n",
		},
		{
			name:    "Duplicate labels",
			content: "board:\n  players:\n    - label: X\n    - label: X\n",
		},
		{
			name:    "Reserved label",
			content: "board:\n  players:\n    - label: spectator\n",
		},
		{
			name:    "Negative ping interval",
			content: "websocket:\n  ping-interval: -1s\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestMustLoad_PanicsOnMissingFile(t *testing.T) {
	assert.Panics(t, func() {
		MustLoad(filepath.Join(t.TempDir(), "missing.yml"))
	})
}

func TestLoadClient_Defaults(t *testing.T) {
	t.Setenv("TTT_SERVER_URL", "unset")
	require.NoError(t, os.Unsetenv("TTT_SERVER_URL"))
	t.Setenv("TTT_LOG_FILE", "/tmp/client.log")

	conf, err := LoadClient()

	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8001/ws", conf.ServerURL)
	assert.Equal(t, "/tmp/client.log", conf.LogFile)
}

func TestPropertyValidateBoardSize(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		size := rapid.IntRange(-5, 20).Draw(t, "size")

		conf := Config{
			Board:     Board{Size: size},
			WebSocket: WebSocket{SendBuffer: 1},
		}

		err := conf.Validate()
		if size >= 1 && size <= entity.MaxBoardSize {
			if err != nil {
				t.Fatalf("size %d rejected: %v", size, err)
			}
			return
		}

		if err == nil {
			t.Fatalf("size %d accepted", size)
		}
	})
}
