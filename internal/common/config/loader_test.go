package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, int64(10000), cfg.Dialog.AmountMin)
	assert.Equal(t, int64(100000000), cfg.Dialog.AmountMax)
	assert.Equal(t, 15*time.Minute, cfg.Dialog.SessionTimeout())
	assert.Equal(t, 100, cfg.Notifications.HistoryLimit)
	assert.Equal(t, EmailTransportSES, cfg.Notifications.Email.Transport)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.App.IsDevelopment())
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
app:
  environment: production
dialog:
  amount_min: 50000
notifications:
  timeout: 2500
  telegram:
    enabled: true
    bot_token: "123:abc"
    chat_id: "-100200"
  email:
    enabled: true
    transport: sns
    topic_arn: arn:aws:sns:eu-central-1:000000000000:leads
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.False(t, cfg.App.IsDevelopment())
	assert.Equal(t, int64(50000), cfg.Dialog.AmountMin)
	assert.Equal(t, int64(100000000), cfg.Dialog.AmountMax)
	assert.Equal(t, 2500*time.Millisecond, GetDuration(cfg.Notifications.Timeout))
	assert.Equal(t, "123:abc", cfg.Notifications.Telegram.BotToken)
	assert.Equal(t, "-100200", cfg.Notifications.Telegram.ChatID)
	assert.Equal(t, EmailTransportSNS, cfg.Notifications.Email.Transport)
	assert.Equal(t, "arn:aws:sns:eu-central-1:000000000000:leads", cfg.Notifications.Email.TopicARN)
}

func TestLoadFromFile_EnvOverrides(t *testing.T) {
	t.Setenv("NOTIFICATIONS_TELEGRAM_CHAT_ID", "777")
	t.Setenv("TELEGRAM_BOT_TOKEN", "from-env")
	t.Setenv("EMAIL_TO", "leads@example.com")
	t.Setenv("LEAD_FROM", "robot@example.com")

	path := writeConfig(t, `
notifications:
  email:
    from_email: ${LEAD_FROM}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "777", cfg.Notifications.Telegram.ChatID)
	assert.Equal(t, "from-env", cfg.Notifications.Telegram.BotToken)
	assert.Equal(t, "leads@example.com", cfg.Notifications.Email.ToEmail)
	assert.Equal(t, "robot@example.com", cfg.Notifications.Email.FromEmail)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "max below min",
			body: "dialog:\n  amount_min: 500\n  amount_max: 100\n",
		},
		{
			name: "unknown email transport",
			body: "notifications:\n  email:\n    transport: smtp\n",
		},
		{
			name: "negative timeout",
			body: "notifications:\n  timeout: -1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadFromFile_UnsetPlaceholderIsEmpty(t *testing.T) {
	t.Setenv("LEAD_CHAT_UNSET", "")
	t.Setenv("TELEGRAM_CHAT_ID", "-100999")

	path := writeConfig(t, `
notifications:
  telegram:
    chat_id: ${LEAD_CHAT_UNSET}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "-100999", cfg.Notifications.Telegram.ChatID)
}
