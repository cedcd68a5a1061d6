// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Dialog        DialogConfig       `mapstructure:"dialog"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// IsDevelopment reports whether the app runs with the development profile.
func (a AppConfig) IsDevelopment() bool {
	return a.Environment == "" || a.Environment == "development"
}

type ServerConfig struct {
	Port         int      `mapstructure:"port"`
	ReadTimeout  int      `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int      `mapstructure:"write_timeout"` // milliseconds
	CORSOrigins  []string `mapstructure:"cors_origins"`
}

// DialogConfig holds the questionnaire limits.
type DialogConfig struct {
	AmountMin             int64 `mapstructure:"amount_min"`
	AmountMax             int64 `mapstructure:"amount_max"`
	SessionTimeoutMinutes int   `mapstructure:"session_timeout_minutes"`
	MaxMessageLength      int   `mapstructure:"max_message_length"`
}

// SessionTimeout is informational: sessions are never expired.
func (d DialogConfig) SessionTimeout() time.Duration {
	return time.Duration(d.SessionTimeoutMinutes) * time.Minute
}

// NotificationConfig holds the primary (Telegram) and fallback (email) channels.
type NotificationConfig struct {
	Timeout      int            `mapstructure:"timeout"` // milliseconds, per attempt
	HistoryLimit int            `mapstructure:"history_limit"`
	Telegram     TelegramConfig `mapstructure:"telegram"`
	Email        EmailConfig    `mapstructure:"email"`
}

type TelegramConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	BotToken    string `mapstructure:"bot_token"`
	ChatID      string `mapstructure:"chat_id"`
	APIEndpoint string `mapstructure:"api_endpoint"`
}

// EmailConfig selects the AWS transport used for the fallback channel:
// "ses" sends a multipart email, "sns" publishes to a topic with email subscribers.
type EmailConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Transport string `mapstructure:"transport"`
	Region    string `mapstructure:"region"`
	FromEmail string `mapstructure:"from_email"`
	ToEmail   string `mapstructure:"to_email"`
	TopicARN  string `mapstructure:"topic_arn"`
	Endpoint  string `mapstructure:"endpoint"` // optional AWS endpoint override
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

const (
	EmailTransportSES = "ses"
	EmailTransportSNS = "sns"
)
