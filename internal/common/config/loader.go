// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml (optional), merges config.<APP_ENVIRONMENT>.yaml
// on top, then applies environment overrides such as NOTIFICATIONS_TELEGRAM_BOT_TOKEN.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // the environment file is optional

	return finish(v)
}

// LoadFromFile loads configuration from an explicit YAML file.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return finish(v)
}

// Default returns a configuration with every default applied and no file or env input.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys missing from YAML.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "BBKinvest AI Consultant")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")

	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 15000)
	v.SetDefault("server.write_timeout", 30000)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("dialog.amount_min", 10000)
	v.SetDefault("dialog.amount_max", 100000000)
	v.SetDefault("dialog.session_timeout_minutes", 15)
	v.SetDefault("dialog.max_message_length", 2000)

	v.SetDefault("notifications.timeout", 10000)
	v.SetDefault("notifications.history_limit", 100)
	v.SetDefault("notifications.telegram.enabled", true)
	v.SetDefault("notifications.telegram.bot_token", "")
	v.SetDefault("notifications.telegram.chat_id", "")
	v.SetDefault("notifications.telegram.api_endpoint", "")
	v.SetDefault("notifications.email.enabled", false)
	v.SetDefault("notifications.email.transport", EmailTransportSES)
	v.SetDefault("notifications.email.region", "eu-central-1")
	v.SetDefault("notifications.email.from_email", "")
	v.SetDefault("notifications.email.to_email", "")
	v.SetDefault("notifications.email.topic_arn", "")
	v.SetDefault("notifications.email.endpoint", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "")
}

// loadEnvFile loads the first .env found walking from the working directory to the module root.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders written in YAML values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			// an unset variable expands to "" so the short env fallbacks apply
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig honours the short env names used by existing deployments.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Notifications.Telegram.BotToken == "" {
		if val := os.Getenv("TELEGRAM_BOT_TOKEN"); val != "" {
			cfg.Notifications.Telegram.BotToken = val
		}
	}
	if cfg.Notifications.Telegram.ChatID == "" {
		if val := os.Getenv("TELEGRAM_CHAT_ID"); val != "" {
			cfg.Notifications.Telegram.ChatID = val
		}
	}
	if cfg.Notifications.Email.ToEmail == "" {
		if val := os.Getenv("EMAIL_TO"); val != "" {
			cfg.Notifications.Email.ToEmail = val
		}
	}
	if cfg.Notifications.Email.FromEmail == "" {
		if val := os.Getenv("EMAIL_FROM"); val != "" {
			cfg.Notifications.Email.FromEmail = val
		}
	}
}

// applyDefaults fills zero values left by YAML or by a hand-built Config.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "BBKinvest AI Consultant"
	}
	if cfg.App.Version == "" {
		cfg.App.Version = "1.0.0"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30000
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}

	if cfg.Dialog.AmountMin == 0 {
		cfg.Dialog.AmountMin = 10000
	}
	if cfg.Dialog.AmountMax == 0 {
		cfg.Dialog.AmountMax = 100000000
	}
	if cfg.Dialog.SessionTimeoutMinutes == 0 {
		cfg.Dialog.SessionTimeoutMinutes = 15
	}
	if cfg.Dialog.MaxMessageLength == 0 {
		cfg.Dialog.MaxMessageLength = 2000
	}

	if cfg.Notifications.Timeout == 0 {
		cfg.Notifications.Timeout = 10000
	}
	if cfg.Notifications.HistoryLimit == 0 {
		cfg.Notifications.HistoryLimit = 100
	}
	if cfg.Notifications.Email.Transport == "" {
		cfg.Notifications.Email.Transport = EmailTransportSES
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Dialog.AmountMin < 0 {
		return fmt.Errorf("dialog.amount_min must not be negative")
	}
	if cfg.Dialog.AmountMax < cfg.Dialog.AmountMin {
		return fmt.Errorf("dialog.amount_max (%d) must be >= dialog.amount_min (%d)",
			cfg.Dialog.AmountMax, cfg.Dialog.AmountMin)
	}
	if cfg.Notifications.Timeout < 0 {
		return fmt.Errorf("notifications.timeout must not be negative")
	}
	if cfg.Notifications.HistoryLimit < 0 {
		return fmt.Errorf("notifications.history_limit must not be negative")
	}

	switch cfg.Notifications.Email.Transport {
	case EmailTransportSES, EmailTransportSNS:
	default:
		return fmt.Errorf("notifications.email.transport must be %q or %q, got %q",
			EmailTransportSES, EmailTransportSNS, cfg.Notifications.Email.Transport)
	}

	return nil
}

// GetDuration converts a millisecond setting to a time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
