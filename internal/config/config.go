package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // schedule.location must resolve on hosts without zoneinfo

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingCredentials is returned when the Telegram bot token or chat ID is absent
var ErrMissingCredentials = errors.New("TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID is not set")

// DefaultPath is the config file location used when none is given
const DefaultPath = "configs/config.yaml"

// Config represents the complete application configuration
type Config struct {
	Calendar CalendarConfig `mapstructure:"calendar"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// CalendarConfig holds the economic calendar source configuration
type CalendarConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	TimeZoneID int           `mapstructure:"time_zone_id"` // source-side zone code, 55 = Europe/Istanbul
	TimeFilter string        `mapstructure:"time_filter"`
	PageSize   int           `mapstructure:"page_size"`
	MaxPages   int           `mapstructure:"max_pages"`
	Importance []int         `mapstructure:"importance"`
	Countries  []int         `mapstructure:"countries"`
	Timeout    time.Duration `mapstructure:"timeout"`
	UserAgent  string        `mapstructure:"user_agent"`
	Proxy      string        `mapstructure:"proxy"`
}

// ScheduleConfig holds quiet hours and the alert look-ahead window.
//
// AlertWindow must equal InvocationPeriod: the external scheduler re-invokes the
// alerts mode every InvocationPeriod, so each event falls in exactly one window.
type ScheduleConfig struct {
	Location         string        `mapstructure:"location"`
	ZoneLabel        string        `mapstructure:"zone_label"`
	QuietStart       string        `mapstructure:"quiet_start"`
	QuietEnd         string        `mapstructure:"quiet_end"`
	Force            bool          `mapstructure:"force"`
	AlertLead        time.Duration `mapstructure:"alert_lead"`
	AlertWindow      time.Duration `mapstructure:"alert_window"`
	InvocationPeriod time.Duration `mapstructure:"invocation_period"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	APIEndpoint string        `mapstructure:"api_endpoint"`
	BotToken    string        `mapstructure:"bot_token"`
	ChatID      string        `mapstructure:"chat_id"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// StorageConfig holds the optional alert ledger configuration.
// An empty LedgerPath disables the ledger.
type StorageConfig struct {
	LedgerPath string        `mapstructure:"ledger_path"`
	Retention  time.Duration `mapstructure:"retention"`
}

// MetricsConfig holds Pushgateway configuration; an empty URL disables pushing
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	Job            string `mapstructure:"job"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
// A missing file at DefaultPath is not an error; the defaults and environment apply.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix("CALENDAR_BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	if path == "" {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if path != DefaultPath {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if force, ok := os.LookupEnv("FORCE_RUN"); ok {
		cfg.Schedule.Force = parseForce(force)
	}

	return &cfg, nil
}

// bindLegacyEnv maps the unprefixed variable names the scheduled workflow exports
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("telegram.bot_token", "CALENDAR_BOT_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("telegram.chat_id", "CALENDAR_BOT_TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID")
}

// parseForce accepts the same spellings as the workflow input: 1, true, yes
func parseForce(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Calendar defaults
	v.SetDefault("calendar.base_url", "https://www.investing.com")
	v.SetDefault("calendar.time_zone_id", 55)
	v.SetDefault("calendar.time_filter", "timeRemain")
	v.SetDefault("calendar.page_size", 50)
	v.SetDefault("calendar.max_pages", 60)
	v.SetDefault("calendar.importance", []int{2, 3})
	v.SetDefault("calendar.countries", []int{})
	v.SetDefault("calendar.timeout", "30s")
	v.SetDefault("calendar.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")

	// Schedule defaults
	v.SetDefault("schedule.location", "Europe/Istanbul")
	v.SetDefault("schedule.zone_label", "TR")
	v.SetDefault("schedule.quiet_start", "00:00")
	v.SetDefault("schedule.quiet_end", "09:00")
	v.SetDefault("schedule.force", false)
	v.SetDefault("schedule.alert_lead", "30m")
	v.SetDefault("schedule.alert_window", "5m")
	v.SetDefault("schedule.invocation_period", "5m")

	// Telegram defaults
	v.SetDefault("telegram.api_endpoint", "https://api.telegram.org/bot%s/%s")
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.timeout", "30s")

	// Storage defaults
	v.SetDefault("storage.ledger_path", "")
	v.SetDefault("storage.retention", "48h")

	// Metrics defaults
	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job", "calendarbot")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid.
// Credentials are checked separately by RequireCredentials.
func (c *Config) Validate() error {
	// Validate Calendar config
	if c.Calendar.BaseURL == "" {
		return fmt.Errorf("calendar.base_url is required")
	}
	if c.Calendar.PageSize < 1 {
		return fmt.Errorf("calendar.page_size must be at least 1")
	}
	if c.Calendar.MaxPages < 1 {
		return fmt.Errorf("calendar.max_pages must be at least 1")
	}
	if len(c.Calendar.Importance) == 0 {
		return fmt.Errorf("calendar.importance must contain at least one level")
	}
	for _, lvl := range c.Calendar.Importance {
		if lvl < 1 || lvl > 3 {
			return fmt.Errorf("calendar.importance levels must be between 1 and 3, got %d", lvl)
		}
	}
	if c.Calendar.Timeout <= 0 {
		return fmt.Errorf("calendar.timeout must be positive")
	}

	// Validate Schedule config
	if _, err := c.Schedule.LoadLocation(); err != nil {
		return fmt.Errorf("schedule.location: %w", err)
	}
	if _, err := ParseClock(c.Schedule.QuietStart); err != nil {
		return fmt.Errorf("schedule.quiet_start: %w", err)
	}
	if _, err := ParseClock(c.Schedule.QuietEnd); err != nil {
		return fmt.Errorf("schedule.quiet_end: %w", err)
	}
	if c.Schedule.AlertLead <= 0 {
		return fmt.Errorf("schedule.alert_lead must be positive")
	}
	if c.Schedule.AlertWindow <= 0 {
		return fmt.Errorf("schedule.alert_window must be positive")
	}
	if c.Schedule.AlertWindow != c.Schedule.InvocationPeriod {
		return fmt.Errorf("schedule.alert_window (%v) must equal schedule.invocation_period (%v)",
			c.Schedule.AlertWindow, c.Schedule.InvocationPeriod)
	}

	// Validate Telegram config
	if !strings.Contains(c.Telegram.APIEndpoint, "%s") {
		return fmt.Errorf("telegram.api_endpoint must contain %%s placeholders for token and method")
	}
	if c.Telegram.Timeout <= 0 {
		return fmt.Errorf("telegram.timeout must be positive")
	}

	// Validate Storage config
	if c.Storage.LedgerPath != "" && c.Storage.Retention < c.Schedule.AlertLead {
		return fmt.Errorf("storage.retention must be at least schedule.alert_lead")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// RequireCredentials returns ErrMissingCredentials unless both Telegram secrets are set
func (c *Config) RequireCredentials() error {
	if strings.TrimSpace(c.Telegram.BotToken) == "" || strings.TrimSpace(c.Telegram.ChatID) == "" {
		return ErrMissingCredentials
	}
	return nil
}

// LoadLocation resolves the target time zone
func (s ScheduleConfig) LoadLocation() (*time.Location, error) {
	return time.LoadLocation(s.Location)
}

// Clock is a time of day in minutes since midnight
type Clock int

// ParseClock parses an HH:MM string
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q, expected HH:MM", s)
	}
	return Clock(t.Hour()*60 + t.Minute()), nil
}

// ClockOf returns the time of day of t in t's location
func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

// QuietHours returns the parsed quiet-hours range. Validate must have succeeded.
func (s ScheduleConfig) QuietHours() (start, end Clock) {
	start, _ = ParseClock(s.QuietStart)
	end, _ = ParseClock(s.QuietEnd)
	return start, end
}
