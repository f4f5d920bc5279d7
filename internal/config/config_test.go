package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAndValidate(t *testing.T) {
	// Create temp config file
	content := `
calendar:
  base_url: "https://calendar.example.com"
  importance: [3]
  countries: [5, 72]
  timeout: 10s

schedule:
  location: "Europe/Istanbul"
  quiet_start: "22:00"
  quiet_end: "07:00"
  alert_lead: 15m
  alert_window: 10m
  invocation_period: 10m

telegram:
  bot_token: "test_token"
  chat_id: "12345"

logging:
  level: "debug"
  format: "text"
`
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	// Test Load
	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Verify values
	if cfg.Calendar.BaseURL != "https://calendar.example.com" {
		t.Errorf("Unexpected base URL: %s", cfg.Calendar.BaseURL)
	}
	if len(cfg.Calendar.Importance) != 1 || cfg.Calendar.Importance[0] != 3 {
		t.Errorf("Unexpected importance: %v", cfg.Calendar.Importance)
	}
	if len(cfg.Calendar.Countries) != 2 {
		t.Errorf("Expected 2 countries, got %d", len(cfg.Calendar.Countries))
	}
	if cfg.Calendar.Timeout != 10*time.Second {
		t.Errorf("Unexpected timeout: %v", cfg.Calendar.Timeout)
	}
	if cfg.Schedule.AlertLead != 15*time.Minute {
		t.Errorf("Unexpected alert lead: %v", cfg.Schedule.AlertLead)
	}
	// Defaults fill what the file omits
	if cfg.Calendar.PageSize != 50 || cfg.Calendar.MaxPages != 60 {
		t.Errorf("Unexpected paging defaults: %d x %d", cfg.Calendar.PageSize, cfg.Calendar.MaxPages)
	}
	if cfg.Calendar.TimeZoneID != 55 {
		t.Errorf("Unexpected time zone id: %d", cfg.Calendar.TimeZoneID)
	}

	// Test Validate
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if err := cfg.RequireCredentials(); err != nil {
		t.Fatalf("RequireCredentials failed: %v", err)
	}

	start, end := cfg.Schedule.QuietHours()
	if start != 22*60 || end != 7*60 {
		t.Errorf("Unexpected quiet hours: %d-%d", start, end)
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed on defaults: %v", err)
	}
	if cfg.Schedule.QuietStart != "00:00" || cfg.Schedule.QuietEnd != "09:00" {
		t.Errorf("Unexpected quiet hours: %s-%s", cfg.Schedule.QuietStart, cfg.Schedule.QuietEnd)
	}
	if cfg.Schedule.AlertLead != 30*time.Minute || cfg.Schedule.AlertWindow != 5*time.Minute {
		t.Errorf("Unexpected alert window: %v + %v", cfg.Schedule.AlertLead, cfg.Schedule.AlertWindow)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("TELEGRAM_CHAT_ID", "@econ_channel")
	t.Setenv("FORCE_RUN", "Yes")
	t.Setenv("CALENDAR_BOT_LOGGING_LEVEL", "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Telegram.BotToken != "env-token" {
		t.Errorf("Unexpected bot token: %q", cfg.Telegram.BotToken)
	}
	if cfg.Telegram.ChatID != "@econ_channel" {
		t.Errorf("Unexpected chat id: %q", cfg.Telegram.ChatID)
	}
	if !cfg.Schedule.Force {
		t.Error("expected FORCE_RUN=Yes to enable force")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Unexpected log level: %q", cfg.Logging.Level)
	}
}

func TestRequireCredentials(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		chatID  string
		wantErr bool
	}{
		{"both set", "token", "123", false},
		{"missing token", "", "123", true},
		{"missing chat", "token", "", true},
		{"blank token", "  ", "123", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Telegram: TelegramConfig{BotToken: tt.token, ChatID: tt.chatID}}
			err := cfg.RequireCredentials()
			if (err != nil) != tt.wantErr {
				t.Errorf("RequireCredentials() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		Calendar: CalendarConfig{
			BaseURL:    "https://example.com",
			PageSize:   50,
			MaxPages:   60,
			Importance: []int{2, 3},
			Timeout:    30 * time.Second,
		},
		Schedule: ScheduleConfig{
			Location:         "Europe/Istanbul",
			QuietStart:       "00:00",
			QuietEnd:         "09:00",
			AlertLead:        30 * time.Minute,
			AlertWindow:      5 * time.Minute,
			InvocationPeriod: 5 * time.Minute,
		},
		Telegram: TelegramConfig{
			APIEndpoint: "https://api.telegram.org/bot%s/%s",
			Timeout:     30 * time.Second,
		},
		Storage: StorageConfig{Retention: 48 * time.Hour},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing credentials do not fail validation", func(c *Config) { c.Telegram.BotToken = "" }, false},
		{"window differs from invocation period", func(c *Config) { c.Schedule.InvocationPeriod = 10 * time.Minute }, true},
		{"invalid importance level", func(c *Config) { c.Calendar.Importance = []int{2, 4} }, true},
		{"empty importance", func(c *Config) { c.Calendar.Importance = nil }, true},
		{"bad quiet start", func(c *Config) { c.Schedule.QuietStart = "9am" }, true},
		{"unknown location", func(c *Config) { c.Schedule.Location = "Mars/Olympus" }, true},
		{"endpoint without placeholders", func(c *Config) { c.Telegram.APIEndpoint = "https://api.telegram.org" }, true},
		{"zero page size", func(c *Config) { c.Calendar.PageSize = 0 }, true},
		{"short ledger retention", func(c *Config) {
			c.Storage.LedgerPath = "ledger.db"
			c.Storage.Retention = time.Minute
		}, true},
		{"invalid log format", func(c *Config) { c.Logging.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:00", 540, false},
		{"23:59", 1439, false},
		{" 07:30 ", 450, false},
		{"24:00", 0, true},
		{"7", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseClock(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q) = %d, expected %d", tt.in, got, tt.want)
		}
	}
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
