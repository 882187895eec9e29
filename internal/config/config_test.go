package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Validate(Default()) = %v", err)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gahshomar.yaml")
	yml := `port: "9090"
calendar: gregorian
locale: en
first_weekday: 1
rate_limit:
  requests: 5
  window: 30s
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Chdir(dir)
	t.Setenv("GAHSHOMAR_PORT", "7070")
	t.Setenv("GAHSHOMAR_LOG_FORMAT", "json")
	t.Setenv("GAHSHOMAR_BACKUP_PASSPHRASE", "hunter2")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "7070" {
		t.Errorf("port = %q, env should win over the file", cfg.Port)
	}
	if cfg.Calendar != "gregorian" || cfg.FirstWeekday != 1 || cfg.Locale != "en" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.RateLimit.Requests != 5 || cfg.RateLimit.Window != 30*time.Second {
		t.Errorf("rate limit = %+v", cfg.RateLimit)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("log format = %q", cfg.LogFormat)
	}
	if cfg.Backup.Passphrase != "hunter2" {
		t.Errorf("backup passphrase = %q", cfg.Backup.Passphrase)
	}
	if cfg.DBPath != "gahshomar.db" {
		t.Errorf("db path = %q, want default", cfg.DBPath)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(".env", []byte("GAHSHOMAR_DB_PATH=from-dotenv.db\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	// godotenv never overrides variables that are already set; register a
	// cleanup so the loaded value does not leak into other tests.
	t.Setenv("GAHSHOMAR_DB_PATH", "")
	os.Unsetenv("GAHSHOMAR_DB_PATH")

	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "from-dotenv.db" {
		t.Errorf("db path = %q", cfg.DBPath)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown calendar", func(c *Config) { c.Calendar = "hijri" }},
		{"weekday 7", func(c *Config) { c.FirstWeekday = 7 }},
		{"short labels", func(c *Config) { c.WeekdayLabels = []string{"a", "b"} }},
		{"unknown locale", func(c *Config) { c.Locale = "de" }},
		{"zero rate", func(c *Config) { c.RateLimit.Requests = 0 }},
		{"s3 without keys", func(c *Config) { c.Backup.S3.Bucket = "calendar-backups" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestApplyEnvBadNumber(t *testing.T) {
	cfg := Default()
	env := map[string]string{"GAHSHOMAR_FIRST_WEEKDAY": "sat"}
	err := cfg.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if err == nil {
		t.Error("expected parse error")
	}
}

func TestConverter(t *testing.T) {
	cfg := Default()
	cfg.WeekdayLabels = []string{"ش", "ی", "د", "س", "چ", "پ", "ج"}
	conv, err := cfg.Converter()
	if err != nil {
		t.Fatalf("Converter: %v", err)
	}
	if conv.FirstWeekday != time.Saturday {
		t.Errorf("first weekday = %v", conv.FirstWeekday)
	}
	if got := conv.WeekdayLabel(time.Friday); got != "ج" {
		t.Errorf("Friday label = %q", got)
	}
}
