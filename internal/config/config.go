package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dukerupert/gahshomar/internal/calendar"
)

const envPrefix = "GAHSHOMAR_"

// RateLimitConfig bounds mutating API requests per client IP.
type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// S3Config names an S3-compatible bucket for uploaded backups. Backups stay
// local when Bucket is empty.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

type BackupConfig struct {
	// Passphrase encrypts snapshots. Empty writes them in the clear.
	Passphrase string   `yaml:"passphrase"`
	S3         S3Config `yaml:"s3"`
}

type Config struct {
	Port      string `yaml:"port"`
	DBPath    string `yaml:"db_path"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Calendar is the display calendar: "jalali" or "gregorian".
	Calendar string `yaml:"calendar"`
	// FirstWeekday uses time.Weekday numbering: 0 is Sunday, 6 is Saturday.
	FirstWeekday int `yaml:"first_weekday"`
	// WeekdayLabels are column headers starting at FirstWeekday. Empty means
	// the locale's weekday names.
	WeekdayLabels []string `yaml:"weekday_labels"`
	// Locale selects digits and names: "fa" or "en".
	Locale string `yaml:"locale"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Backup    BackupConfig    `yaml:"backup"`
}

func Default() *Config {
	return &Config{
		Port:         "8080",
		DBPath:       "gahshomar.db",
		LogLevel:     "info",
		LogFormat:    "text",
		Calendar:     "jalali",
		FirstWeekday: int(time.Saturday),
		Locale:       "fa",
		RateLimit:    RateLimitConfig{Requests: 30, Window: time.Minute},
	}
}

// Load builds the configuration in layers: defaults, then a .env file in the
// working directory, then the YAML file named by path (or GAHSHOMAR_CONFIG),
// then GAHSHOMAR_* environment variables. A missing .env or YAML file is not
// an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path == "" {
		path = os.Getenv(envPrefix + "CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	str("PORT", &c.Port)
	str("DB_PATH", &c.DBPath)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	str("CALENDAR", &c.Calendar)
	str("LOCALE", &c.Locale)
	str("BACKUP_PASSPHRASE", &c.Backup.Passphrase)
	str("S3_ENDPOINT", &c.Backup.S3.Endpoint)
	str("S3_BUCKET", &c.Backup.S3.Bucket)
	str("S3_REGION", &c.Backup.S3.Region)
	str("S3_ACCESS_KEY", &c.Backup.S3.AccessKey)
	str("S3_SECRET_KEY", &c.Backup.S3.SecretKey)

	if v, ok := lookup(envPrefix + "FIRST_WEEKDAY"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sFIRST_WEEKDAY: %w", envPrefix, err)
		}
		c.FirstWeekday = n
	}
	if v, ok := lookup(envPrefix + "WEEKDAY_LABELS"); ok && v != "" {
		labels := strings.Split(v, ",")
		for i := range labels {
			labels[i] = strings.TrimSpace(labels[i])
		}
		c.WeekdayLabels = labels
	}
	if v, ok := lookup(envPrefix + "RATE_LIMIT"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sRATE_LIMIT: %w", envPrefix, err)
		}
		c.RateLimit.Requests = n
	}
	return nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if _, err := calendar.ParseSystem(c.Calendar); err != nil {
		errs = append(errs, fmt.Errorf("calendar: %w", err))
	}
	if c.FirstWeekday < 0 || c.FirstWeekday > 6 {
		errs = append(errs, fmt.Errorf("first_weekday %d out of range 0..6", c.FirstWeekday))
	}
	if n := len(c.WeekdayLabels); n != 0 && n != 7 {
		errs = append(errs, fmt.Errorf("weekday_labels has %d entries, want 7", n))
	}
	if _, err := calendar.LocaleByName(c.Locale); err != nil {
		errs = append(errs, fmt.Errorf("locale: %w", err))
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate_limit requests and window must be positive"))
	}
	if s3 := c.Backup.S3; s3.Bucket != "" && (s3.AccessKey == "" || s3.SecretKey == "") {
		errs = append(errs, errors.New("backup s3 bucket needs access_key and secret_key"))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	return errors.Join(errs...)
}

// Converter builds the display converter described by the configuration.
func (c *Config) Converter() (calendar.Converter, error) {
	sys, err := calendar.ParseSystem(c.Calendar)
	if err != nil {
		return calendar.Converter{}, err
	}
	loc, err := calendar.LocaleByName(c.Locale)
	if err != nil {
		return calendar.Converter{}, err
	}
	conv, err := calendar.NewConverter(sys, loc, time.Weekday(c.FirstWeekday))
	if err != nil {
		return calendar.Converter{}, err
	}
	if len(c.WeekdayLabels) == 7 {
		copy(conv.WeekdayLabels[:], c.WeekdayLabels)
	}
	return conv, nil
}
