package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"todo_alarm_notifier/internal/app"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Template sources.
const (
	TemplateSourceDatabase = "database"
	TemplateSourceFile     = "file"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseDriver string
	DatabaseURL    string
	LogLevel       string
	Environment    string

	LookaheadWindow     time.Duration
	ImminentThreshold   time.Duration
	CycleInterval       time.Duration
	CycleCronSpec       string // Overrides CycleInterval when set
	RunOnStart          bool
	StoreTimeout        time.Duration
	Workers             int
	BatchSize           int
	SinkRetries         int
	SinkRetryBackoff    time.Duration
	OrphanGracePeriod   time.Duration
	OrphanSweepInterval time.Duration
	Location            *time.Location

	TemplateSource string
	TemplateFile   string

	TelegramToken   string // Optional; enables operator alerts and the admin bot
	AdminTelegramID int64
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOOKAHEAD_WINDOW", app.DefaultLookaheadWindow)
	v.SetDefault("IMMINENT_THRESHOLD", app.DefaultImminentThreshold)
	v.SetDefault("CYCLE_INTERVAL", 5*time.Minute)
	v.SetDefault("CYCLE_CRON_SPEC", "")
	v.SetDefault("RUN_ON_START", true)
	v.SetDefault("STORE_TIMEOUT", app.DefaultStoreTimeout)
	v.SetDefault("WORKERS", app.DefaultWorkers)
	v.SetDefault("BATCH_SIZE", app.DefaultBatchSize)
	v.SetDefault("SINK_RETRIES", app.DefaultSinkRetries)
	v.SetDefault("SINK_RETRY_BACKOFF", app.DefaultSinkRetryBackoff)
	v.SetDefault("ORPHAN_GRACE_PERIOD", app.DefaultOrphanGracePeriod)
	v.SetDefault("ORPHAN_SWEEP_INTERVAL", 30*time.Minute)
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("TEMPLATE_SOURCE", TemplateSourceDatabase)
	v.SetDefault("TEMPLATE_FILE", "configs/templates.yaml")
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load does not override variables that are already set.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	r := &typedReader{v: v}
	cfg := &AppConfig{
		DatabaseDriver:      strings.ToLower(strings.TrimSpace(v.GetString("DATABASE_DRIVER"))),
		DatabaseURL:         strings.TrimSpace(v.GetString("DATABASE_URL")),
		LogLevel:            strings.ToLower(v.GetString("LOG_LEVEL")),
		Environment:         strings.ToLower(v.GetString("ENVIRONMENT")),
		LookaheadWindow:     r.duration("LOOKAHEAD_WINDOW"),
		ImminentThreshold:   r.duration("IMMINENT_THRESHOLD"),
		CycleInterval:       r.duration("CYCLE_INTERVAL"),
		CycleCronSpec:       strings.TrimSpace(v.GetString("CYCLE_CRON_SPEC")),
		RunOnStart:          r.bool("RUN_ON_START"),
		StoreTimeout:        r.duration("STORE_TIMEOUT"),
		Workers:             r.int("WORKERS"),
		BatchSize:           r.int("BATCH_SIZE"),
		SinkRetries:         r.int("SINK_RETRIES"),
		SinkRetryBackoff:    r.duration("SINK_RETRY_BACKOFF"),
		OrphanGracePeriod:   r.duration("ORPHAN_GRACE_PERIOD"),
		OrphanSweepInterval: r.duration("ORPHAN_SWEEP_INTERVAL"),
		TemplateSource:      strings.ToLower(strings.TrimSpace(v.GetString("TEMPLATE_SOURCE"))),
		TemplateFile:        v.GetString("TEMPLATE_FILE"),
		TelegramToken:       strings.TrimSpace(v.GetString("TELEGRAM_TOKEN")),
	}
	if err := errors.Join(r.errs...); err != nil {
		return nil, err
	}

	var err error
	cfg.Location, err = time.LoadLocation(v.GetString("TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	if adminID := strings.TrimSpace(v.GetString("ADMIN_TELEGRAM_ID")); adminID != "" {
		cfg.AdminTelegramID, err = strconv.ParseInt(adminID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// typedReader converts raw values and collects malformed ones instead of turning them into zero.
type typedReader struct {
	v    *viper.Viper
	errs []error
}

func (r *typedReader) int(key string) int {
	n, err := cast.ToIntE(strings.TrimSpace(cast.ToString(r.v.Get(key))))
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s: %w", key, err))
	}
	return n
}

func (r *typedReader) duration(key string) time.Duration {
	d, err := cast.ToDurationE(r.v.Get(key))
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s: %w", key, err))
	}
	return d
}

func (r *typedReader) bool(key string) bool {
	b, err := cast.ToBoolE(r.v.Get(key))
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s: %w", key, err))
	}
	return b
}

// Validate reports every invalid setting at once.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is not set"))
	}
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite, got %q", c.DatabaseDriver))
	}
	switch c.TemplateSource {
	case TemplateSourceDatabase:
	case TemplateSourceFile:
		if c.TemplateFile == "" {
			errs = append(errs, errors.New("TEMPLATE_FILE is required when TEMPLATE_SOURCE is file"))
		}
	default:
		errs = append(errs, fmt.Errorf("TEMPLATE_SOURCE must be database or file, got %q", c.TemplateSource))
	}
	if c.CycleCronSpec == "" && c.CycleInterval <= 0 {
		errs = append(errs, fmt.Errorf("CYCLE_INTERVAL must be positive, got %s", c.CycleInterval))
	}
	if c.OrphanSweepInterval < 0 {
		errs = append(errs, fmt.Errorf("ORPHAN_SWEEP_INTERVAL must not be negative, got %s", c.OrphanSweepInterval))
	}
	if c.TelegramToken != "" && c.AdminTelegramID == 0 {
		errs = append(errs, errors.New("ADMIN_TELEGRAM_ID is required when TELEGRAM_TOKEN is set"))
	}
	if err := c.Escalation().Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Escalation returns the engine settings.
func (c *AppConfig) Escalation() app.EscalationConfig {
	return app.EscalationConfig{
		LookaheadWindow:   c.LookaheadWindow,
		ImminentThreshold: c.ImminentThreshold,
		StoreTimeout:      c.StoreTimeout,
		Workers:           c.Workers,
		BatchSize:         c.BatchSize,
		SinkRetries:       c.SinkRetries,
		SinkRetryBackoff:  c.SinkRetryBackoff,
		OrphanGracePeriod: c.OrphanGracePeriod,
		Location:          c.Location,
	}
}
