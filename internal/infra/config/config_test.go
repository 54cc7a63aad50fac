package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/notifier")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 30*time.Minute, cfg.LookaheadWindow)
	assert.Equal(t, 10*time.Minute, cfg.ImminentThreshold)
	assert.Equal(t, 5*time.Minute, cfg.CycleInterval)
	assert.True(t, cfg.RunOnStart)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 500, cfg.BatchSize)
	assert.Equal(t, time.Hour, cfg.OrphanGracePeriod)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, TemplateSourceDatabase, cfg.TemplateSource)
	assert.Empty(t, cfg.TelegramToken)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "SQLite")
	t.Setenv("DATABASE_URL", "notifier.db")
	t.Setenv("LOOKAHEAD_WINDOW", "1h")
	t.Setenv("IMMINENT_THRESHOLD", "15m")
	t.Setenv("CYCLE_CRON_SPEC", "*/2 * * * *")
	t.Setenv("RUN_ON_START", "false")
	t.Setenv("WORKERS", "8")
	t.Setenv("SINK_RETRIES", "0")
	t.Setenv("TIMEZONE", "Europe/Prague")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("ADMIN_TELEGRAM_ID", "100500")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, time.Hour, cfg.LookaheadWindow)
	assert.Equal(t, 15*time.Minute, cfg.ImminentThreshold)
	assert.Equal(t, "*/2 * * * *", cfg.CycleCronSpec)
	assert.False(t, cfg.RunOnStart)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 0, cfg.SinkRetries)
	assert.Equal(t, "Europe/Prague", cfg.Location.String())
	assert.Equal(t, int64(100500), cfg.AdminTelegramID)

	esc := cfg.Escalation()
	assert.Equal(t, time.Hour, esc.LookaheadWindow)
	assert.Equal(t, 8, esc.Workers)
	assert.Equal(t, cfg.Location, esc.Location)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]struct {
		env     map[string]string
		wantErr string
	}{
		"missing database url": {
			env:     map[string]string{},
			wantErr: "DATABASE_URL is not set",
		},
		"unknown driver": {
			env:     map[string]string{"DATABASE_URL": "x", "DATABASE_DRIVER": "mysql"},
			wantErr: "DATABASE_DRIVER must be postgres or sqlite",
		},
		"threshold not below lookahead": {
			env:     map[string]string{"DATABASE_URL": "x", "IMMINENT_THRESHOLD": "30m"},
			wantErr: "must be shorter than lookahead window",
		},
		"token without admin": {
			env:     map[string]string{"DATABASE_URL": "x", "TELEGRAM_TOKEN": "123:abc"},
			wantErr: "ADMIN_TELEGRAM_ID is required",
		},
		"non numeric admin": {
			env:     map[string]string{"DATABASE_URL": "x", "ADMIN_TELEGRAM_ID": "admin"},
			wantErr: "invalid ADMIN_TELEGRAM_ID",
		},
		"unknown timezone": {
			env:     map[string]string{"DATABASE_URL": "x", "TIMEZONE": "Mars/Olympus"},
			wantErr: "invalid TIMEZONE",
		},
		"malformed sink retries": {
			env:     map[string]string{"DATABASE_URL": "x", "SINK_RETRIES": "two"},
			wantErr: "invalid SINK_RETRIES",
		},
		"malformed batch size": {
			env:     map[string]string{"DATABASE_URL": "x", "BATCH_SIZE": "5OO"},
			wantErr: "invalid BATCH_SIZE",
		},
		"malformed sweep interval": {
			env:     map[string]string{"DATABASE_URL": "x", "ORPHAN_SWEEP_INTERVAL": "half an hour"},
			wantErr: "invalid ORPHAN_SWEEP_INTERVAL",
		},
		"malformed run on start": {
			env:     map[string]string{"DATABASE_URL": "x", "RUN_ON_START": "sometimes"},
			wantErr: "invalid RUN_ON_START",
		},
		"unknown template source": {
			env:     map[string]string{"DATABASE_URL": "x", "TEMPLATE_SOURCE": "http"},
			wantErr: "TEMPLATE_SOURCE must be database or file",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
