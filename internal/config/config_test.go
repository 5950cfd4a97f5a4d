package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://localhost/compass")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, ":9091", cfg.MetricsAddr)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	assert.Equal(t, 7, cfg.ReminderWindowDays)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.RedisEnabled())
	assert.False(t, cfg.BotEnabled())
	assert.False(t, cfg.ReminderEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Supabase")
	t.Setenv("SUPABASE_URL", "https://project.supabase.co/")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "secret")
	t.Setenv("SUPABASE_TIMEOUT", "5s")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("CACHE_TTL", "1m")
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_IDS", " 42, -1001, ,42")
	t.Setenv("REMINDER_INTERVAL", "12h")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, BackendSupabase, cfg.StoreBackend)
	assert.Equal(t, "https://project.supabase.co", cfg.SupabaseURL)
	assert.Equal(t, 5*time.Second, cfg.SupabaseTimeout)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, []int64{42, -1001}, cfg.TelegramChatIDs)
	assert.Equal(t, 12*time.Hour, cfg.ReminderInterval)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.RedisEnabled())
	assert.True(t, cfg.ReminderEnabled())
}

func TestLoad_InvalidValues(t *testing.T) {
	for key, value := range map[string]string{
		"SUPABASE_TIMEOUT":      "soon",
		"REDIS_DB":              "one",
		"CACHE_TTL":             "-",
		"RATE_LIMIT_PER_MINUTE": "many",
		"TELEGRAM_CHAT_IDS":     "42,abc",
		"REMINDER_INTERVAL":     "daily",
		"REMINDER_WINDOW_DAYS":  "week",
	} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "postgres without dsn",
			env:  map[string]string{"STORE_BACKEND": "postgres"},
			want: "POSTGRES_DSN",
		},
		{
			name: "supabase without key",
			env:  map[string]string{"STORE_BACKEND": "supabase", "SUPABASE_URL": "https://x.supabase.co"},
			want: "SUPABASE_SERVICE_ROLE_KEY",
		},
		{
			name: "unknown backend",
			env:  map[string]string{"STORE_BACKEND": "mongo"},
			want: "StoreBackend",
		},
		{
			name: "bad log level",
			env:  map[string]string{"STORE_BACKEND": "memory", "LOG_LEVEL": "verbose"},
			want: "LogLevel",
		},
		{
			name: "reminder too frequent",
			env: map[string]string{
				"STORE_BACKEND":     "memory",
				"TELEGRAM_TOKEN":    "token",
				"TELEGRAM_CHAT_IDS": "1",
				"REMINDER_INTERVAL": "10s",
			},
			want: "reminder interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load()
			require.NoError(t, err)

			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_Memory(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}
