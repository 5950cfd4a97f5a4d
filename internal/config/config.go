package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

const (
	BackendPostgres = "postgres"
	BackendSupabase = "supabase"
	BackendMemory   = "memory"
)

type Config struct {
	// HTTP
	HTTPAddr    string `validate:"required"`
	MetricsAddr string

	// Store
	StoreBackend    string `validate:"oneof=postgres supabase memory"`
	PostgresDSN     string
	SupabaseURL     string `validate:"omitempty,url"`
	SupabaseKey     string
	SupabaseTimeout time.Duration `validate:"gt=0"`

	// Redis is optional; empty address disables caching and rate limiting
	RedisAddr     string
	RedisPassword string
	RedisDB       int           `validate:"gte=0"`
	CacheTTL      time.Duration `validate:"gt=0"`

	RateLimitPerMinute int `validate:"gt=0"`

	// Telegram
	TelegramToken   string
	TelegramChatIDs []int64

	// Reminders
	ReminderInterval   time.Duration
	ReminderWindowDays int `validate:"gte=0,lte=90"`

	// Logging
	LogLevel string `validate:"oneof=debug info warn error"`
}

func Load() (*Config, error) {
	cfg := &Config{
		// Defaults
		HTTPAddr:           ":8080",
		MetricsAddr:        ":9091",
		StoreBackend:       BackendPostgres,
		SupabaseTimeout:    15 * time.Second,
		CacheTTL:           30 * time.Second,
		RateLimitPerMinute: 120,
		ReminderInterval:   24 * time.Hour,
		ReminderWindowDays: 7,
		LogLevel:           "info",
	}

	if addr := os.Getenv("HTTP_ADDR"); addr != "" {
		cfg.HTTPAddr = addr
	}

	if addr, ok := os.LookupEnv("METRICS_ADDR"); ok {
		cfg.MetricsAddr = addr
	}

	if backend := os.Getenv("STORE_BACKEND"); backend != "" {
		cfg.StoreBackend = strings.ToLower(backend)
	}

	cfg.PostgresDSN = os.Getenv("POSTGRES_DSN")
	cfg.SupabaseURL = strings.TrimSuffix(os.Getenv("SUPABASE_URL"), "/")
	cfg.SupabaseKey = os.Getenv("SUPABASE_SERVICE_ROLE_KEY")

	if timeout := os.Getenv("SUPABASE_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid SUPABASE_TIMEOUT: %w", err)
		}
		cfg.SupabaseTimeout = d
	}

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		db, err := strconv.Atoi(redisDB)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
		}
		cfg.RedisDB = db
	}

	if ttl := os.Getenv("CACHE_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
		}
		cfg.CacheTTL = d
	}

	if limit := os.Getenv("RATE_LIMIT_PER_MINUTE"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
		}
		cfg.RateLimitPerMinute = n
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")

	if ids := os.Getenv("TELEGRAM_CHAT_IDS"); ids != "" {
		parsed, err := parseChatIDs(ids)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_IDS: %w", err)
		}
		cfg.TelegramChatIDs = parsed
	}

	if interval := os.Getenv("REMINDER_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return nil, fmt.Errorf("invalid REMINDER_INTERVAL: %w", err)
		}
		cfg.ReminderInterval = d
	}

	if days := os.Getenv("REMINDER_WINDOW_DAYS"); days != "" {
		n, err := strconv.Atoi(days)
		if err != nil {
			return nil, fmt.Errorf("invalid REMINDER_WINDOW_DAYS: %w", err)
		}
		cfg.ReminderWindowDays = n
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = strings.ToLower(logLevel)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	switch c.StoreBackend {
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for the postgres backend")
		}
	case BackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required for the supabase backend")
		}
	}

	if c.ReminderEnabled() && c.ReminderInterval < time.Minute {
		return fmt.Errorf("reminder interval too small: %v", c.ReminderInterval)
	}

	return nil
}

func (c *Config) BotEnabled() bool {
	return c.TelegramToken != ""
}

// ReminderEnabled reports whether due digests should be pushed to chats.
func (c *Config) ReminderEnabled() bool {
	return c.BotEnabled() && len(c.TelegramChatIDs) > 0 && c.ReminderInterval > 0
}

func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func parseChatIDs(raw string) ([]int64, error) {
	parts := lo.Compact(lo.Map(strings.Split(raw, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))

	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("chat id %q: %w", p, err)
		}
		ids = append(ids, id)
	}

	return lo.Uniq(ids), nil
}
