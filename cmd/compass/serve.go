package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"career-compass/internal/api/supabase"
	"career-compass/internal/bot"
	botmw "career-compass/internal/bot/middleware"
	"career-compass/internal/bot/scheduler"
	"career-compass/internal/config"
	"career-compass/internal/logger"
	"career-compass/internal/metrics"
	"career-compass/internal/normalize"
	"career-compass/internal/notify"
	"career-compass/internal/server"
	"career-compass/internal/storage/memory"
	"career-compass/internal/storage/postgres"
	"career-compass/internal/storage/redis"
	"career-compass/internal/tracker"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, metrics endpoint, Telegram bot and reminders",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "Apply pending Postgres migrations on startup")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer log.Sync()

	log.Info("starting career compass",
		zap.String("store", cfg.StoreBackend),
		zap.String("http_addr", cfg.HTTPAddr),
		zap.Bool("bot", cfg.BotEnabled()),
		zap.Bool("redis", cfg.RedisEnabled()),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore.Close()

	var cache *redis.Cache
	if cfg.RedisEnabled() {
		cache, err = redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL, log)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer cache.Close()
	}

	notes := notify.NewQueue()
	defer notes.Close()

	opts := []tracker.Option{tracker.WithNotifier(notes)}
	if cache != nil {
		opts = append(opts, tracker.WithCache(cache))
	}
	tr := tracker.New(store, cfg.StoreBackend, normalize.New(), log, opts...)

	var serverOpts []server.Option
	if cache != nil {
		serverOpts = append(serverOpts, server.WithRateLimit(cache, cfg.RateLimitPerMinute))
	}
	api := server.New(tr, notes, log, serverOpts...).HTTPServer(cfg.HTTPAddr)

	var tgBot *bot.Bot
	if cfg.BotEnabled() {
		var limiter botmw.Limiter
		if cache != nil {
			limiter = cache
		}

		tgBot, err = bot.New(cfg, tr, limiter, log)
		if err != nil {
			return err
		}
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		return listen(gCtx, api)
	})

	if cfg.MetricsAddr != "" {
		r := chi.NewRouter()
		r.Handle("/metrics", metrics.Handler())
		ms := &http.Server{Addr: cfg.MetricsAddr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			log.Info("metrics server listening", zap.String("addr", cfg.MetricsAddr))
			return listen(gCtx, ms)
		})
	}

	if tgBot != nil {
		g.Go(func() error {
			return tgBot.Start(gCtx)
		})

		if cfg.ReminderEnabled() {
			reminder := scheduler.New(tgBot.Telebot(), tr, cfg.TelegramChatIDs, cfg.ReminderInterval, cfg.ReminderWindowDays, log)
			g.Go(func() error {
				reminder.Start(gCtx)
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		log.Error("shutting down with error", zap.Error(err))
		return err
	}

	log.Info("career compass stopped")
	return nil
}

// listen serves until ctx is done, then shuts the server down gracefully.
func listen(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(cfg *config.Config, log *zap.Logger) (tracker.Store, io.Closer, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		if serveMigrate {
			if err := postgres.Migrate("up", cfg.PostgresDSN); err != nil {
				return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Info("migrations applied")
		}
		db, err := postgres.New(cfg.PostgresDSN, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return db, db, nil

	case config.BackendSupabase:
		client := supabase.New(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseTimeout, log)
		return client, nopCloser{}, nil

	case config.BackendMemory:
		log.Warn("using in-memory store; data is lost on restart")
		return memory.New(log), nopCloser{}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
