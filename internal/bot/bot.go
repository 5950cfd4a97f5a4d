package bot

import (
	"context"
	"fmt"
	"time"

	"career-compass/internal/bot/handlers"
	"career-compass/internal/bot/middleware"
	"career-compass/internal/config"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Bot represents Telegram bot
type Bot struct {
	bot     *tele.Bot
	tracker handlers.Tracker
	limiter middleware.Limiter
	config  *config.Config
	logger  *zap.Logger
}

// New creates the bot. limiter may be nil to disable rate limiting.
func New(
	cfg *config.Config,
	tracker handlers.Tracker,
	limiter middleware.Limiter,
	logger *zap.Logger,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.TelegramToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			logger.Error("telebot error", zap.Error(err))
		},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	bot := &Bot{
		bot:     b,
		tracker: tracker,
		limiter: limiter,
		config:  cfg,
		logger:  logger,
	}

	bot.setupMiddleware()

	bot.registerHandlers()

	logger.Info("bot initialized successfully", zap.String("username", b.Me.Username))

	return bot, nil
}

func (b *Bot) setupMiddleware() {
	b.bot.Use(middleware.Recovery(b.logger))

	b.bot.Use(middleware.Logger(b.logger))

	if b.limiter != nil {
		b.bot.Use(middleware.RateLimit(b.limiter, b.config.RateLimitPerMinute, b.logger))
	}
}

func (b *Bot) registerHandlers() {
	ctx := &handlers.Context{
		Tracker: b.tracker,
		Config:  b.config,
		Logger:  b.logger,
	}

	b.bot.Handle("/start", handlers.HandleStart(ctx))
	b.bot.Handle("/help", handlers.HandleHelp(ctx))
	b.bot.Handle("/due", handlers.HandleDue(ctx))
	b.bot.Handle("/list", handlers.HandleList(ctx))

	b.bot.Handle(tele.OnText, handlers.HandleText(ctx))

	b.bot.Handle(tele.OnCallback, handlers.HandleCallback(ctx))

	b.logger.Info("handlers registered")
}

// Start polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("starting bot...")

	go b.bot.Start()

	<-ctx.Done()

	b.logger.Info("stopping bot...")
	b.bot.Stop()
	b.logger.Info("bot stopped")

	return nil
}

// Telebot exposes the underlying client for the reminder scheduler.
func (b *Bot) Telebot() *tele.Bot {
	return b.bot
}
