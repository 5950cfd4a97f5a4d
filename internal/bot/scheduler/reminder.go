package scheduler

import (
	"context"
	"fmt"
	"time"

	"career-compass/internal/bot/utils"
	"career-compass/internal/metrics"
	"career-compass/internal/models"

	"github.com/samber/lo"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Sender delivers messages; *tele.Bot satisfies it.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

type DueLister interface {
	Due(ctx context.Context, now time.Time, windowDays int) ([]models.DueItem, error)
}

type DueReminder struct {
	sender     Sender
	tracker    DueLister
	chatIDs    []int64
	interval   time.Duration
	windowDays int
	delay      time.Duration
	pause      time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

func New(
	sender Sender,
	tracker DueLister,
	chatIDs []int64,
	interval time.Duration,
	windowDays int,
	logger *zap.Logger,
) *DueReminder {
	return &DueReminder{
		sender:     sender,
		tracker:    tracker,
		chatIDs:    chatIDs,
		interval:   interval,
		windowDays: windowDays,
		delay:      30 * time.Second,
		pause:      500 * time.Millisecond,
		now:        time.Now,
		logger:     logger,
	}
}

// Start sends a digest after a short delay and then on every tick until ctx is done.
func (r *DueReminder) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("due reminder started",
		zap.Duration("interval", r.interval),
		zap.Int("window_days", r.windowDays),
		zap.Int("chats", len(r.chatIDs)),
	)

	select {
	case <-ctx.Done():
		r.logger.Info("due reminder stopped")
		return
	case <-time.After(r.delay):
		r.remind(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("due reminder stopped")
			return
		case <-ticker.C:
			r.remind(ctx)
		}
	}
}

func (r *DueReminder) remind(ctx context.Context) {
	dbCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	sent, err := r.SendDigest(dbCtx)
	if err != nil {
		r.logger.Error("failed to send due digest", zap.Error(err))
		return
	}

	r.logger.Info("due digest sent", zap.Int("chats", sent))
}

// SendDigest sends urgent applications to every chat and returns how many chats got it.
// Nothing is sent when no application is overdue, due today or due soon.
func (r *DueReminder) SendDigest(ctx context.Context) (int, error) {
	items, err := r.tracker.Due(ctx, r.now(), r.windowDays)
	if err != nil {
		return 0, fmt.Errorf("list due: %w", err)
	}

	urgent := lo.Filter(items, func(item models.DueItem, _ int) bool {
		return item.Proximity != models.ProximityNone
	})
	if len(urgent) == 0 {
		r.logger.Debug("nothing due")
		return 0, nil
	}

	message := utils.FormatDueDigest(urgent, r.windowDays)

	sent := 0
	for i, chatID := range r.chatIDs {
		if _, err := r.sender.Send(&tele.Chat{ID: chatID}, message, tele.ModeMarkdownV2); err != nil {
			r.logger.Error("failed to send due digest",
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
			continue
		}
		sent++
		metrics.RemindersSent.Inc()

		if i < len(r.chatIDs)-1 {
			time.Sleep(r.pause)
		}
	}

	if sent == 0 && len(r.chatIDs) > 0 {
		return 0, fmt.Errorf("send digest: all %d chats failed", len(r.chatIDs))
	}

	return sent, nil
}
