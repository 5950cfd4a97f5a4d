package middleware

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const DefaultRequestsPerMinute = 50

// Limiter counts updates per Telegram user within the current window.
type Limiter interface {
	IncrementUserRateLimit(ctx context.Context, userID int64) (int64, error)
}

func RateLimit(limiter Limiter, maxPerMinute int, logger *zap.Logger) tele.MiddlewareFunc {
	if maxPerMinute <= 0 {
		maxPerMinute = DefaultRequestsPerMinute
	}
	limit := int64(maxPerMinute)

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil {
				return next(c)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			count, err := limiter.IncrementUserRateLimit(ctx, user.ID)
			if err != nil {
				logger.Error("failed to check rate limit",
					zap.Int64("user_id", user.ID),
					zap.Error(err),
				)
				return next(c)
			}

			if count > limit {
				logger.Warn("rate limit exceeded",
					zap.Int64("user_id", user.ID),
					zap.Int64("count", count),
				)

				msg := fmt.Sprintf("⚠️ Too many requests. Please wait a minute.\nLimit: %d requests per minute.", limit)
				if c.Callback() != nil {
					return c.Respond(&tele.CallbackResponse{Text: msg, ShowAlert: true})
				}
				return c.Reply(msg)
			}

			return next(c)
		}
	}
}
