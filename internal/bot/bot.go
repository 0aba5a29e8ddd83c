// Package bot runs the Telegram long-polling loop.
package bot

import (
	"context"
	"fmt"

	tg "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"telegram-movie-bot/internal/handler"
	"telegram-movie-bot/internal/logging"
)

// Run starts long polling with h as the default update handler and blocks
// until ctx is cancelled.
func Run(ctx context.Context, token string, h *handler.Handler) error {
	b, err := tg.New(token, tg.WithDefaultHandler(func(ctx context.Context, b *tg.Bot, upd *models.Update) {
		h.HandleUpdate(ctx, b, upd)
	}))
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}

	logging.Log.Info().Msg("movie bot started, polling for updates")
	b.Start(ctx)
	return nil
}
