package telegram

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-chat-bridge/internal/domain/ports/adapter"
)

var _ adapter.RelayGateway = (*NoopBotAdapter)(nil)

// NoopBotAdapter implements adapter.RelayGateway for local/dev runs.
// It logs messages instead of calling the Telegram API.
type NoopBotAdapter struct {
	log *zerolog.Logger
}

func NewNoopBotAdapter(logger *zerolog.Logger) *NoopBotAdapter {
	return &NoopBotAdapter{log: logger}
}

// SendText logs the message and simulates a small delay.
func (b *NoopBotAdapter) SendText(ctx context.Context, chatID int64, text string) error {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}
	b.log.Info().Int64("chat_id", chatID).Str("text", text).Msg("noop-telegram send")
	return nil
}
