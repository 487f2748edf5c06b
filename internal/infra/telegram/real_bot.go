package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-chat-bridge/internal/config"
	"telegram-chat-bridge/internal/domain"
	"telegram-chat-bridge/internal/domain/ports/adapter"
	"telegram-chat-bridge/internal/infra/logging"
	"telegram-chat-bridge/internal/infra/metrics"
	"telegram-chat-bridge/internal/infra/redis"
	"telegram-chat-bridge/internal/usecase"
)

var _ adapter.RelayGateway = (*RealBotAdapter)(nil)

// RealBotAdapter is both halves of the Telegram integration: the RelayGateway
// used for outbound pushes and the long-polling inbound listener. Inbound
// text from an unpaired chat is treated as a pairing-token attempt; text from
// a paired chat is forwarded into the message log.
type RealBotAdapter struct {
	bot       *tgbotapi.BotAPI
	cfg       *config.BotConfig
	pairing   usecase.PairingUseCase
	relay     usecase.RelayUseCase
	limiter   *redis.RateLimiter
	tr        usecase.Translator
	bindLimit int
	log       *zerolog.Logger

	// updateWorkers is how many goroutines will concurrently process updates.
	updateWorkers int
	// cancelPolling cancels polling when called
	cancelPolling context.CancelFunc
}

func NewRealBotAdapter(
	cfg *config.BotConfig,
	pairing usecase.PairingUseCase,
	relay usecase.RelayUseCase,
	limiter *redis.RateLimiter,
	tr usecase.Translator,
	bindLimit int,
	logger *zerolog.Logger,
) (*RealBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if pairing == nil {
		return nil, errors.New("pairing use case is required")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	return &RealBotAdapter{
		bot:           bot,
		cfg:           cfg,
		pairing:       pairing,
		relay:         relay,
		limiter:       limiter,
		tr:            tr,
		bindLimit:     bindLimit,
		log:           logger,
		updateWorkers: workers,
	}, nil
}

// SetRelay injects the relay use case after construction. The adapter is the
// relay's gateway, so the two are wired in two steps; polling must not start
// before this is set.
func (r *RealBotAdapter) SetRelay(relay usecase.RelayUseCase) { r.relay = relay }

// StartPolling begins polling Telegram for updates concurrently.
// It runs until ctx is canceled.
func (r *RealBotAdapter) StartPolling(ctx context.Context) error {
	if r.relay == nil {
		return errors.New("relay use case is not set")
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for {
				select {
				case update, ok := <-updateChan:
					if !ok {
						return
					}
					if err := r.handleUpdate(ctx, update); err != nil {
						r.log.Error().Err(err).Int("worker", workerID).Msg("error handling update")
					}
				case <-ctx.Done():
					return
				}
			}
		}(i + 1)
	}

	// Dispatcher goroutine: feed updates into updateChan
	go func() {
		defer close(updateChan)
		for {
			select {
			case update := <-updates:
				select {
				case updateChan <- update:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	<-ctx.Done()
	r.bot.StopReceivingUpdates()
	wg.Wait()
	return nil
}

// StopPolling stops the polling loop gracefully.
func (r *RealBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

// SendText implements adapter.RelayGateway with a single delivery attempt.
func (r *RealBotAdapter) SendText(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := r.bot.Send(msg)
	return err
}

func (r *RealBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.Message == nil || update.Message.Chat == nil {
		return nil
	}
	chatID := update.Message.Chat.ID
	ctx = logging.WithChatID(ctx, chatID)
	reply := r.handleIncoming(ctx, chatID, update.Message.Text)
	if reply == "" {
		return nil
	}
	return r.SendText(ctx, chatID, reply)
}

// handleIncoming decides the reply for one inbound text. Split out from the
// tgbotapi types so the listener contract stays unit-testable.
func (r *RealBotAdapter) handleIncoming(ctx context.Context, chatID int64, text string) string {
	log := logging.With(ctx, r.log)

	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if text == "/start" {
		return r.tr.T("start_help")
	}

	// Paired chat: forward text into the owner's message log.
	if _, err := r.pairing.UserByChat(ctx, chatID); err == nil {
		if _, err := r.relay.ReceiveInbound(ctx, chatID, text); err != nil {
			log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to store inbound message")
			return r.tr.T("internal_error")
		}
		return r.tr.T("inbound_ack")
	} else if !errors.Is(err, domain.ErrNotFound) {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("binding lookup failed")
		return r.tr.T("internal_error")
	}

	// Unpaired chat: the text is a pairing-token attempt. Rate-limit so the
	// token space cannot be probed from the chat side.
	if r.limiter != nil {
		ok, err := r.limiter.Allow(ctx, redis.BindAttemptKey(chatID), r.bindLimit, time.Minute)
		if err != nil {
			log.Warn().Err(err).Msg("bind rate limiter unavailable")
		} else if !ok {
			metrics.IncBindAttempt("rate_limited")
			return r.tr.T("bind_rate_limited")
		}
	}

	err := r.pairing.Bind(ctx, text, chatID)
	switch {
	case err == nil:
		return r.tr.T("bind_success")
	case errors.Is(err, domain.ErrInvalidTokenFormat):
		return r.tr.T("bind_invalid_format")
	case errors.Is(err, domain.ErrTokenNotFound):
		return r.tr.T("bind_token_not_found")
	case errors.Is(err, domain.ErrChatTaken):
		return r.tr.T("bind_chat_taken")
	default:
		log.Error().Err(err).Int64("chat_id", chatID).Msg("bind failed")
		return r.tr.T("internal_error")
	}
}
