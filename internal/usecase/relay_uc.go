package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"telegram-chat-bridge/internal/domain"
	"telegram-chat-bridge/internal/domain/model"
	"telegram-chat-bridge/internal/domain/ports/adapter"
	"telegram-chat-bridge/internal/domain/ports/repository"
	"telegram-chat-bridge/internal/infra/logging"
	"telegram-chat-bridge/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ RelayUseCase = (*relayUC)(nil)

// RelayUseCase coordinates the message log and the outbound gateway.
type RelayUseCase interface {
	// Send appends the text to the log, then makes exactly one delivery
	// attempt to the bound chat. The log entry survives delivery failure;
	// its delivery status records the outcome. Unbound users get
	// ErrChatNotBound and the gateway is never called.
	Send(ctx context.Context, userID, text string) (*model.Message, error)

	// ReceiveInbound logs text arriving from an already-paired chat.
	ReceiveInbound(ctx context.Context, chatID int64, text string) (*model.Message, error)

	// History returns the user's full log in creation order.
	History(ctx context.Context, userID string) ([]*model.Message, error)
}

type relayUC struct {
	messages repository.MessageRepository
	users    repository.UserRepository
	pairing  PairingUseCase
	gateway  adapter.RelayGateway
	tr       Translator
	timeout  time.Duration
	log      *zerolog.Logger
}

func NewRelayUseCase(
	messages repository.MessageRepository,
	users repository.UserRepository,
	pairing PairingUseCase,
	gateway adapter.RelayGateway,
	tr Translator,
	timeout time.Duration,
	logger *zerolog.Logger,
) *relayUC {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &relayUC{
		messages: messages,
		users:    users,
		pairing:  pairing,
		gateway:  gateway,
		tr:       tr,
		timeout:  timeout,
		log:      logger,
	}
}

func (r *relayUC) Send(ctx context.Context, userID, text string) (*model.Message, error) {
	defer logging.TraceDuration(r.log, "RelayUC.Send")()

	msg, err := model.NewMessage(userID, model.DirectionOut, text, model.DeliveryPending)
	if err != nil {
		return nil, err
	}
	// Persist-first: history must contain the text whatever happens to delivery.
	if err := r.messages.Append(ctx, repository.NoTX, msg); err != nil {
		return nil, err
	}
	metrics.IncMessageStored(string(model.DirectionOut))

	binding, err := r.pairing.Binding(ctx, userID)
	if err != nil || !binding.Bound() {
		r.markStatus(ctx, msg, model.DeliveryFailed)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return msg, err
		}
		return msg, domain.ErrChatNotBound
	}

	user, err := r.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		r.markStatus(ctx, msg, model.DeliveryFailed)
		return msg, err
	}
	formatted := r.tr.T("relay_prefix", user.Username, text)

	// Single attempt, bounded by its own deadline; no store state is held
	// across this call.
	sendCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	sendErr := r.gateway.SendText(sendCtx, *binding.ChatID, formatted)
	elapsed := time.Since(start)

	if sendErr != nil {
		metrics.ObserveDelivery("failed", elapsed)
		r.markStatus(ctx, msg, model.DeliveryFailed)
		logging.With(ctx, r.log).Warn().Err(sendErr).Str("user_id", userID).Int64("chat_id", *binding.ChatID).Msg("delivery failed")
		return msg, fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, sendErr)
	}

	metrics.ObserveDelivery("sent", elapsed)
	r.markStatus(ctx, msg, model.DeliverySent)
	return msg, nil
}

func (r *relayUC) ReceiveInbound(ctx context.Context, chatID int64, text string) (*model.Message, error) {
	defer logging.TraceDuration(r.log, "RelayUC.ReceiveInbound")()

	userID, err := r.pairing.UserByChat(ctx, chatID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrChatNotBound
		}
		return nil, err
	}

	msg, err := model.NewMessage(userID, model.DirectionIn, text, model.DeliveryReceived)
	if err != nil {
		return nil, err
	}
	if err := r.messages.Append(ctx, repository.NoTX, msg); err != nil {
		return nil, err
	}
	metrics.IncMessageStored(string(model.DirectionIn))
	return msg, nil
}

func (r *relayUC) History(ctx context.Context, userID string) ([]*model.Message, error) {
	defer logging.TraceDuration(r.log, "RelayUC.History")()
	return r.messages.ListByUser(ctx, repository.NoTX, userID)
}

func (r *relayUC) markStatus(ctx context.Context, msg *model.Message, status model.DeliveryStatus) {
	msg.Status = status
	if err := r.messages.UpdateStatus(ctx, repository.NoTX, msg.ID, status); err != nil {
		r.log.Error().Err(err).Str("message_id", msg.ID).Msg("failed to update delivery status")
	}
}
