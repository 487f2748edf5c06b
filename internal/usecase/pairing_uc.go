package usecase

import (
	"context"
	"errors"

	"telegram-chat-bridge/internal/domain"
	"telegram-chat-bridge/internal/domain/model"
	"telegram-chat-bridge/internal/domain/ports/repository"
	"telegram-chat-bridge/internal/infra/logging"
	"telegram-chat-bridge/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// BindingCache fronts the chat -> user resolution done on every inbound
// update. Satisfied by redis.BindingCache; a nil-safe noop is fine in tests.
type BindingCache interface {
	StoreBinding(ctx context.Context, chatID int64, userID string) error
	GetBinding(ctx context.Context, chatID int64) (string, error)
	DeleteBinding(ctx context.Context, chatID int64) error
}

// Compile-time check
var _ PairingUseCase = (*pairingUC)(nil)

// PairingUseCase is the binding registry: it owns the token <-> chat mapping.
type PairingUseCase interface {
	// Provision issues the user's single pairing token. Called from the
	// registration transaction; domain.ErrAlreadyExists here means a broken
	// deployment, not a user mistake.
	Provision(ctx context.Context, tx repository.Tx, userID string) (*model.PairingToken, error)

	// Bind attaches chatID to the token. Fails with ErrInvalidTokenFormat,
	// ErrTokenNotFound or ErrChatTaken; never mutates state on failure.
	Bind(ctx context.Context, rawToken string, chatID int64) error

	// Binding returns the user's token row; ChatID is nil while unbound.
	Binding(ctx context.Context, userID string) (*model.PairingToken, error)

	// TokenOf returns the user's token value for display on the web side.
	TokenOf(ctx context.Context, userID string) (string, error)

	// UserByChat resolves which account a chat is paired with, consulting the
	// cache before the store. domain.ErrNotFound means the chat is unpaired.
	UserByChat(ctx context.Context, chatID int64) (string, error)
}

type pairingUC struct {
	pairings repository.PairingRepository
	cache    BindingCache
	log      *zerolog.Logger
}

func NewPairingUseCase(pairings repository.PairingRepository, cache BindingCache, logger *zerolog.Logger) *pairingUC {
	return &pairingUC{
		pairings: pairings,
		cache:    cache,
		log:      logger,
	}
}

func (p *pairingUC) Provision(ctx context.Context, tx repository.Tx, userID string) (*model.PairingToken, error) {
	token, err := model.NewPairingToken(userID)
	if err != nil {
		return nil, err
	}
	if err := p.pairings.Create(ctx, tx, token); err != nil {
		return nil, err
	}
	return token, nil
}

func (p *pairingUC) Bind(ctx context.Context, rawToken string, chatID int64) error {
	defer logging.TraceDuration(p.log, "PairingUC.Bind")()

	token, err := model.ParseToken(rawToken)
	if err != nil {
		metrics.IncBindAttempt("invalid_format")
		return err
	}

	// Read the current row first so a successful rebind can invalidate the
	// cache entry of the previously bound chat.
	prev, err := p.pairings.FindByToken(ctx, repository.NoTX, token)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			metrics.IncBindAttempt("token_not_found")
		}
		return err
	}

	if err := p.pairings.BindChat(ctx, repository.NoTX, token, chatID); err != nil {
		if errors.Is(err, domain.ErrChatTaken) {
			metrics.IncBindAttempt("chat_taken")
		} else {
			metrics.IncBindAttempt("error")
		}
		return err
	}

	if prev.Bound() && *prev.ChatID != chatID {
		if err := p.cache.DeleteBinding(ctx, *prev.ChatID); err != nil {
			p.log.Warn().Err(err).Int64("chat_id", *prev.ChatID).Msg("failed to invalidate old binding cache")
		}
	}
	if err := p.cache.StoreBinding(ctx, chatID, prev.UserID); err != nil {
		p.log.Warn().Err(err).Int64("chat_id", chatID).Msg("failed to cache binding")
	}

	metrics.IncBindAttempt("success")
	logging.With(ctx, p.log).Info().
		Str("user_id", prev.UserID).
		Str("token", logging.Redact(token, false)).
		Int64("chat_id", chatID).
		Msg("chat bound")
	return nil
}

func (p *pairingUC) Binding(ctx context.Context, userID string) (*model.PairingToken, error) {
	return p.pairings.FindByUser(ctx, repository.NoTX, userID)
}

func (p *pairingUC) TokenOf(ctx context.Context, userID string) (string, error) {
	token, err := p.pairings.FindByUser(ctx, repository.NoTX, userID)
	if err != nil {
		return "", err
	}
	return token.Token, nil
}

func (p *pairingUC) UserByChat(ctx context.Context, chatID int64) (string, error) {
	if userID, err := p.cache.GetBinding(ctx, chatID); err == nil && userID != "" {
		return userID, nil
	} else if err != nil {
		p.log.Warn().Err(err).Int64("chat_id", chatID).Msg("binding cache read failed")
	}

	token, err := p.pairings.FindByChatID(ctx, repository.NoTX, chatID)
	if err != nil {
		return "", err
	}
	if err := p.cache.StoreBinding(ctx, chatID, token.UserID); err != nil {
		p.log.Warn().Err(err).Int64("chat_id", chatID).Msg("failed to cache binding")
	}
	return token.UserID, nil
}
