package repository

import (
	"context"

	"telegram-chat-bridge/internal/domain/model"
)

// -----------------------------
// Pairing tokens
// -----------------------------

// PairingRepository stores the token <-> chat mapping. Implementations
// enforce one token per user and one token per chat; violating the latter
// surfaces as domain.ErrChatTaken from BindChat.
type PairingRepository interface {
	Create(ctx context.Context, tx Tx, p *model.PairingToken) error
	FindByUser(ctx context.Context, tx Tx, userID string) (*model.PairingToken, error)
	// FindByToken reports domain.ErrTokenNotFound for an unknown token.
	FindByToken(ctx context.Context, tx Tx, token string) (*model.PairingToken, error)
	FindByChatID(ctx context.Context, tx Tx, chatID int64) (*model.PairingToken, error)
	// BindChat overwrites the chat id for token (last write wins).
	BindChat(ctx context.Context, tx Tx, token string, chatID int64) error
}
