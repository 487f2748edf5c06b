package model

import (
	"time"

	"telegram-chat-bridge/internal/domain"

	"github.com/google/uuid"
)

// PairingToken is the one-time secret issued per account at registration.
// ChatID stays nil until the owner presents the token from the Telegram side;
// a later successful bind overwrites the previous chat id (last write wins).
type PairingToken struct {
	UserID    string
	Token     string
	ChatID    *int64
	CreatedAt time.Time
	BoundAt   *time.Time
}

// NewPairingToken issues a fresh token for userID. There is exactly one token
// per user; enforcing that is the repository's job (primary key on user_id).
func NewPairingToken(userID string) (*PairingToken, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &PairingToken{
		UserID:    userID,
		Token:     uuid.NewString(),
		CreatedAt: time.Now(),
	}, nil
}

// ParseToken validates the wire format of a pairing token (canonical UUID).
func ParseToken(raw string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", domain.ErrInvalidTokenFormat
	}
	return id.String(), nil
}

func (p *PairingToken) Bound() bool { return p != nil && p.ChatID != nil }
