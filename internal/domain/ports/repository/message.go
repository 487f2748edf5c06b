package repository

import (
	"context"

	"telegram-chat-bridge/internal/domain/model"
)

// -----------------------------
// Message log
// -----------------------------

// MessageRepository is the append-only log of relayed texts. Entries are
// never removed; only their delivery status changes after the fact.
type MessageRepository interface {
	Append(ctx context.Context, tx Tx, m *model.Message) error
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.DeliveryStatus) error
	// ListByUser returns the user's entries in creation order.
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Message, error)
}
