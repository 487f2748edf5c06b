package model

import (
	"crypto/rand"
	"strings"
	"time"

	"telegram-chat-bridge/internal/domain"

	"github.com/oklog/ulid/v2"
)

type MessageDirection string

const (
	DirectionOut MessageDirection = "out" // web -> chat
	DirectionIn  MessageDirection = "in"  // chat -> web
)

type DeliveryStatus string

const (
	DeliveryPending  DeliveryStatus = "pending"
	DeliverySent     DeliveryStatus = "sent"
	DeliveryFailed   DeliveryStatus = "failed"
	DeliveryReceived DeliveryStatus = "received" // inbound, nothing to deliver
)

// Message is one append-only log entry. IDs are ULIDs so the primary key
// sorts in creation order.
type Message struct {
	ID        string
	UserID    string
	Direction MessageDirection
	Body      string
	Status    DeliveryStatus
	CreatedAt time.Time
}

func NewMessage(userID string, direction MessageDirection, body string, status DeliveryStatus) (*Message, error) {
	if userID == "" || strings.TrimSpace(body) == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Message{
		ID:        ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		UserID:    userID,
		Direction: direction,
		Body:      body,
		Status:    status,
		CreatedAt: now,
	}, nil
}
