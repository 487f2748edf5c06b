package adapter

import "context"

// RelayGateway pushes text to an external chat. Implementations make a single
// delivery attempt; the caller owns timeouts and decides what to do on error.
type RelayGateway interface {
	SendText(ctx context.Context, chatID int64, text string) error
}
