//go:build !integration

package web

import (
	"context"
	"fmt"
	"time"

	"telegram-chat-bridge/internal/domain"
	"telegram-chat-bridge/internal/domain/model"
	"telegram-chat-bridge/internal/domain/ports/repository"
	"telegram-chat-bridge/internal/usecase"

	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// keyTranslator echoes keys so handler tests assert on stable identifiers
// instead of locale text.
type keyTranslator struct{}

func (keyTranslator) T(key string, args ...interface{}) string {
	if len(args) == 0 {
		return key
	}
	return fmt.Sprintf("%s %v", key, args)
}

// allowAllLimiter never throttles.
type allowAllLimiter struct{}

func (allowAllLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return true, nil
}

// denyAllLimiter throttles everything.
type denyAllLimiter struct{}

func (denyAllLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return false, nil
}

// mockAccountUC implements usecase.AccountUseCase with pluggable funcs.
type mockAccountUC struct {
	RegisterFunc     func(ctx context.Context, username, password, firstName string) (*model.User, *model.PairingToken, error)
	AuthenticateFunc func(ctx context.Context, username, password string) (*model.User, error)
	GetFunc          func(ctx context.Context, userID string) (*model.User, error)
	CountFunc        func(ctx context.Context) (int, error)
}

var _ usecase.AccountUseCase = (*mockAccountUC)(nil)

func (m *mockAccountUC) Register(ctx context.Context, username, password, firstName string) (*model.User, *model.PairingToken, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, username, password, firstName)
	}
	return nil, nil, domain.ErrInvalidArgument
}

func (m *mockAccountUC) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, username, password)
	}
	return nil, domain.ErrInvalidCredentials
}

func (m *mockAccountUC) Get(ctx context.Context, userID string) (*model.User, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID)
	}
	return nil, domain.ErrNotFound
}

func (m *mockAccountUC) Count(ctx context.Context) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

// mockPairingUC implements usecase.PairingUseCase with pluggable funcs.
type mockPairingUC struct {
	BindFunc    func(ctx context.Context, rawToken string, chatID int64) error
	TokenOfFunc func(ctx context.Context, userID string) (string, error)
}

var _ usecase.PairingUseCase = (*mockPairingUC)(nil)

func (m *mockPairingUC) Provision(ctx context.Context, tx repository.Tx, userID string) (*model.PairingToken, error) {
	return model.NewPairingToken(userID)
}

func (m *mockPairingUC) Bind(ctx context.Context, rawToken string, chatID int64) error {
	if m.BindFunc != nil {
		return m.BindFunc(ctx, rawToken, chatID)
	}
	return nil
}

func (m *mockPairingUC) Binding(ctx context.Context, userID string) (*model.PairingToken, error) {
	return nil, domain.ErrNotFound
}

func (m *mockPairingUC) TokenOf(ctx context.Context, userID string) (string, error) {
	if m.TokenOfFunc != nil {
		return m.TokenOfFunc(ctx, userID)
	}
	return "", domain.ErrNotFound
}

func (m *mockPairingUC) UserByChat(ctx context.Context, chatID int64) (string, error) {
	return "", domain.ErrNotFound
}

// mockRelayUC implements usecase.RelayUseCase with pluggable funcs.
type mockRelayUC struct {
	SendFunc    func(ctx context.Context, userID, text string) (*model.Message, error)
	HistoryFunc func(ctx context.Context, userID string) ([]*model.Message, error)
}

var _ usecase.RelayUseCase = (*mockRelayUC)(nil)

func (m *mockRelayUC) Send(ctx context.Context, userID, text string) (*model.Message, error) {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, userID, text)
	}
	return nil, domain.ErrChatNotBound
}

func (m *mockRelayUC) ReceiveInbound(ctx context.Context, chatID int64, text string) (*model.Message, error) {
	return nil, domain.ErrChatNotBound
}

func (m *mockRelayUC) History(ctx context.Context, userID string) ([]*model.Message, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, userID)
	}
	return nil, nil
}

func newTestServer(accounts usecase.AccountUseCase, pairing usecase.PairingUseCase, relay usecase.RelayUseCase) *Server {
	return newTestServerWithLimiter(accounts, pairing, relay, allowAllLimiter{})
}

func newTestServerWithLimiter(accounts usecase.AccountUseCase, pairing usecase.PairingUseCase, relay usecase.RelayUseCase, limiter RateLimiter) *Server {
	auth := NewAuthManager("test-secret", false, time.Hour)
	return NewServer(accounts, pairing, relay, auth, limiter, keyTranslator{}, 10, newTestLogger())
}
