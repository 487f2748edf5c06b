//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"sync"

	"telegram-chat-bridge/internal/domain"
	"telegram-chat-bridge/internal/domain/model"
	"telegram-chat-bridge/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// stubTranslator echoes the key (and args when present) so assertions can
// match on keys without loading locale files.
type stubTranslator struct{}

func (stubTranslator) T(key string, args ...interface{}) string {
	if len(args) == 0 {
		return key
	}
	return fmt.Sprintf("%s %v", key, args)
}

// mockTxManager runs the callback without a real transaction.
type mockTxManager struct{}

func (mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

// memUserRepo is a small in-memory implementation used by unit tests.
type memUserRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.User // by ID
	saveErr error                  // simulate save failures
	findErr error                  // simulate lookup failures
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{store: make(map[string]*model.User)}
}

func (m *memUserRepo) Save(ctx context.Context, _ repository.Tx, u *model.User) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.store[u.ID] = &cp
	return nil
}

func (m *memUserRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) FindByUsername(ctx context.Context, _ repository.Tx, username string) (*model.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.store {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) CountUsers(ctx context.Context, _ repository.Tx) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store), nil
}

// memPairingRepo mirrors the schema invariants: one row per user, unique
// token, unique chat_id.
type memPairingRepo struct {
	mu      sync.RWMutex
	byUser  map[string]*model.PairingToken
	bindErr error
}

func newMemPairingRepo() *memPairingRepo {
	return &memPairingRepo{byUser: make(map[string]*model.PairingToken)}
}

func (m *memPairingRepo) Create(ctx context.Context, _ repository.Tx, p *model.PairingToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byUser[p.UserID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *p
	m.byUser[p.UserID] = &cp
	return nil
}

func (m *memPairingRepo) FindByUser(ctx context.Context, _ repository.Tx, userID string) (*model.PairingToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.byUser[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPairingRepo) FindByToken(ctx context.Context, _ repository.Tx, token string) (*model.PairingToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.byUser {
		if p.Token == token {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrTokenNotFound
}

func (m *memPairingRepo) FindByChatID(ctx context.Context, _ repository.Tx, chatID int64) (*model.PairingToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.byUser {
		if p.ChatID != nil && *p.ChatID == chatID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memPairingRepo) BindChat(ctx context.Context, _ repository.Tx, token string, chatID int64) error {
	if m.bindErr != nil {
		return m.bindErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var target *model.PairingToken
	for _, p := range m.byUser {
		if p.Token == token {
			target = p
			continue
		}
		if p.ChatID != nil && *p.ChatID == chatID {
			return domain.ErrChatTaken
		}
	}
	if target == nil {
		return domain.ErrTokenNotFound
	}
	target.ChatID = &chatID
	return nil
}

// memMessageRepo preserves append order, as the real table does.
type memMessageRepo struct {
	mu        sync.RWMutex
	store     []*model.Message
	appendErr error
}

func newMemMessageRepo() *memMessageRepo {
	return &memMessageRepo{}
}

func (m *memMessageRepo) Append(ctx context.Context, _ repository.Tx, msg *model.Message) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *msg
	m.store = append(m.store, &cp)
	return nil
}

func (m *memMessageRepo) UpdateStatus(ctx context.Context, _ repository.Tx, id string, status model.DeliveryStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.store {
		if msg.ID == id {
			msg.Status = status
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memMessageRepo) ListByUser(ctx context.Context, _ repository.Tx, userID string) ([]*model.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Message
	for _, msg := range m.store {
		if msg.UserID == userID {
			cp := *msg
			out = append(out, &cp)
		}
	}
	return out, nil
}

// memBindingCache is the in-memory stand-in for the redis binding cache.
type memBindingCache struct {
	mu    sync.RWMutex
	store map[int64]string
}

func newMemBindingCache() *memBindingCache {
	return &memBindingCache{store: make(map[int64]string)}
}

func (m *memBindingCache) StoreBinding(ctx context.Context, chatID int64, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[chatID] = userID
	return nil
}

func (m *memBindingCache) GetBinding(ctx context.Context, chatID int64) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store[chatID], nil
}

func (m *memBindingCache) DeleteBinding(ctx context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, chatID)
	return nil
}

// stubGateway records outbound pushes and can be told to fail.
type stubGateway struct {
	mu      sync.Mutex
	calls   []gatewayCall
	sendErr error
}

type gatewayCall struct {
	ChatID int64
	Text   string
}

func (g *stubGateway) SendText(ctx context.Context, chatID int64, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, gatewayCall{ChatID: chatID, Text: text})
	return g.sendErr
}

func (g *stubGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}
