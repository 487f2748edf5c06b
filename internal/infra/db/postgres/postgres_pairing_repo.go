package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-chat-bridge/internal/domain"
	"telegram-chat-bridge/internal/domain/model"
	"telegram-chat-bridge/internal/domain/ports/repository"
)

var _ repository.PairingRepository = (*PostgresPairingRepo)(nil)

// PostgresPairingRepo persists pairing tokens. The schema enforces the two
// uniqueness invariants: one row per user (primary key) and one token per
// chat (unique index on chat_id, nulls excluded).
type PostgresPairingRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPairingRepo(pool *pgxpool.Pool) *PostgresPairingRepo {
	return &PostgresPairingRepo{pool: pool}
}

func (r *PostgresPairingRepo) Create(ctx context.Context, tx repository.Tx, p *model.PairingToken) error {
	const q = `
INSERT INTO pairing_tokens (user_id, token, chat_id, created_at, bound_at)
VALUES ($1,$2,$3,$4,$5);
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	if _, err := ex.Exec(ctx, q, p.UserID, p.Token, p.ChatID, p.CreatedAt, p.BoundAt); err != nil {
		if isUniqueViolation(err, "pairing_tokens_pkey") {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("create pairing token: %w", err)
	}
	return nil
}

func (r *PostgresPairingRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) (*model.PairingToken, error) {
	const q = `
SELECT user_id, token, chat_id, created_at, bound_at
  FROM pairing_tokens WHERE user_id=$1;`
	return r.scanOne(ctx, tx, q, userID)
}

func (r *PostgresPairingRepo) FindByToken(ctx context.Context, tx repository.Tx, token string) (*model.PairingToken, error) {
	const q = `
SELECT user_id, token, chat_id, created_at, bound_at
  FROM pairing_tokens WHERE token=$1;`
	p, err := r.scanOne(ctx, tx, q, token)
	if err == domain.ErrNotFound {
		return nil, domain.ErrTokenNotFound
	}
	return p, err
}

func (r *PostgresPairingRepo) FindByChatID(ctx context.Context, tx repository.Tx, chatID int64) (*model.PairingToken, error) {
	const q = `
SELECT user_id, token, chat_id, created_at, bound_at
  FROM pairing_tokens WHERE chat_id=$1;`
	return r.scanOne(ctx, tx, q, chatID)
}

// BindChat overwrites the binding for token (last write wins). A no-op update
// count means the token does not exist.
func (r *PostgresPairingRepo) BindChat(ctx context.Context, tx repository.Tx, token string, chatID int64) error {
	const q = `
UPDATE pairing_tokens SET chat_id=$2, bound_at=now() WHERE token=$1;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, q, token, chatID)
	if err != nil {
		if isUniqueViolation(err, "pairing_tokens_chat_id_key") {
			return domain.ErrChatTaken
		}
		return fmt.Errorf("bind chat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTokenNotFound
	}
	return nil
}

func (r *PostgresPairingRepo) scanOne(ctx context.Context, tx repository.Tx, q string, arg interface{}) (*model.PairingToken, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var p model.PairingToken
	if err := ex.QueryRow(ctx, q, arg).Scan(&p.UserID, &p.Token, &p.ChatID, &p.CreatedAt, &p.BoundAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
