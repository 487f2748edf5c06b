package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-chat-bridge/internal/domain"
	"telegram-chat-bridge/internal/domain/model"
	"telegram-chat-bridge/internal/domain/ports/repository"
)

var _ repository.MessageRepository = (*PostgresMessageRepo)(nil)

// PostgresMessageRepo is the append-only message log. Rows are never deleted
// here; cleanup rides on the users FK cascade.
type PostgresMessageRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresMessageRepo(pool *pgxpool.Pool) *PostgresMessageRepo {
	return &PostgresMessageRepo{pool: pool}
}

func (r *PostgresMessageRepo) Append(ctx context.Context, tx repository.Tx, m *model.Message) error {
	const q = `
INSERT INTO messages (id, user_id, direction, body, delivery_status, created_at)
VALUES ($1,$2,$3,$4,$5,$6);
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	if _, err := ex.Exec(ctx, q, m.ID, m.UserID, string(m.Direction), m.Body, string(m.Status), m.CreatedAt); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

func (r *PostgresMessageRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.DeliveryStatus) error {
	const q = `UPDATE messages SET delivery_status=$2 WHERE id=$1;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, q, id, string(status))
	if err != nil {
		return fmt.Errorf("update message status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresMessageRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Message, error) {
	const q = `
SELECT id, user_id, direction, body, delivery_status, created_at
  FROM messages WHERE user_id=$1 ORDER BY created_at ASC, id ASC;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []*model.Message
	for rows.Next() {
		var m model.Message
		var dir, status string
		if err := rows.Scan(&m.ID, &m.UserID, &dir, &m.Body, &status, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Direction = model.MessageDirection(dir)
		m.Status = model.DeliveryStatus(status)
		out = append(out, &m)
	}
	return out, rows.Err()
}
