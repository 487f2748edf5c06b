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

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

func (r *PostgresUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (id, username, first_name, password_hash, registered_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO UPDATE SET
  username=$2, first_name=$3, password_hash=$4;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	if _, err := ex.Exec(ctx, q, u.ID, u.Username, u.FirstName, u.PasswordHash, u.RegisteredAt); err != nil {
		if isUniqueViolation(err, "users_username_key") {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	const q = `
SELECT id, username, first_name, password_hash, registered_at
  FROM users WHERE id=$1;`
	return r.scanOne(ctx, tx, q, id)
}

func (r *PostgresUserRepo) FindByUsername(ctx context.Context, tx repository.Tx, username string) (*model.User, error) {
	const q = `
SELECT id, username, first_name, password_hash, registered_at
  FROM users WHERE username=$1;`
	return r.scanOne(ctx, tx, q, username)
}

func (r *PostgresUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM users;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *PostgresUserRepo) scanOne(ctx context.Context, tx repository.Tx, q string, arg interface{}) (*model.User, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := ex.QueryRow(ctx, q, arg).Scan(&u.ID, &u.Username, &u.FirstName, &u.PasswordHash, &u.RegisteredAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
