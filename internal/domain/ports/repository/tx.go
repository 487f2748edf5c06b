package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying handle via `tx`. Keeps use-case interfaces free of
// storage types: repositories accept the same opaque Tx and detect the
// concrete handle (e.g. pgx.Tx) implementation-side. Repositories MUST accept
// a nil tx and fall back to the pool.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
