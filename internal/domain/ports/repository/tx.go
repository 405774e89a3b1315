package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque handle for an in-flight database transaction. Repositories
// accept it as their second argument; NoTX (nil) runs the call on the pool.
type Tx = any

// NoTX is passed where no enclosing transaction exists.
var NoTX Tx = nil

// TransactionManager runs fn inside a single transaction. The tx handle given
// to fn must be forwarded to every repository call that should join it.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
