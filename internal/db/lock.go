package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// ErrLocked is returned by TryLock when another session holds the lock.
var ErrLocked = eris.New("db: lock held by another session")

// Lock is a transaction-scoped advisory lock. It is held until Release.
type Lock struct {
	tx  pgx.Tx
	key int64
}

// TryLock opens a transaction and takes pg_try_advisory_xact_lock(key) on it.
// Pool connections are shared, so the lock lives on a dedicated transaction
// rather than the session.
func TryLock(ctx context.Context, pool Pool, key int64) (*Lock, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "db: lock: begin tx")
	}

	var ok bool
	if err := tx.QueryRow(ctx, "SELECT pg_try_advisory_xact_lock($1)", key).Scan(&ok); err != nil {
		_ = tx.Rollback(ctx)
		return nil, eris.Wrapf(err, "db: lock: acquire %d", key)
	}
	if !ok {
		_ = tx.Rollback(ctx)
		return nil, ErrLocked
	}
	return &Lock{tx: tx, key: key}, nil
}

// Release ends the holding transaction, which frees the lock.
func (l *Lock) Release(ctx context.Context) error {
	if l == nil || l.tx == nil {
		return nil
	}
	err := l.tx.Rollback(ctx)
	l.tx = nil
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return eris.Wrapf(err, "db: lock: release %d", l.key)
	}
	return nil
}
