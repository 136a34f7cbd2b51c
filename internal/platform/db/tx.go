package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

type txKey struct{}

type hooksKey struct{}

type commitHooks struct {
	fns []func()
}

// TxRunner runs fn inside a single database transaction. Repositories
// called with the ctx passed to fn join that transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TxFromContext returns the transaction bound to ctx, if any.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}

// WithTx binds tx to ctx.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// AfterCommit defers fn until the transaction opened by InTx commits. fn is
// dropped on rollback. Without a transaction in ctx it runs immediately.
func AfterCommit(ctx context.Context, fn func()) {
	if h, ok := ctx.Value(hooksKey{}).(*commitHooks); ok {
		h.fns = append(h.fns, fn)
		return
	}
	fn()
}

// Conn returns the transaction bound to ctx, falling back to pool.
func Conn(ctx context.Context, pool Querier) Querier {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

type poolTxRunner struct {
	pool Pool
}

func NewTxRunner(pool Pool) TxRunner {
	return &poolTxRunner{pool: pool}
}

// InTx commits when fn returns nil and rolls back otherwise. A nested call
// joins the outer transaction instead of opening a new one.
func (r *poolTxRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return MapError(err, "transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, MapError(rbErr, "transaction"))
			}
		}
	}()

	hooks := &commitHooks{}
	if err = fn(context.WithValue(WithTx(ctx, tx), hooksKey{}, hooks)); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return MapError(err, "transaction")
	}
	for _, h := range hooks.fns {
		h()
	}
	return nil
}
