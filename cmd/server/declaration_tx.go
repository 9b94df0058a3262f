package main

import (
	"context"
	"database/sql"
	"time"

	dErrors "declara/pkg/domainerrors"
	txcontext "declara/pkg/platform/tx"
)

const defaultDeclarationTxTimeout = 5 * time.Second

// declarationPostgresTx runs lifecycle mutations inside a SQL transaction.
// The transaction rides the context so the declaration store and the outbox
// write commit together.
type declarationPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newDeclarationPostgresTx(db *sql.DB) *declarationPostgresTx {
	return &declarationPostgresTx{db: db}
}

func (t *declarationPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultDeclarationTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	return tx.Commit()
}
