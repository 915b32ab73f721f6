package main

import (
	"context"
	"database/sql"
	"time"

	dErrors "saral/pkg/domain-errors"
	"saral/pkg/platform/tx"
)

const defaultCaseTxTimeout = 5 * time.Second

// casePostgresTx commits a case write and its compliance events together.
type casePostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newCasePostgresTx(db *sql.DB) *casePostgresTx {
	return &casePostgresTx{db: db, timeout: defaultCaseTxTimeout}
}

func (t *casePostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	return tx.Run(ctx, t.db, fn)
}

// healthFunc adapts a ping function to service.HealthChecker.
type healthFunc func(ctx context.Context) error

func (f healthFunc) Health(ctx context.Context) error { return f(ctx) }
