package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shoply-be/internal/logger"

	"go.uber.org/zap"
)

// TxRunner runs fn inside one transaction. The transaction is committed only
// when fn returns nil; any error or panic rolls it back.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(q Querier) error) error
}

type sqlTxRunner struct {
	db   *sql.DB
	opts *sql.TxOptions
}

func NewTxRunner(db *sql.DB, opts *sql.TxOptions) TxRunner {
	return &sqlTxRunner{db: db, opts: opts}
}

func (r *sqlTxRunner) WithTx(ctx context.Context, fn func(q Querier) error) error {
	log := logger.FromCtx(ctx).With(zap.String("layer", "db"))

	tx, err := r.db.BeginTx(ctx, r.opts)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Error("failed to rollback transaction", zap.Error(rbErr))
			return
		}
		log.Debug("transaction rolled back")
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction", zap.Error(err))
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true

	return nil
}
