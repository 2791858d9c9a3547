// ABOUTME: Transaction support for multi-statement store operations.
// ABOUTME: Tx exposes the same row operations as DB, bound to one write transaction.
package storage

import (
	"context"
	"fmt"
)

// Tx is a store view bound to an open write transaction.
type Tx struct {
	ops
}

// RunInTransaction runs fn inside a single write transaction. Any error from
// fn, or a panic, rolls back every statement fn issued.
func (d *DB) RunInTransaction(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Tx{ops: ops{q: sqlTx}}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return wrapErr("commit transaction", err)
	}
	return nil
}
