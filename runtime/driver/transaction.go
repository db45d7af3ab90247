package driver

import (
	"context"
	"fmt"
	"strconv"

	"github.com/satishbabariya/dbal/internal/debug"
)

func savepointName(depth int) string { return "SP_" + strconv.Itoa(depth) }

// TransactionStart begins a transaction. Inside an open transaction with
// asSavepoint set it creates a savepoint instead. Either way the depth
// grows by one.
func (d *Driver) TransactionStart(ctx context.Context, asSavepoint bool) error {
	if !asSavepoint || d.depth == 0 {
		if err := d.Run(ctx, d.adapter.Tx.Begin); err != nil {
			return err
		}
		d.depth++
		return nil
	}
	name := savepointName(d.depth)
	if err := d.Run(ctx, fmt.Sprintf(d.adapter.Tx.Save, d.QuoteName(name))); err != nil {
		return err
	}
	debug.Debug("savepoint created", "name", name)
	d.depth++
	return nil
}

// TransactionCommit commits the transaction. With toSavepoint set inside a
// nested level it only leaves the level; the savepoint's work commits with
// the outer transaction.
func (d *Driver) TransactionCommit(ctx context.Context, toSavepoint bool) error {
	if !toSavepoint || d.depth <= 1 {
		if err := d.Run(ctx, d.adapter.Tx.Commit); err != nil {
			return err
		}
		d.depth = 0
		return nil
	}
	d.depth--
	return nil
}

// TransactionRollback rolls the transaction back. With toSavepoint set
// inside a nested level it rolls back to the level's savepoint only.
func (d *Driver) TransactionRollback(ctx context.Context, toSavepoint bool) error {
	if !toSavepoint || d.depth <= 1 {
		if err := d.Run(ctx, d.adapter.Tx.Rollback); err != nil {
			return err
		}
		d.depth = 0
		return nil
	}
	name := savepointName(d.depth - 1)
	if err := d.Run(ctx, fmt.Sprintf(d.adapter.Tx.RollbackTo, d.QuoteName(name))); err != nil {
		return err
	}
	debug.Debug("rolled back to savepoint", "name", name)
	d.depth--
	return nil
}

// Transact runs fn inside a transaction, or a savepoint when one is open,
// committing when fn returns nil and rolling back otherwise.
func (d *Driver) Transact(ctx context.Context, fn func(context.Context) error) (err error) {
	if err := d.TransactionStart(ctx, true); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			_ = d.TransactionRollback(ctx, true)
			panic(r)
		}
		if err != nil {
			if rerr := d.TransactionRollback(ctx, true); rerr != nil {
				err = fmt.Errorf("%w (rollback: %v)", err, rerr)
			}
			return
		}
		err = d.TransactionCommit(ctx, true)
	}()
	return fn(ctx)
}
