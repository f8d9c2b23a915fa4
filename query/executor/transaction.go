package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/satishbabariya/pulseorm/internal/debug"
	"github.com/satishbabariya/pulseorm/query/sqlgen"
)

// WithConn acquires one dedicated connection from db for the duration of
// fn and releases it on every exit path.
func WithConn(ctx context.Context, db Connector, dialect sqlgen.Dialect, fn func(*Executor) error) (err error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	defer closeInto(&err, conn)
	return fn(New(conn, dialect))
}

// InTx runs fn inside a transaction on e's connection. The transaction is
// committed when fn returns nil and rolled back otherwise; a rollback
// failure is joined to fn's error.
func (e *Executor) InTx(ctx context.Context, fn func(tx *Executor) error) error {
	b, ok := e.q.(txBeginner)
	if !ok {
		return fmt.Errorf("executor: %T cannot begin a transaction", e.q)
	}
	tx, err := b.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	debug.Debug("tx begin")

	if err := fn(New(tx, e.dialect)); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return errors.Join(err, rerr)
		}
		debug.Debug("tx rollback")
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	debug.Debug("tx commit")
	return nil
}
