package client

import (
	"context"
	"database/sql"
	"errors"

	"github.com/satishbabariya/pulseorm/internal/debug"
	"github.com/satishbabariya/pulseorm/query/executor"
)

// IsolationLevel represents transaction isolation levels
type IsolationLevel int

const (
	// ReadCommitted prevents dirty reads (default)
	ReadCommitted IsolationLevel = iota
	// ReadUncommitted allows dirty reads
	ReadUncommitted
	// RepeatableRead prevents dirty reads and non-repeatable reads
	RepeatableRead
	// Serializable prevents dirty reads, non-repeatable reads, and phantom reads
	Serializable
)

// ToSQLIsolationLevel converts IsolationLevel to sql.IsolationLevel
func (level IsolationLevel) ToSQLIsolationLevel() sql.IsolationLevel {
	switch level {
	case ReadUncommitted:
		return sql.LevelReadUncommitted
	case RepeatableRead:
		return sql.LevelRepeatableRead
	case Serializable:
		return sql.LevelSerializable
	default:
		return sql.LevelReadCommitted
	}
}

// TxOption adjusts the options a transaction is started with.
type TxOption func(*sql.TxOptions)

// Isolation sets the isolation level.
func Isolation(level IsolationLevel) TxOption {
	return func(o *sql.TxOptions) { o.Isolation = level.ToSQLIsolationLevel() }
}

// ReadOnly starts a read-only transaction.
func ReadOnly() TxOption {
	return func(o *sql.TxOptions) { o.ReadOnly = true }
}

// Tx is a Session bound to one open transaction. Every operation run
// through it uses the transaction's connection.
type Tx struct {
	c  *Client
	tx *sql.Tx
}

func (t *Tx) client() *Client { return t.c }

func (t *Tx) run(ctx context.Context, fn func(*executor.Executor) error) error {
	return fn(executor.New(t.tx, t.c.dialect))
}

// atomic reuses the open transaction.
func (t *Tx) atomic(ctx context.Context, fn func(*executor.Executor) error) error {
	return t.run(ctx, fn)
}

// Transaction runs fn inside a transaction on one dedicated connection. The
// transaction commits when fn returns nil and rolls back otherwise, including
// when fn panics.
func (c *Client) Transaction(ctx context.Context, fn func(tx *Tx) error, opts ...TxOption) (err error) {
	var o sql.TxOptions
	for _, opt := range opts {
		opt(&o)
	}

	conn, err := c.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(); err == nil {
			err = cerr
		}
	}()

	tx, err := conn.BeginTx(ctx, &o)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Tx{c: c, tx: tx}); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return errors.Join(err, rerr)
		}
		debug.Debug("tx rollback")
		return err
	}
	return tx.Commit()
}
