package client

import (
	"context"

	"github.com/satishbabariya/pulseorm/ormerr"
	"github.com/satishbabariya/pulseorm/query/builder"
	"github.com/satishbabariya/pulseorm/query/executor"
	"github.com/satishbabariya/pulseorm/query/sqlgen"
)

func resolveBatch(s Session, size int) (int, error) {
	switch {
	case size < 0:
		return 0, &ormerr.ArgumentError{Name: "batchSize", Value: size, Reason: "must not be negative"}
	case size == 0:
		return s.client().batchSize, nil
	}
	return size, nil
}

// BulkInsert inserts rows with multi-row INSERT statements of at most
// batchSize rows each (zero selects the client default). All batches run
// in one transaction; any failure rolls every batch back.
func BulkInsert[T any](ctx context.Context, s Session, rows []T, batchSize int) (int64, error) {
	return bulk(ctx, s, "bulk insert", rows, batchSize, func(b *builder.Builder[T], chunk []T) ([]sqlgen.Statement, error) {
		st, err := b.BulkInsert(chunk)
		return []sqlgen.Statement{st}, err
	})
}

// BulkUpdate updates every row by primary key, one UPDATE per row, inside
// a single transaction.
func BulkUpdate[T any](ctx context.Context, s Session, rows []T, batchSize int) (int64, error) {
	return bulk(ctx, s, "bulk update", rows, batchSize, func(b *builder.Builder[T], chunk []T) ([]sqlgen.Statement, error) {
		out := make([]sqlgen.Statement, len(chunk))
		for i := range chunk {
			st, err := b.Update(&chunk[i])
			if err != nil {
				return nil, err
			}
			out[i] = st
		}
		return out, nil
	})
}

// BulkUpdateColumns sets members on every row with one CASE statement per
// batch, matching rows on keyMember. An empty keyMember selects the primary
// key; no members selects every non-key column.
func BulkUpdateColumns[T any](ctx context.Context, s Session, rows []T, keyMember string, members []string, batchSize int) (int64, error) {
	return bulk(ctx, s, "bulk update", rows, batchSize, func(b *builder.Builder[T], chunk []T) ([]sqlgen.Statement, error) {
		st, err := b.BulkUpdate(chunk, keyMember, members)
		return []sqlgen.Statement{st}, err
	})
}

// bulk builds every statement up front so invalid input never opens a
// transaction.
func bulk[T any](ctx context.Context, s Session, op string, rows []T, size int, build func(*builder.Builder[T], []T) ([]sqlgen.Statement, error)) (int64, error) {
	size, err := resolveBatch(s, size)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	b, err := prepare[T](s)
	if err != nil {
		return 0, err
	}

	var stmts []sqlgen.Statement
	for _, batch := range builder.Batches(len(rows), size) {
		sts, err := build(b, rows[batch.Start:batch.End])
		if err != nil {
			return 0, err
		}
		stmts = append(stmts, sts...)
	}

	var total int64
	err = observe(ctx, s, op, b.Descriptor().Entity(), func() error {
		return s.atomic(ctx, func(ex *executor.Executor) error {
			for _, st := range stmts {
				n, err := ex.Exec(ctx, st)
				if err != nil {
					return err
				}
				total += n
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}
