package client

import (
	"context"

	"github.com/satishbabariya/pulseorm/ormerr"
	"github.com/satishbabariya/pulseorm/query/builder"
	"github.com/satishbabariya/pulseorm/query/compiler"
	"github.com/satishbabariya/pulseorm/query/executor"
	"github.com/satishbabariya/pulseorm/query/sqlgen"
	"github.com/satishbabariya/pulseorm/schema"
)

// Page is one page of a paged read.
type Page[T any] struct {
	Items []T
	Total int64
	Page  int
	Size  int
}

// Pages returns the number of pages needed for Total rows.
func (p Page[T]) Pages() int {
	if p.Size < 1 {
		return 0
	}
	return int((p.Total + int64(p.Size) - 1) / int64(p.Size))
}

// Insert inserts e and returns the affected row count. A zero integer key
// is left to the database and, when the driver reports the generated id,
// written back into e.
func Insert[T any](ctx context.Context, s Session, e *T) (n int64, err error) {
	b, err := prepare[T](s)
	if err != nil {
		return 0, err
	}
	desc := b.Descriptor()
	key, hasKey := desc.Key()
	generated := hasKey && key.IsZero(e) && (key.Kind() == schema.KindInt || key.Kind() == schema.KindUint)

	st, err := b.Insert(e)
	if err != nil {
		return 0, err
	}
	err = observe(ctx, s, "insert", desc.Entity(), func() error {
		return s.run(ctx, func(ex *executor.Executor) error {
			res, err := ex.Result(ctx, st)
			if err != nil {
				return err
			}
			if n, err = res.RowsAffected(); err != nil {
				n = 0
			}
			if generated {
				if id, err := res.LastInsertId(); err == nil && id != 0 {
					return key.Assign(e, id)
				}
			}
			return nil
		})
	})
	return n, err
}

// Update writes every non-key column of e, matched by primary key.
func Update[T any](ctx context.Context, s Session, e *T) (int64, error) {
	b, err := prepare[T](s)
	if err != nil {
		return 0, err
	}
	st, err := b.Update(e)
	if err != nil {
		return 0, err
	}
	return execute(ctx, s, "update", b.Descriptor().Entity(), st)
}

// Delete deletes e by its primary key.
func Delete[T any](ctx context.Context, s Session, e *T) (int64, error) {
	b, err := prepare[T](s)
	if err != nil {
		return 0, err
	}
	st, err := b.Delete(e)
	if err != nil {
		return 0, err
	}
	return execute(ctx, s, "delete", b.Descriptor().Entity(), st)
}

// DeleteByID deletes the row whose primary key equals id.
func DeleteByID[T any](ctx context.Context, s Session, id any) (int64, error) {
	b, err := prepare[T](s)
	if err != nil {
		return 0, err
	}
	st, err := b.DeleteByID(id)
	if err != nil {
		return 0, err
	}
	return execute(ctx, s, "delete", b.Descriptor().Entity(), st)
}

// GetByID loads the row whose primary key equals id. A missing row is an
// ormerr.NotFoundError.
func GetByID[T any](ctx context.Context, s Session, id any) (*T, error) {
	b, err := prepare[T](s)
	if err != nil {
		return nil, err
	}
	st, err := b.SelectByID(id)
	if err != nil {
		return nil, err
	}
	var rows []T
	err = observe(ctx, s, "get", b.Descriptor().Entity(), func() error {
		return s.run(ctx, func(ex *executor.Executor) (err error) {
			rows, err = executor.Fetch(ctx, ex, st, b.Descriptor())
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &ormerr.NotFoundError{Entity: b.Descriptor().Entity(), ID: id}
	}
	return &rows[0], nil
}

// GetAll loads every row of T's table.
func GetAll[T any](ctx context.Context, s Session) ([]T, error) {
	b, err := prepare[T](s)
	if err != nil {
		return nil, err
	}
	st, err := b.All()
	if err != nil {
		return nil, err
	}
	var rows []T
	err = observe(ctx, s, "list", b.Descriptor().Entity(), func() error {
		return s.run(ctx, func(ex *executor.Executor) (err error) {
			rows, err = executor.Fetch(ctx, ex, st, b.Descriptor())
			return err
		})
	})
	return rows, err
}

// GetAllPaged loads one page of T's table together with the total row
// count. Without explicit order the primary key orders the page.
func GetAllPaged[T any](ctx context.Context, s Session, page, size int, order ...compiler.Order) (Page[T], error) {
	b, err := prepare[T](s)
	if err != nil {
		return Page[T]{}, err
	}
	return rootPage(ctx, s, b, builder.Query{Order: order}, page, size)
}

func rootPage[T any](ctx context.Context, s Session, b *builder.Builder[T], q builder.Query, page, size int) (Page[T], error) {
	pageSt, countSt, err := b.RootPage(q, page, size)
	if err != nil {
		return Page[T]{}, err
	}
	out := Page[T]{Page: page, Size: size}
	err = observe(ctx, s, "page", b.Descriptor().Entity(), func() error {
		return s.run(ctx, func(ex *executor.Executor) (err error) {
			if out.Total, err = ex.Count(ctx, countSt); err != nil {
				return err
			}
			out.Items, err = executor.Fetch(ctx, ex, pageSt, b.Descriptor())
			return err
		})
	})
	if err != nil {
		return Page[T]{}, err
	}
	return out, nil
}

func execute(ctx context.Context, s Session, op, entity string, st sqlgen.Statement) (n int64, err error) {
	err = observe(ctx, s, op, entity, func() error {
		return s.run(ctx, func(ex *executor.Executor) (err error) {
			n, err = ex.Exec(ctx, st)
			return err
		})
	})
	return n, err
}
