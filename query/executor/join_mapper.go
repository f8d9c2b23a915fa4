package executor

import (
	"github.com/satishbabariya/pulseorm/query/builder"
	"github.com/satishbabariya/pulseorm/schema"
)

// merger folds the related entity of one wide row into its root.
type merger[T any] interface {
	merge(cur Cursor, root *T, pos int) error
}

type childKey struct {
	root  int
	child schema.Key
}

type wideMerger[T, J any] struct {
	rel    *relation[T, J]
	mapper *Mapper[J]
	seen   map[childKey]bool
}

func (r *relation[T, J]) wide(cur Cursor, prefix string) merger[T] {
	return &wideMerger[T, J]{
		rel:    r,
		mapper: NewMapper(cur, r.target, prefix),
		seen:   make(map[childKey]bool),
	}
}

func (w *wideMerger[T, J]) merge(cur Cursor, root *T, pos int) error {
	child, ok, err := w.mapper.Prefixed(cur)
	if err != nil || !ok {
		return err
	}
	if w.rel.card == One {
		*w.rel.one(root) = child
		return nil
	}
	if k, ok := w.rel.target.KeyOf(child); ok {
		ck := childKey{root: pos, child: k}
		if w.seen[ck] {
			return nil
		}
		w.seen[ck] = true
	}
	list := w.rel.many(root)
	*list = append(*list, *child)
	return nil
}

// FlattenWide rebuilds root entities from a wide joined row stream laid out
// by builder.Joined. Roots are de-duplicated by primary key, keeping the
// first occurrence and the order of first appearance. One-to-one
// navigations take the last non-null related row; one-to-many navigations
// collect each related key once per root. The root must have a primary
// key.
func FlattenWide[T any](cur Cursor, root *schema.Descriptor[T], rels []Relation[T]) ([]T, error) {
	if _, err := root.RequireKey("join"); err != nil {
		return nil, err
	}
	rootMapper := NewMapper(cur, root, builder.RootPrefix)
	mergers := make([]merger[T], len(rels))
	for i, r := range rels {
		mergers[i] = r.wide(cur, builder.JoinPrefix(i))
	}

	out := []T{}
	index := make(map[schema.Key]int)
	for cur.Next() {
		e, err := rootMapper.Row(cur)
		if err != nil {
			return nil, err
		}
		pos := -1
		key, hasKey := root.KeyOf(&e)
		if hasKey {
			if p, ok := index[key]; ok {
				pos = p
			}
		}
		if pos < 0 {
			out = append(out, e)
			pos = len(out) - 1
			if hasKey {
				index[key] = pos
			}
		}
		for _, m := range mergers {
			if err := m.merge(cur, &out[pos], pos); err != nil {
				return nil, err
			}
		}
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
