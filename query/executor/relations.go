package executor

import (
	"context"

	"github.com/satishbabariya/pulseorm/ormerr"
	"github.com/satishbabariya/pulseorm/query/builder"
	"github.com/satishbabariya/pulseorm/schema"
)

// AttachSplit loads every relation of roots with one follow-up query each
// and attaches the results in memory. An inner one-to-one relation drops
// roots without a match; every other relation keeps all roots. The returned
// slice preserves root order.
func AttachSplit[T any](ctx context.Context, e *Executor, root *schema.Descriptor[T], roots []T, rels []Relation[T]) ([]T, error) {
	var err error
	for _, r := range rels {
		roots, err = r.attach(ctx, e, root, roots)
		if err != nil {
			return nil, err
		}
	}
	return roots, nil
}

// distinctKeys collects the distinct non-null values of col across roots,
// in first-seen order.
func distinctKeys[T any](col *schema.Column[T], roots []T) []any {
	seen := make(map[schema.Key]bool)
	var keys []any
	for i := range roots {
		v := col.Value(&roots[i])
		k, ok := schema.KeyOf(v)
		if !ok || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, v)
	}
	return keys
}

func (r *relation[T, J]) attach(ctx context.Context, e *Executor, root *schema.Descriptor[T], roots []T) ([]T, error) {
	rootCol, ok := root.Column(r.rootMember)
	if !ok {
		return nil, &ormerr.UnmappedMemberError{Entity: root.Entity(), Member: r.rootMember}
	}
	targetCol, err := r.targetColumn()
	if err != nil {
		return nil, err
	}

	keys := distinctKeys(rootCol, roots)
	groups := make(map[schema.Key][]J)
	if len(keys) > 0 {
		st, err := builder.New(r.target, e.Dialect()).RelatedByKeys(r.targetMember, keys, r.members)
		if err != nil {
			return nil, err
		}
		related, err := Fetch(ctx, e, st, r.target)
		if err != nil {
			return nil, err
		}
		for i := range related {
			k, ok := schema.KeyOf(targetCol.Value(&related[i]))
			if !ok {
				continue
			}
			groups[k] = append(groups[k], related[i])
		}
	}

	out := make([]T, 0, len(roots))
	for i := range roots {
		ent := roots[i]
		var matches []J
		if k, ok := schema.KeyOf(rootCol.Value(&ent)); ok {
			matches = groups[k]
		}
		switch r.card {
		case One:
			if len(matches) == 0 {
				if r.mode == Inner {
					continue
				}
			} else {
				child := matches[0]
				*r.one(&ent) = &child
			}
		case Many:
			list := r.many(&ent)
			*list = append(*list, matches...)
		}
		out = append(out, ent)
	}
	return out, nil
}
