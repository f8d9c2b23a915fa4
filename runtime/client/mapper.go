package client

import (
	"github.com/satishbabariya/pulseorm/ormerr"
	"github.com/satishbabariya/pulseorm/schema"
)

type projectedColumn[T, D any] struct {
	src *schema.Column[T]
	dst *schema.Column[D]
}

// projection copies members from entities of T into entities of D.
// Members are paired by name, exactly first and then case-insensitively.
type projection[T, D any] struct {
	pairs []projectedColumn[T, D]
}

func newProjection[T, D any](src *schema.Descriptor[T], dst *schema.Descriptor[D]) (*projection[T, D], error) {
	p := &projection[T, D]{}
	for _, col := range dst.Columns() {
		from := findMember(src, col.Member())
		if from == nil {
			return nil, &ormerr.UnmappedMemberError{Entity: src.Entity(), Member: col.Member()}
		}
		p.pairs = append(p.pairs, projectedColumn[T, D]{src: from, dst: col})
	}
	return p, nil
}

func findMember[T any](desc *schema.Descriptor[T], member string) *schema.Column[T] {
	if col, ok := desc.Column(member); ok {
		return col
	}
	want := schema.Fold(member)
	for _, col := range desc.Columns() {
		if schema.Fold(col.Member()) == want {
			return col
		}
	}
	return nil
}

func (p *projection[T, D]) members() []string {
	out := make([]string, len(p.pairs))
	for i, pair := range p.pairs {
		out[i] = pair.src.Member()
	}
	return out
}

func (p *projection[T, D]) copy(e *T) (D, error) {
	var d D
	for _, pair := range p.pairs {
		v := pair.src.Value(e)
		if v == nil {
			continue
		}
		if err := pair.dst.Assign(&d, v); err != nil {
			return d, err
		}
	}
	return d, nil
}

func (p *projection[T, D]) copyAll(rows []T) ([]D, error) {
	out := make([]D, len(rows))
	for i := range rows {
		d, err := p.copy(&rows[i])
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}
