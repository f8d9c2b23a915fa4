package sqlgen

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/pulseorm/ormerr"
)

// Param is one named parameter value.
type Param struct {
	Name  string
	Value any
}

// Params is an ordered set of named parameters with unique names. The zero
// value is ready to use.
type Params struct {
	list  []Param
	index map[string]int
}

// NewParams builds a parameter set from name/value pairs. It panics on a
// repeated name.
func NewParams(pairs ...Param) Params {
	var p Params
	for _, prm := range pairs {
		p.Set(prm.Name, prm.Value)
	}
	return p
}

// ParamsOf is NewParams for caller-supplied pairs: a repeated name is an
// ormerr.ArgumentError.
func ParamsOf(pairs ...Param) (Params, error) {
	var p Params
	for _, prm := range pairs {
		if err := p.Add(prm.Name, prm.Value); err != nil {
			return Params{}, err
		}
	}
	return p, nil
}

// Add appends a parameter. The name must not be bound yet.
func (p *Params) Add(name string, value any) error {
	if _, ok := p.index[name]; ok {
		return &ormerr.ArgumentError{Name: "parameter", Value: name, Reason: "name is already bound"}
	}
	if p.index == nil {
		p.index = make(map[string]int)
	}
	p.index[name] = len(p.list)
	p.list = append(p.list, Param{Name: name, Value: value})
	return nil
}

// Set appends a parameter and panics when the name is already bound.
// Statement builders number their parameters, so a repeat is a bug.
func (p *Params) Set(name string, value any) {
	if err := p.Add(name, value); err != nil {
		panic(err)
	}
}

// Get returns the value bound to name.
func (p Params) Get(name string) (any, bool) {
	i, ok := p.index[name]
	if !ok {
		return nil, false
	}
	return p.list[i].Value, true
}

// Len returns the number of parameters.
func (p Params) Len() int { return len(p.list) }

// All returns the parameters in insertion order. The slice must not be
// modified.
func (p Params) All() []Param { return p.list }

// Names returns the parameter names in insertion order.
func (p Params) Names() []string {
	names := make([]string, len(p.list))
	for i, prm := range p.list {
		names[i] = prm.Name
	}
	return names
}

// Merge copies every parameter of o into p. The two sets must not share
// names.
func (p *Params) Merge(o Params) {
	for _, prm := range o.list {
		p.Set(prm.Name, prm.Value)
	}
}

// Clone returns an independent copy.
func (p Params) Clone() Params {
	var c Params
	c.Merge(p)
	return c
}

// Map returns the parameters as a map.
func (p Params) Map() map[string]any {
	m := make(map[string]any, len(p.list))
	for _, prm := range p.list {
		m[prm.Name] = prm.Value
	}
	return m
}

// Statement is finished SQL text plus its parameters, still written with
// the dialect's named placeholders.
type Statement struct {
	SQL    string
	Params Params
}

// String renders the statement and its parameters for display.
func (s Statement) String() string {
	if s.Params.Len() == 0 {
		return s.SQL
	}
	parts := make([]string, 0, s.Params.Len())
	for _, prm := range s.Params.All() {
		parts = append(parts, fmt.Sprintf("%s=%#v", prm.Name, prm.Value))
	}
	return s.SQL + " -- " + strings.Join(parts, ", ")
}
