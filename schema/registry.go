package schema

import (
	"fmt"
	"reflect"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/satishbabariya/pulseorm/ormerr"
)

// Registry caches descriptors per entity type for the life of the process.
// Lookups are lock-free after the first build; concurrent first builds for
// the same type are coalesced so each type is built exactly once.
type Registry struct {
	descriptors sync.Map // reflect.Type -> any(*Descriptor[T])
	sources     sync.Map // reflect.Type -> any(Mapping[T])
	group       singleflight.Group
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry used by For.
func Default() *Registry {
	return defaultRegistry
}

// Register supplies the mapping for T explicitly, for types that do not
// implement Mapper. It fails once T has been resolved.
func Register[T any](r *Registry, m Mapping[T]) error {
	typ := typeOf[T]()
	if _, built := r.descriptors.Load(typ); built {
		return &ormerr.MappingError{Entity: typ.String(), Reason: "already resolved"}
	}
	r.sources.Store(typ, m)
	return nil
}

// Resolve returns the descriptor for T, building and caching it on first
// use.
func Resolve[T any](r *Registry) (*Descriptor[T], error) {
	typ := typeOf[T]()
	if d, ok := r.descriptors.Load(typ); ok {
		return d.(*Descriptor[T]), nil
	}

	v, err, _ := r.group.Do(typeKey(typ), func() (any, error) {
		if d, ok := r.descriptors.Load(typ); ok {
			return d, nil
		}
		m, err := mappingFor[T](r, typ)
		if err != nil {
			return nil, err
		}
		d, err := Build(m)
		if err != nil {
			return nil, err
		}
		actual, _ := r.descriptors.LoadOrStore(typ, d)
		return actual, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Descriptor[T]), nil
}

// For resolves T against the default registry.
func For[T any]() (*Descriptor[T], error) {
	return Resolve[T](defaultRegistry)
}

// MustFor is like For but panics on a mapping error. Intended for package
// level variables.
func MustFor[T any]() *Descriptor[T] {
	d, err := For[T]()
	if err != nil {
		panic(err)
	}
	return d
}

func mappingFor[T any](r *Registry, typ reflect.Type) (Mapping[T], error) {
	if m, ok := r.sources.Load(typ); ok {
		return m.(Mapping[T]), nil
	}
	if mapper, ok := any(new(T)).(Mapper[T]); ok {
		return mapper.Mapping(), nil
	}
	return Mapping[T]{}, &ormerr.MappingError{
		Entity: typ.String(),
		Reason: "no mapping registered and type does not implement schema.Mapper",
	}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func typeKey(typ reflect.Type) string {
	return fmt.Sprintf("%s|%s", typ.PkgPath(), typ.String())
}
