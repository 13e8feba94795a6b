package completion

import (
	"notebook/internal/engine/realm"

	"github.com/robertkrimen/otto"
)

// DefaultMaxPrototypeDepth bounds prototype walks when no limit is set.
const DefaultMaxPrototypeDepth = 64

// Enumerator collects property names across a prototype chain.
type Enumerator struct {
	// MaxDepth is the number of objects visited before the walk stops.
	MaxDepth int
}

// PropertyNames enumerates value with the default depth limit.
func PropertyNames(value otto.Value, r *realm.Realm) Names {
	return Enumerator{}.Enumerate(value, r)
}

// Enumerate returns every own property name, enumerable or not, found on
// value and its prototypes that is a valid bare identifier. Primitives are
// anchored to r's prototypes first; a non-object yields an empty set. A
// failing step ends the walk with whatever was gathered.
func (e Enumerator) Enumerate(value otto.Value, r *realm.Realm) Names {
	out := Names{}
	if r == nil {
		return out
	}

	limit := e.MaxDepth
	if limit <= 0 {
		limit = DefaultMaxPrototypeDepth
	}

	obj := r.MapToObject(value)
	for depth := 0; depth < limit && obj.IsObject(); depth++ {
		names, err := r.OwnPropertyNames(obj)
		for _, name := range names {
			out.Add(name)
		}
		if err != nil {
			break
		}

		obj, err = r.PrototypeOf(obj)
		if err != nil {
			break
		}
	}
	return out
}
