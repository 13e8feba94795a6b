// Package realm wraps an isolated JavaScript execution context. Every value
// the completion engine builds or inspects comes from, and is interpreted
// against, the realm that owns it: primitives carry no usable prototype
// once they leave their realm, so lookups are anchored to the realm's own
// intrinsics.
//
// A Realm is not safe for concurrent use.
package realm

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/robertkrimen/otto"
)

// ErrInterrupted is returned when a run is stopped by its context.
var ErrInterrupted = errors.New("realm: execution interrupted")

// Realm is a sandboxed global object and its captured intrinsics.
type Realm struct {
	vm     *otto.Otto
	global otto.Value

	objectCtor  otto.Value
	stringCtor  otto.Value
	numberCtor  otto.Value
	booleanCtor otto.Value
	arrayCtor   otto.Value
	regexpCtor  otto.Value

	stringProto  otto.Value
	numberProto  otto.Value
	booleanProto otto.Value

	ownNames  otto.Value
	protoOf   otto.Value
	stringify otto.Value
}

// New creates a fresh realm with its own global object.
func New() (*Realm, error) {
	vm := otto.New()
	r := &Realm{vm: vm}

	global, err := vm.Run("this")
	if err != nil {
		return nil, fmt.Errorf("resolve realm global: %w", err)
	}
	r.global = global

	ctors := []struct {
		name string
		dst  *otto.Value
	}{
		{"Object", &r.objectCtor},
		{"String", &r.stringCtor},
		{"Number", &r.numberCtor},
		{"Boolean", &r.booleanCtor},
		{"Array", &r.arrayCtor},
		{"RegExp", &r.regexpCtor},
	}
	for _, c := range ctors {
		v, err := vm.Get(c.name)
		if err != nil {
			return nil, fmt.Errorf("resolve intrinsic %s: %w", c.name, err)
		}
		if !v.IsFunction() {
			return nil, fmt.Errorf("intrinsic %s is not a constructor", c.name)
		}
		*c.dst = v
	}

	protos := []struct {
		ctor otto.Value
		dst  *otto.Value
	}{
		{r.stringCtor, &r.stringProto},
		{r.numberCtor, &r.numberProto},
		{r.booleanCtor, &r.booleanProto},
	}
	for _, p := range protos {
		v, err := p.ctor.Object().Get("prototype")
		if err != nil {
			return nil, fmt.Errorf("resolve intrinsic prototype: %w", err)
		}
		*p.dst = v
	}

	if r.ownNames, err = r.objectCtor.Object().Get("getOwnPropertyNames"); err != nil {
		return nil, fmt.Errorf("resolve Object.getOwnPropertyNames: %w", err)
	}
	if r.protoOf, err = r.objectCtor.Object().Get("getPrototypeOf"); err != nil {
		return nil, fmt.Errorf("resolve Object.getPrototypeOf: %w", err)
	}
	if r.stringify, err = vm.Run("JSON.stringify"); err != nil {
		return nil, fmt.Errorf("resolve JSON.stringify: %w", err)
	}

	return r, nil
}

// VM exposes the underlying interpreter.
func (r *Realm) VM() *otto.Otto {
	return r.vm
}

// Global returns the realm's global object.
func (r *Realm) Global() otto.Value {
	return r.global
}

// MapToObject returns the object whose prototype chain describes v. The
// primitive string, number and boolean map to this realm's String, Number
// and Boolean prototypes; every other value is returned unchanged.
func (r *Realm) MapToObject(v otto.Value) otto.Value {
	if proto, ok := r.Prototype(primitiveName(v)); ok {
		return proto
	}
	return v
}

func primitiveName(v otto.Value) string {
	switch {
	case v.IsString():
		return "String"
	case v.IsNumber():
		return "Number"
	case v.IsBoolean():
		return "Boolean"
	}
	return ""
}

// Prototype returns the realm's intrinsic prototype for a primitive type
// name ("String", "Number" or "Boolean").
func (r *Realm) Prototype(name string) (otto.Value, bool) {
	switch name {
	case "String":
		return r.stringProto, true
	case "Number":
		return r.numberProto, true
	case "Boolean":
		return r.booleanProto, true
	}
	return otto.UndefinedValue(), false
}

// String calls the realm's String function on s.
func (r *Realm) String(s string) (otto.Value, error) {
	return r.call(r.stringCtor, s)
}

// Number calls the realm's Number function on s.
func (r *Realm) Number(s string) (otto.Value, error) {
	return r.call(r.numberCtor, s)
}

// Boolean calls the realm's Boolean function on s.
func (r *Realm) Boolean(s string) (otto.Value, error) {
	return r.call(r.booleanCtor, s)
}

// NewArray builds an empty array from the realm's Array constructor.
func (r *Realm) NewArray() (otto.Value, error) {
	return r.call(r.arrayCtor)
}

// NewRegExp builds a regular expression from the realm's RegExp constructor.
func (r *Realm) NewRegExp(pattern, flags string) (otto.Value, error) {
	return r.call(r.regexpCtor, pattern, flags)
}

// Get reads name from base. Base must be an object.
func (r *Realm) Get(base otto.Value, name string) (otto.Value, error) {
	if !base.IsObject() {
		return otto.NullValue(), fmt.Errorf("cannot read %q of non-object", name)
	}
	var out otto.Value
	err := guard(func() error {
		v, err := base.Object().Get(name)
		out = v
		return err
	})
	if err != nil {
		return otto.NullValue(), err
	}
	return out, nil
}

// OwnPropertyNames lists every own property name of obj, enumerable or not.
func (r *Realm) OwnPropertyNames(obj otto.Value) ([]string, error) {
	arr, err := r.call(r.ownNames, obj)
	if err != nil {
		return nil, err
	}
	return r.strings(arr)
}

// PrototypeOf returns the prototype of obj; null ends a chain.
func (r *Realm) PrototypeOf(obj otto.Value) (otto.Value, error) {
	return r.call(r.protoOf, obj)
}

// Set defines a global binding in the realm.
func (r *Realm) Set(name string, value interface{}) error {
	return guard(func() error {
		return r.vm.Set(name, value)
	})
}

// Object evaluates source, which must produce an object, in the realm.
func (r *Realm) Object(source string) (otto.Value, error) {
	var out otto.Value
	err := guard(func() error {
		obj, err := r.vm.Object(source)
		if err != nil {
			return err
		}
		out = obj.Value()
		return nil
	})
	return out, err
}

// Run executes source in the realm and returns its completion value.
func (r *Realm) Run(source string) (otto.Value, error) {
	var out otto.Value
	err := guard(func() error {
		v, err := r.vm.Run(source)
		out = v
		return err
	})
	return out, err
}

// RunContext is Run, interrupted when ctx ends.
func (r *Realm) RunContext(ctx context.Context, source string) (otto.Value, error) {
	if ctx == nil || ctx.Done() == nil {
		return r.Run(source)
	}

	interrupt := make(chan func(), 1)
	r.vm.Interrupt = interrupt
	stop := make(chan struct{})
	defer func() {
		close(stop)
		r.vm.Interrupt = nil
	}()

	go func() {
		select {
		case <-ctx.Done():
			interrupt <- func() { panic(ErrInterrupted) }
		case <-stop:
		}
	}()

	return r.Run(source)
}

func (r *Realm) call(fn otto.Value, args ...interface{}) (otto.Value, error) {
	var out otto.Value
	err := guard(func() error {
		v, err := fn.Call(otto.UndefinedValue(), args...)
		out = v
		return err
	})
	if err != nil {
		return otto.NullValue(), err
	}
	return out, nil
}

func (r *Realm) strings(arr otto.Value) ([]string, error) {
	if !arr.IsObject() {
		return nil, fmt.Errorf("expected array, got %s", arr.Class())
	}
	obj := arr.Object()
	lengthValue, err := obj.Get("length")
	if err != nil {
		return nil, err
	}
	length, err := lengthValue.ToInteger()
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, length)
	for i := int64(0); i < length; i++ {
		item, err := obj.Get(strconv.FormatInt(i, 10))
		if err != nil {
			return out, err
		}
		s, err := item.ToString()
		if err != nil {
			return out, err
		}
		out = append(out, s)
	}
	return out, nil
}

// guard turns interpreter panics into errors.
func guard(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if rec == ErrInterrupted {
				err = ErrInterrupted
				return
			}
			err = fmt.Errorf("realm: %v", rec)
		}
	}()
	return fn()
}
