// Package middleware sequences named hook handlers. Plugins registered with
// Use run in registration order ahead of the single authoritative handler
// registered with Core. Each handler receives the hook's data bag and two
// continuations: next passes control down the stack, done ends the hook.
package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	domainerrors "notebook/internal/core/errors"
	"notebook/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Next passes control to the next handler. A non-nil error short-circuits
// the stack.
type Next func(err error, value any)

// Done ends the hook with err or value.
type Done func(err error, value any)

// Handler serves one hook. It may call next or done synchronously or from
// another goroutine, but must eventually call exactly one of them.
type Handler func(ctx context.Context, data any, next Next, done Done)

type plugin struct {
	id      uint64
	handler Handler
}

// Dispatcher holds the handler stacks of every named hook.
type Dispatcher struct {
	mu      sync.RWMutex
	core    map[string]Handler
	plugins map[string][]plugin
	order   []string
	seq     uint64
}

// New returns an empty Dispatcher.
func New() *Dispatcher {
	return &Dispatcher{
		core:    make(map[string]Handler),
		plugins: make(map[string][]plugin),
		order:   make([]string, 0),
	}
}

// Core registers the authoritative handler for name.
func (d *Dispatcher) Core(name string, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("handler is required")
	}
	if name == "" {
		return fmt.Errorf("hook name is required")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.core[name]; exists {
		return fmt.Errorf("core handler already registered: %s", name)
	}
	d.core[name] = handler
	d.remember(name)
	return nil
}

// Use layers a plugin in front of the core handler for name. The returned
// func detaches it again.
func (d *Dispatcher) Use(name string, handler Handler) (func(), error) {
	if handler == nil {
		return nil, fmt.Errorf("handler is required")
	}
	if name == "" {
		return nil, fmt.Errorf("hook name is required")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	id := d.seq
	d.plugins[name] = append(d.plugins[name], plugin{id: id, handler: handler})
	d.remember(name)

	return func() { d.detach(name, id) }, nil
}

// Hooks lists registered hook names in registration order.
func (d *Dispatcher) Hooks() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

type outcome struct {
	value any
	err   error
}

// Trigger runs the handler stack for name with data and waits for it to
// finish or for ctx to end.
func (d *Dispatcher) Trigger(ctx context.Context, name string, data any) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	stack := d.stack(name)
	if len(stack) == 0 {
		return nil, domainerrors.AddContext(
			domainerrors.New(domainerrors.CodeNotFound, "no handlers registered"),
			domainerrors.CtxHook, name,
		)
	}

	ctx, span := observability.Tracer.Start(ctx, "middleware.Trigger", trace.WithAttributes(attribute.String("hook", name)))
	defer span.End()
	started := time.Now()

	result := make(chan outcome, 1)
	var finished sync.Once
	finish := func(err error, value any) {
		finished.Do(func() {
			result <- outcome{value: value, err: err}
		})
	}

	var step func(i int, value any)
	step = func(i int, value any) {
		if i >= len(stack) {
			finish(nil, value)
			return
		}

		var advanced sync.Once
		next := func(err error, value any) {
			advanced.Do(func() {
				if err != nil {
					finish(err, value)
					return
				}
				step(i+1, value)
			})
		}

		defer func() {
			if rec := recover(); rec != nil {
				finish(domainerrors.AddContext(
					domainerrors.Newf(domainerrors.CodeInternal, "handler panicked: %v", rec),
					domainerrors.CtxHook, name,
				), nil)
			}
		}()
		stack[i](ctx, data, next, finish)
	}
	step(0, nil)

	var out outcome
	select {
	case out = <-result:
	case <-ctx.Done():
		out = outcome{err: ctx.Err()}
	}

	status := "ok"
	if out.err != nil {
		status = "error"
		span.RecordError(out.err)
		span.SetStatus(codes.Error, out.err.Error())
	}
	observability.HookInvocationsTotal.WithLabelValues(name, status).Inc()
	observability.HookDuration.WithLabelValues(name).Observe(time.Since(started).Seconds())

	return out.value, out.err
}

func (d *Dispatcher) stack(name string) []Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()

	plugins := d.plugins[name]
	out := make([]Handler, 0, len(plugins)+1)
	for _, p := range plugins {
		out = append(out, p.handler)
	}
	if core, ok := d.core[name]; ok {
		out = append(out, core)
	}
	return out
}

func (d *Dispatcher) detach(name string, id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	plugins := d.plugins[name]
	for i, p := range plugins {
		if p.id == id {
			d.plugins[name] = append(plugins[:i:i], plugins[i+1:]...)
			return
		}
	}
}

func (d *Dispatcher) remember(name string) {
	for _, existing := range d.order {
		if existing == name {
			return
		}
	}
	d.order = append(d.order, name)
}
