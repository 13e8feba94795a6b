// Package hooks attaches the completion engine to the middleware
// dispatcher. Every handler here is authoritative for its hook: it finishes
// with done and never defers to next.
package hooks

import (
	"context"
	"log/slog"
	"sync/atomic"

	domainerrors "notebook/internal/core/errors"
	"notebook/internal/engine/completion"
	"notebook/internal/engine/middleware"
	"notebook/internal/engine/realm"
	"notebook/internal/engine/token"

	"github.com/robertkrimen/otto"
)

// Hook names.
const (
	Variable  = "completion:variable"
	Property  = "completion:property"
	Context   = "completion:context"
	Filter    = "completion:filter"
	Arguments = "completion:arguments"
	Function  = "completion:function"
	Describe  = "completion:describe"
)

// Request is the data bag shared by the variable, property, context,
// arguments, function and describe hooks.
type Request struct {
	Token   token.Token
	Context otto.Value
	Global  *realm.Realm
	Results completion.Names
}

// Result is one candidate suggestion.
type Result struct {
	Value string
}

// FilterRequest is the data bag of the filter hook.
type FilterRequest struct {
	Token  token.Token
	Result Result
}

// Plugin holds the settings shared by the completion hook handlers.
type Plugin struct {
	maxDepth atomic.Int64
	logger   *slog.Logger
}

// New returns a Plugin; a depth of zero or less selects the default.
func New(maxPrototypeDepth int, logger *slog.Logger) *Plugin {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Plugin{logger: logger}
	p.SetMaxPrototypeDepth(maxPrototypeDepth)
	return p
}

// SetMaxPrototypeDepth changes the prototype walk limit for later requests.
func (p *Plugin) SetMaxPrototypeDepth(depth int) {
	if depth <= 0 {
		depth = completion.DefaultMaxPrototypeDepth
	}
	p.maxDepth.Store(int64(depth))
}

// Attach registers every completion hook as a core handler on d.
func (p *Plugin) Attach(d *middleware.Dispatcher) error {
	handlers := []struct {
		name    string
		handler middleware.Handler
	}{
		{Variable, p.variable},
		{Property, p.property},
		{Context, p.context},
		{Filter, p.filter},
		{Arguments, p.arguments},
		{Function, p.function},
		{Describe, p.describe},
	}
	for _, h := range handlers {
		if err := d.Core(h.name, h.handler); err != nil {
			return err
		}
	}
	return nil
}

func (p *Plugin) enumerate(value otto.Value, r *realm.Realm) completion.Names {
	return completion.Enumerator{MaxDepth: int(p.maxDepth.Load())}.Enumerate(value, r)
}

// variable merges every scope source, the reserved keywords and the
// context's property names, keeping the first entry for a name.
func (p *Plugin) variable(_ context.Context, data any, _ middleware.Next, done middleware.Done) {
	req, ok := data.(*Request)
	if !ok {
		done(badData(Variable, data), nil)
		return
	}
	if req.Results == nil {
		req.Results = completion.Names{}
	}

	for _, level := range completion.FlattenState(req.Token.State) {
		req.Results.Merge(level)
	}
	req.Results.Merge(completion.Keywords())
	req.Results.Merge(p.enumerate(req.Context, req.Global))

	done(nil, nil)
}

func (p *Plugin) property(_ context.Context, data any, _ middleware.Next, done middleware.Done) {
	req, ok := data.(*Request)
	if !ok {
		done(badData(Property, data), nil)
		return
	}
	if req.Results == nil {
		req.Results = completion.Names{}
	}

	req.Results.Merge(p.enumerate(req.Context, req.Global))
	done(nil, nil)
}

// context moves the lookup context past the token just typed. Values are
// rebuilt from the request's realm so later hooks keep seeing realm-native
// objects.
func (p *Plugin) context(_ context.Context, data any, _ middleware.Next, done middleware.Done) {
	req, ok := data.(*Request)
	if !ok {
		done(badData(Context, data), nil)
		return
	}

	next, err := completion.Resolve(req.Context, req.Token, req.Global)
	if err != nil {
		p.logger.Debug("completion context unresolved", "type", req.Token.Type, "token", req.Token.String, "error", err)
		next = otto.NullValue()
	}
	req.Context = next
	done(nil, nil)
}

func (p *Plugin) filter(_ context.Context, data any, _ middleware.Next, done middleware.Done) {
	req, ok := data.(*FilterRequest)
	if !ok {
		done(badData(Filter, data), nil)
		return
	}
	done(nil, completion.Matches(req.Result.Value, req.Token.String))
}

func (p *Plugin) arguments(_ context.Context, _ any, _ middleware.Next, done middleware.Done) {
	done(nil, []string{})
}

func (p *Plugin) function(_ context.Context, _ any, _ middleware.Next, done middleware.Done) {
	done(nil, nil)
}

func (p *Plugin) describe(_ context.Context, _ any, _ middleware.Next, done middleware.Done) {
	done(nil, map[string]any{})
}

func badData(hook string, data any) error {
	return domainerrors.AddContext(
		domainerrors.Newf(domainerrors.CodeValidationError, "unexpected data %T", data),
		domainerrors.CtxHook, hook,
	)
}
