package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	domainerrors "notebook/internal/core/errors"
	"notebook/internal/core/ports"
)

// Operation names accepted by the router.
const (
	OpEval      = "eval"
	OpComplete  = "complete"
	OpDescribe  = "describe"
	OpArguments = "arguments"
	OpHooks     = "hooks"
	OpHealth    = "health"
)

// OpHandler serves one operation from its raw JSON arguments.
type OpHandler func(ctx context.Context, args json.RawMessage) (any, error)

// Router maps operation names to handlers.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]OpHandler
	order    []string
}

type evalArgs struct {
	Source string `json:"source"`
}

// NewRouter registers the notebook operations backed by svc and health.
func NewRouter(svc ports.CompletionService, health *HealthService) (*Router, error) {
	r := &Router{handlers: make(map[string]OpHandler)}

	ops := []struct {
		name    string
		handler OpHandler
	}{
		{OpEval, func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args evalArgs
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			return svc.Eval(ctx, args.Source)
		}},
		{OpComplete, func(ctx context.Context, raw json.RawMessage) (any, error) {
			var req ports.CompleteRequest
			if err := decodeArgs(raw, &req); err != nil {
				return nil, err
			}
			return svc.Complete(ctx, req)
		}},
		{OpDescribe, func(ctx context.Context, raw json.RawMessage) (any, error) {
			var req ports.CompleteRequest
			if err := decodeArgs(raw, &req); err != nil {
				return nil, err
			}
			return svc.Describe(ctx, req)
		}},
		{OpArguments, func(ctx context.Context, raw json.RawMessage) (any, error) {
			var req ports.CompleteRequest
			if err := decodeArgs(raw, &req); err != nil {
				return nil, err
			}
			return svc.Arguments(ctx, req)
		}},
		{OpHooks, func(context.Context, json.RawMessage) (any, error) {
			return svc.Hooks(), nil
		}},
		{OpHealth, func(ctx context.Context, _ json.RawMessage) (any, error) {
			if health == nil {
				return nil, domainerrors.New(domainerrors.CodeUnavailable, "health service not configured")
			}
			return health.Check(ctx), nil
		}},
	}
	for _, op := range ops {
		if err := r.Register(op.name, op.handler); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds handler under op. Each op is registered once.
func (r *Router) Register(op string, handler OpHandler) error {
	if handler == nil {
		return fmt.Errorf("handler is required")
	}
	if op == "" {
		return fmt.Errorf("operation name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[op]; exists {
		return fmt.Errorf("operation already registered: %s", op)
	}
	r.handlers[op] = handler
	r.order = append(r.order, op)
	return nil
}

// Operations lists registered operations in registration order.
func (r *Router) Operations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Handle runs op. Names are matched case-insensitively.
func (r *Router) Handle(ctx context.Context, op string, args json.RawMessage) (any, error) {
	name := strings.ToLower(strings.TrimSpace(op))
	if name == "" {
		return nil, domainerrors.New(domainerrors.CodeValidationError, "op is required")
	}

	r.mu.RLock()
	handler, ok := r.handlers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, domainerrors.AddContext(
			domainerrors.New(domainerrors.CodeNotSupported, "unsupported operation"),
			domainerrors.CtxOperation, name,
		)
	}
	return handler(ctx, args)
}

func decodeArgs(raw json.RawMessage, target any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeValidationError, "invalid args")
	}
	return nil
}
