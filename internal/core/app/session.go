package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"notebook/internal/core/config"
	domainerrors "notebook/internal/core/errors"
	"notebook/internal/core/ports"
	"notebook/internal/engine/completion"
	"notebook/internal/engine/hooks"
	"notebook/internal/engine/middleware"
	"notebook/internal/engine/realm"
	"notebook/internal/engine/token"
	"notebook/internal/shared/observability"

	"github.com/gobwas/glob"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Session owns one notebook realm and the hooks that complete against it.
// Calls are serialized; the realm is not safe for concurrent use.
type Session struct {
	ID      string
	Started time.Time

	logger     *slog.Logger
	realm      *realm.Realm
	dispatcher *middleware.Dispatcher
	plugin     *hooks.Plugin

	mu     sync.Mutex
	cfg    *config.Config
	hidden []glob.Glob
}

var _ ports.CompletionService = (*Session)(nil)

// NewSession builds a realm from cfg and attaches the completion hooks.
func NewSession(cfg *config.Config, logger *slog.Logger) (*Session, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	r, err := realm.New()
	if err != nil {
		return nil, fmt.Errorf("create realm: %w", err)
	}

	hidden, err := compileHidden(cfg.Completion.Hidden)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	s := &Session{
		ID:         id,
		Started:    time.Now().UTC(),
		logger:     logger.With("session", id),
		realm:      r,
		dispatcher: middleware.New(),
		cfg:        cfg,
		hidden:     hidden,
	}
	s.plugin = hooks.New(cfg.Completion.MaxPrototypeDepth, s.logger)
	if err := s.plugin.Attach(s.dispatcher); err != nil {
		return nil, fmt.Errorf("attach completion hooks: %w", err)
	}

	for name, value := range cfg.Realm.Aliases {
		if err := r.Set(name, value); err != nil {
			return nil, fmt.Errorf("set alias %s: %w", name, err)
		}
	}
	for _, path := range config.PreloadPaths(cfg) {
		if err := s.preload(path); err != nil {
			return nil, err
		}
	}

	s.logger.Info("session started", "aliases", len(cfg.Realm.Aliases), "preload", len(cfg.Realm.Preload))
	return s, nil
}

func (s *Session) preload(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return domainerrors.AddContext(
			domainerrors.Wrap(err, domainerrors.CodeNotFound, "read preload script"),
			domainerrors.CtxPath, path,
		)
	}
	if _, err := s.realm.Run(string(src)); err != nil {
		return domainerrors.AddContext(
			domainerrors.Wrap(err, domainerrors.CodeValidationError, "run preload script"),
			domainerrors.CtxPath, path,
		)
	}
	s.logger.Debug("preloaded script", "path", path)
	return nil
}

// RunPreload re-runs the given preload scripts in the live realm. Every
// path is attempted; the first failure is returned.
func (s *Session) RunPreload(paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var first error
	for _, path := range paths {
		if err := s.preload(path); err != nil {
			s.logger.Warn("preload script failed", "path", path, "error", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// Dispatcher exposes the hook dispatcher so callers can layer plugins.
func (s *Session) Dispatcher() *middleware.Dispatcher {
	return s.dispatcher
}

// Hooks lists the registered hook names.
func (s *Session) Hooks() []string {
	return s.dispatcher.Hooks()
}

// Eval runs source in the realm. Script errors are reported in the result.
func (s *Session) Eval(ctx context.Context, source string) (ports.EvalResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "Session.Eval")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.realm.RunContext(ctx, source)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			observability.RealmEvalTotal.WithLabelValues("interrupted").Inc()
			span.RecordError(ctxErr)
			return ports.EvalResult{}, domainerrors.Wrap(ctxErr, domainerrors.CodeUnavailable, "evaluation interrupted")
		}
		observability.RealmEvalTotal.WithLabelValues("error").Inc()
		return ports.EvalResult{Result: err.Error(), Type: "error", IsError: true}, nil
	}

	observability.RealmEvalTotal.WithLabelValues("ok").Inc()
	return ports.EvalResult{Result: s.realm.Inspect(v), Type: s.realm.TypeOf(v)}, nil
}

// Complete walks every token but the last through the context hook and
// collects the candidates for the last one.
func (s *Session) Complete(ctx context.Context, req ports.CompleteRequest) ([]ports.Suggestion, error) {
	ctx, span := observability.Tracer.Start(ctx, "Session.Complete", trace.WithAttributes(attribute.Int("tokens", len(req.Tokens))))
	defer span.End()
	started := time.Now()

	if len(req.Tokens) == 0 {
		return nil, domainerrors.New(domainerrors.CodeValidationError, "at least one token is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := s.complete(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	observability.CompletionSuggestions.Observe(float64(len(out)))
	observability.CompletionDuration.Observe(time.Since(started).Seconds())
	return out, nil
}

func (s *Session) complete(ctx context.Context, req ports.CompleteRequest) ([]ports.Suggestion, error) {
	last := req.Tokens[len(req.Tokens)-1]
	if last.State == nil {
		last.State = req.State
	}

	data, ok, err := s.walk(ctx, req.Tokens[:len(req.Tokens)-1])
	if err != nil {
		return nil, err
	}
	if !ok {
		return []ports.Suggestion{}, nil
	}

	hook := hooks.Variable
	switch last.Type {
	case token.Property:
		hook = hooks.Property
	case token.Variable:
	default:
		last.String = ""
	}
	data.Token = last
	data.Results = completion.Names{}
	if _, err := s.dispatcher.Trigger(ctx, hook, data); err != nil {
		return nil, err
	}

	scope := completion.Names{}
	if hook == hooks.Variable {
		for _, level := range completion.FlattenState(last.State) {
			scope.Merge(level)
		}
	}

	out := make([]ports.Suggestion, 0, len(data.Results))
	for _, name := range data.Results.Sorted() {
		if s.isHidden(name) {
			continue
		}
		keep, err := s.dispatcher.Trigger(ctx, hooks.Filter, &hooks.FilterRequest{
			Token:  last,
			Result: hooks.Result{Value: name},
		})
		if err != nil {
			return nil, err
		}
		if matched, _ := keep.(bool); !matched {
			continue
		}
		out = append(out, ports.Suggestion{Name: name, Source: classify(name, hook, scope)})
	}
	return out, nil
}

// walk feeds tokens through the context hook starting at the global
// object. ok is false once the context becomes null or undefined.
func (s *Session) walk(ctx context.Context, tokens []token.Token) (*hooks.Request, bool, error) {
	data := &hooks.Request{Context: s.realm.Global(), Global: s.realm}
	for _, tok := range tokens {
		data.Token = tok
		if _, err := s.dispatcher.Trigger(ctx, hooks.Context, data); err != nil {
			return nil, false, err
		}
		if data.Context.IsNull() || data.Context.IsUndefined() {
			s.logger.Debug("completion path ended", "type", tok.Type, "token", tok.String)
			return data, false, nil
		}
	}
	return data, true, nil
}

func classify(name, hook string, scope completion.Names) string {
	switch {
	case hook == hooks.Property:
		return ports.SourceRuntime
	case scope[name]:
		return ports.SourceScope
	case completion.IsKeyword(name):
		return ports.SourceKeyword
	default:
		return ports.SourceRuntime
	}
}

// Describe runs the describe hook on the value the tokens lead to.
func (s *Session) Describe(ctx context.Context, req ports.CompleteRequest) (map[string]any, error) {
	out, err := s.triggerAt(ctx, hooks.Describe, req)
	if err != nil {
		return nil, err
	}
	desc, _ := out.(map[string]any)
	if desc == nil {
		desc = map[string]any{}
	}
	return desc, nil
}

// Arguments runs the arguments hook on the value the tokens lead to.
func (s *Session) Arguments(ctx context.Context, req ports.CompleteRequest) ([]string, error) {
	out, err := s.triggerAt(ctx, hooks.Arguments, req)
	if err != nil {
		return nil, err
	}
	args, _ := out.([]string)
	if args == nil {
		args = []string{}
	}
	return args, nil
}

func (s *Session) triggerAt(ctx context.Context, hook string, req ports.CompleteRequest) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, _, err := s.walk(ctx, req.Tokens)
	if err != nil {
		return nil, err
	}
	if n := len(req.Tokens); n > 0 {
		data.Token = req.Tokens[n-1]
	}
	if data.Token.State == nil {
		data.Token.State = req.State
	}
	return s.dispatcher.Trigger(ctx, hook, data)
}

// Reload applies cfg without discarding the realm. Aliases and preload
// scripts only take effect in new sessions.
func (s *Session) Reload(cfg *config.Config) error {
	if cfg == nil {
		return domainerrors.New(domainerrors.CodeValidationError, "config is required")
	}
	hidden, err := compileHidden(cfg.Completion.Hidden)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	s.hidden = hidden
	s.plugin.SetMaxPrototypeDepth(cfg.Completion.MaxPrototypeDepth)

	s.logger.Info("session config reloaded", "hidden", len(hidden), "max_prototype_depth", cfg.Completion.MaxPrototypeDepth)
	return nil
}

// Config returns the configuration currently applied.
func (s *Session) Config() *config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

func (s *Session) isHidden(name string) bool {
	for _, g := range s.hidden {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func compileHidden(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeValidationError, fmt.Sprintf("invalid hidden pattern %q", p))
		}
		out = append(out, g)
	}
	return out, nil
}
