// Package transport serves notebook operations as line-delimited JSON.
package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"notebook/internal/core/config"
	domainerrors "notebook/internal/core/errors"
	"notebook/internal/shared/observability"
	"notebook/internal/shared/util"

	"github.com/google/uuid"
)

const maxLineBytes = 4 << 20

// Handler serves one decoded request.
type Handler func(ctx context.Context, op string, args json.RawMessage) (any, error)

// Stdio serves requests read line by line from an input stream and writes
// one JSON response line per request.
type Stdio struct {
	in      io.Reader
	out     io.Writer
	timeout time.Duration
	limiter *util.Limiter
	logger  *slog.Logger

	mu      sync.Mutex
	running bool
}

type request struct {
	ID   any             `json:"id,omitempty"`
	Op   string          `json:"op"`
	Args json.RawMessage `json:"args,omitempty"`
}

type response struct {
	ID     any        `json:"id,omitempty"`
	OK     bool       `json:"ok"`
	Result any        `json:"result,omitempty"`
	Error  *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    domainerrors.ErrorCode `json:"code"`
	Message string                 `json:"message"`
}

// NewStdio reads requests from in and writes responses to out.
func NewStdio(in io.Reader, out io.Writer, cfg config.Server, logger *slog.Logger) *Stdio {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Stdio{
		in:      in,
		out:     out,
		timeout: cfg.RequestTimeout,
		logger:  logger,
	}
	if cfg.RateLimit.Enabled {
		s.limiter = util.NewPerMinuteLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	}
	return s
}

// Serve answers requests until the input ends or ctx is cancelled. A
// clean end of input returns nil. Cancellation returns at once, even while
// the input is idle.
func (s *Stdio) Serve(ctx context.Context, handler Handler) error {
	if handler == nil {
		return domainerrors.New(domainerrors.CodeValidationError, "stdio handler is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return domainerrors.New(domainerrors.CodeUnavailable, "stdio transport already running")
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()
	lines, readErr := s.readLines(readCtx)
	writer := bufio.NewWriter(s.out)
	encoder := json.NewEncoder(writer)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case next, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return err
				}
				return ctx.Err()
			}
			line = next
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		resp := s.handleLine(ctx, handler, line)
		if err := encoder.Encode(resp); err != nil {
			return err
		}
		if err := writer.Flush(); err != nil {
			return err
		}
	}
}

// readLines scans the input on its own goroutine so a blocked read never
// holds up cancellation. The error channel yields the scan error once the
// line channel is closed.
func (s *Stdio) readLines(ctx context.Context) (<-chan string, <-chan error) {
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.in)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				readErr <- nil
				return
			}
		}
		readErr <- scanner.Err()
	}()

	return lines, readErr
}

func (s *Stdio) handleLine(ctx context.Context, handler Handler, line string) response {
	var req request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		observability.TransportRequestsTotal.WithLabelValues("invalid").Inc()
		return failure(nil, domainerrors.Wrap(err, domainerrors.CodeValidationError, "malformed request"))
	}
	if req.ID == nil {
		req.ID = uuid.NewString()
	}
	op := strings.ToLower(strings.TrimSpace(req.Op))
	observability.TransportRequestsTotal.WithLabelValues(op).Inc()

	if !s.limiter.Allow(1) {
		observability.TransportRateLimitedTotal.Inc()
		s.logger.Warn("request rate limited", "id", req.ID, "op", op)
		return failure(req.ID, domainerrors.New(domainerrors.CodeRateLimited, "rate limit exceeded"))
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	result, err := handler(ctx, op, req.Args)
	if err != nil {
		s.logger.Debug("request failed", "id", req.ID, "op", op, "error", err)
		return failure(req.ID, err)
	}
	s.logger.Debug("request served", "id", req.ID, "op", op, "duration", time.Since(started))
	return response{ID: req.ID, OK: true, Result: result}
}

func failure(id any, err error) response {
	return response{ID: id, OK: false, Error: toErrorBody(err)}
}

func toErrorBody(err error) *errorBody {
	if errors.Is(err, context.DeadlineExceeded) {
		return &errorBody{Code: domainerrors.CodeUnavailable, Message: "request timed out"}
	}
	return &errorBody{Code: domainerrors.CodeOf(err), Message: err.Error()}
}
