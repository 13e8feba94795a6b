package ports

import (
	"context"

	"notebook/internal/engine/token"
)

// Suggestion sources.
const (
	SourceScope   = "scope"
	SourceKeyword = "keyword"
	SourceRuntime = "runtime"
)

// CompleteRequest is the token path typed so far. The last token is the
// one being completed; State is used when that token carries none.
type CompleteRequest struct {
	Tokens []token.Token `json:"tokens"`
	State  *token.State  `json:"state,omitempty"`
}

// Suggestion is one completion candidate and where it came from.
type Suggestion struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

// EvalResult is the outcome of running one notebook cell.
type EvalResult struct {
	Result  string `json:"result"`
	Type    string `json:"type"`
	IsError bool   `json:"isError"`
}

// CompletionService is the surface the transport drives.
type CompletionService interface {
	Eval(ctx context.Context, source string) (EvalResult, error)
	Complete(ctx context.Context, req CompleteRequest) ([]Suggestion, error)
	Describe(ctx context.Context, req CompleteRequest) (map[string]any, error)
	Arguments(ctx context.Context, req CompleteRequest) ([]string, error)
	Hooks() []string
}
