// Package token holds the shapes the editor's tokenizer hands to the
// completion engine: the token under the cursor and the lexical scope
// chains visible at that position.
package token

// Kind is the tokenizer's classification of a token.
type Kind string

const (
	Variable Kind = "variable"
	Property Kind = "property"
	Array    Kind = "array"
	String   Kind = "string"
	Regexp   Kind = "string-2"
	Number   Kind = "number"
	Atom     Kind = "atom"
)

// Token is a lexical unit under (or before) the cursor.
type Token struct {
	Type   Kind   `json:"type"`
	String string `json:"string"`
	State  *State `json:"state,omitempty"`
}

// State is the tokenizer state attached to a token.
type State struct {
	LocalVars  *ScopeFrame   `json:"localVars,omitempty"`
	Context    *ContextBlock `json:"context,omitempty"`
	GlobalVars *ScopeFrame   `json:"globalVars,omitempty"`
}

// ScopeFrame is one binding in a singly linked scope chain. An empty Name
// means the frame carries no binding.
type ScopeFrame struct {
	Name string      `json:"name,omitempty"`
	Next *ScopeFrame `json:"next,omitempty"`
}

// ContextBlock is one nested block level; Prev points outward.
type ContextBlock struct {
	Vars *ScopeFrame   `json:"vars,omitempty"`
	Prev *ContextBlock `json:"prev,omitempty"`
}

// Frames builds a chain from names, innermost first.
func Frames(names ...string) *ScopeFrame {
	var head *ScopeFrame
	for i := len(names) - 1; i >= 0; i-- {
		head = &ScopeFrame{Name: names[i], Next: head}
	}
	return head
}

// Blocks builds a context chain from scope chains, innermost first.
func Blocks(vars ...*ScopeFrame) *ContextBlock {
	var head *ContextBlock
	for i := len(vars) - 1; i >= 0; i-- {
		head = &ContextBlock{Vars: vars[i], Prev: head}
	}
	return head
}
