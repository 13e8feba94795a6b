// Package completion computes identifier and property suggestions for a
// token typed in the notebook editor, and re-resolves the evaluation
// context as a dotted expression grows.
package completion

import (
	"regexp"
	"sort"
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_$][0-9a-zA-Z_$]*$`)

// IsValidVariableName reports whether name can be written as a bare
// identifier or an unquoted property accessor.
func IsValidVariableName(name string) bool {
	return identifierPattern.MatchString(name)
}

// Names is a presence set of suggestion names.
type Names map[string]bool

// Add inserts name if it is a valid identifier and not already present.
func (n Names) Add(name string) {
	if _, ok := n[name]; ok {
		return
	}
	if IsValidVariableName(name) {
		n[name] = true
	}
}

// Merge adds every name of other that n does not already hold. Existing
// entries are never replaced or removed.
func (n Names) Merge(other Names) {
	for name := range other {
		if _, ok := n[name]; !ok {
			n[name] = true
		}
	}
}

// Sorted returns the names in lexical order.
func (n Names) Sorted() []string {
	out := make([]string, 0, len(n))
	for name := range n {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// reservedWords is the ES5 reserved keyword list offered as suggestions.
var reservedWords = []string{
	"break", "case", "catch", "continue", "debugger", "default",
	"delete", "do", "else", "false", "finally", "for", "function", "if", "in", "instanceof",
	"new", "null", "return", "switch", "throw", "true", "try", "typeof", "var", "void", "while",
	"with",
}

// Keywords returns a fresh set of the reserved keywords.
func Keywords() Names {
	out := make(Names, len(reservedWords))
	for _, kw := range reservedWords {
		out[kw] = true
	}
	return out
}

// IsKeyword reports whether name is a reserved keyword.
func IsKeyword(name string) bool {
	for _, kw := range reservedWords {
		if kw == name {
			return true
		}
	}
	return false
}
