package completion

import (
	"fmt"
	"strings"

	"notebook/internal/engine/realm"
	"notebook/internal/engine/token"

	"github.com/robertkrimen/otto"
)

// ResolveContext computes the evaluation context that follows tok, given
// the current context. Values are built from r's constructors. Any input
// that cannot be resolved yields null.
func ResolveContext(current otto.Value, tok token.Token, r *realm.Realm) otto.Value {
	next, err := Resolve(current, tok, r)
	if err != nil {
		return otto.NullValue()
	}
	return next
}

// Resolve is ResolveContext with the failure reason kept.
func Resolve(current otto.Value, tok token.Token, r *realm.Realm) (otto.Value, error) {
	if r == nil {
		return otto.NullValue(), fmt.Errorf("no realm")
	}

	switch tok.Type {
	case token.Variable, token.Property:
		return r.Get(r.MapToObject(current), tok.String)
	case token.Array:
		return r.NewArray()
	case token.String:
		return r.String(unquote(tok.String))
	case token.Number:
		return r.Number(tok.String)
	case token.Regexp:
		pattern, flags, err := splitRegexp(tok.String)
		if err != nil {
			return otto.NullValue(), err
		}
		return r.NewRegExp(pattern, flags)
	case token.Atom:
		switch tok.String {
		case "true", "false":
			return r.Boolean(tok.String)
		case "undefined":
			return otto.UndefinedValue(), nil
		}
		return otto.NullValue(), nil
	}
	return otto.NullValue(), nil
}

// unquote strips the first and last character of a string literal.
func unquote(s string) string {
	if len(s) < 2 {
		return ""
	}
	return s[1 : len(s)-1]
}

// splitRegexp reads "/pattern/flags". The first backslash of the pattern is
// escaped so it survives being passed back through the RegExp constructor.
func splitRegexp(literal string) (pattern, flags string, err error) {
	parts := strings.Split(literal, "/")
	if len(parts) < 3 {
		return "", "", fmt.Errorf("malformed regexp literal %q", literal)
	}
	return strings.Replace(parts[1], `\`, `\\`, 1), parts[2], nil
}
