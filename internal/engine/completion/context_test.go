package completion

import (
	"testing"

	"notebook/internal/engine/token"

	"github.com/robertkrimen/otto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveContextLiterals(t *testing.T) {
	r := newRealm(t)
	global := r.Global()

	str := ResolveContext(global, token.Token{Type: token.String, String: `"abc"`}, r)
	require.True(t, str.IsString())
	assert.Equal(t, "abc", str.String())

	single := ResolveContext(global, token.Token{Type: token.String, String: `'x'`}, r)
	assert.Equal(t, "x", single.String())

	num := ResolveContext(global, token.Token{Type: token.Number, String: "42"}, r)
	require.True(t, num.IsNumber())
	n, err := num.ToInteger()
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	arr := ResolveContext(global, token.Token{Type: token.Array, String: "["}, r)
	assert.Equal(t, "Array", arr.Class())
}

func TestResolveContextRegexp(t *testing.T) {
	r := newRealm(t)

	re := ResolveContext(r.Global(), token.Token{Type: token.Regexp, String: `/ab\c/gi`}, r)
	require.Equal(t, "RegExp", re.Class())

	source, err := r.Get(re, "source")
	require.NoError(t, err)
	assert.Equal(t, `ab\\c`, source.String())

	global, err := r.Get(re, "global")
	require.NoError(t, err)
	isGlobal, err := global.ToBoolean()
	require.NoError(t, err)
	assert.True(t, isGlobal)

	ignoreCase, err := r.Get(re, "ignoreCase")
	require.NoError(t, err)
	isIgnoreCase, err := ignoreCase.ToBoolean()
	require.NoError(t, err)
	assert.True(t, isIgnoreCase)
}

func TestResolveContextMalformedRegexp(t *testing.T) {
	r := newRealm(t)
	v := ResolveContext(r.Global(), token.Token{Type: token.Regexp, String: "/unterminated"}, r)
	assert.True(t, v.IsNull())

	_, err := Resolve(r.Global(), token.Token{Type: token.Regexp, String: "nope"}, r)
	assert.Error(t, err)
}

func TestResolveContextAtoms(t *testing.T) {
	r := newRealm(t)
	global := r.Global()

	truthy := ResolveContext(global, token.Token{Type: token.Atom, String: "true"}, r)
	assert.True(t, truthy.IsBoolean())

	falsy := ResolveContext(global, token.Token{Type: token.Atom, String: "false"}, r)
	assert.True(t, falsy.IsBoolean())

	assert.True(t, ResolveContext(global, token.Token{Type: token.Atom, String: "null"}, r).IsNull())
	assert.True(t, ResolveContext(global, token.Token{Type: token.Atom, String: "undefined"}, r).IsUndefined())
	assert.True(t, ResolveContext(global, token.Token{Type: token.Atom, String: "Infinity"}, r).IsNull())
}

func TestResolveContextUnknownKind(t *testing.T) {
	r := newRealm(t)
	v := ResolveContext(r.Global(), token.Token{Type: "comment", String: "// hi"}, r)
	assert.True(t, v.IsNull())
}

func TestResolveContextVariableAndProperty(t *testing.T) {
	r := newRealm(t)
	_, err := r.Run(`var config = {server: {port: 8080}, name: "nb"};`)
	require.NoError(t, err)

	cfg := ResolveContext(r.Global(), token.Token{Type: token.Variable, String: "config"}, r)
	require.True(t, cfg.IsObject())

	server := ResolveContext(cfg, token.Token{Type: token.Property, String: "server"}, r)
	require.True(t, server.IsObject())
	port := ResolveContext(server, token.Token{Type: token.Property, String: "port"}, r)
	assert.True(t, port.IsNumber())

	name := ResolveContext(cfg, token.Token{Type: token.Property, String: "name"}, r)
	require.True(t, name.IsString())
	length := ResolveContext(name, token.Token{Type: token.Property, String: "length"}, r)
	assert.True(t, length.IsNumber(), "primitive context is read through its prototype")

	missing := ResolveContext(cfg, token.Token{Type: token.Property, String: "absent"}, r)
	assert.True(t, missing.IsUndefined())
}

func TestResolveContextNeverThrows(t *testing.T) {
	r := newRealm(t)

	fromNull := ResolveContext(otto.NullValue(), token.Token{Type: token.Property, String: "x"}, r)
	assert.True(t, fromNull.IsNull())

	fromUndefined := ResolveContext(otto.UndefinedValue(), token.Token{Type: token.Variable, String: "x"}, r)
	assert.True(t, fromUndefined.IsNull())

	obj, err := r.Object(`(function () {
		var o = {};
		Object.defineProperty(o, "boom", {get: function () { throw new Error("nope"); }});
		return o;
	})()`)
	require.NoError(t, err)
	thrown := ResolveContext(obj, token.Token{Type: token.Property, String: "boom"}, r)
	assert.True(t, thrown.IsNull())

	assert.True(t, ResolveContext(r.Global(), token.Token{Type: token.Array}, nil).IsNull())
}

func TestUnquote(t *testing.T) {
	assert.Equal(t, "abc", unquote(`"abc"`))
	assert.Equal(t, "", unquote(`""`))
	assert.Equal(t, "", unquote(`"`))
	assert.Equal(t, "", unquote(""))
}
