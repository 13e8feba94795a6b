package hooks

import (
	"context"
	"testing"

	domainerrors "notebook/internal/core/errors"
	"notebook/internal/engine/completion"
	"notebook/internal/engine/middleware"
	"notebook/internal/engine/realm"
	"notebook/internal/engine/token"

	"github.com/robertkrimen/otto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*middleware.Dispatcher, *realm.Realm) {
	t.Helper()
	r, err := realm.New()
	require.NoError(t, err)

	d := middleware.New()
	require.NoError(t, New(0, nil).Attach(d))
	return d, r
}

func TestAttachRegistersEveryHook(t *testing.T) {
	d, _ := setup(t)
	assert.Equal(t, []string{Variable, Property, Context, Filter, Arguments, Function, Describe}, d.Hooks())

	assert.Error(t, New(0, nil).Attach(d), "core handlers are registered once")
}

func TestVariableHookEndToEnd(t *testing.T) {
	d, r := setup(t)
	ctxObj, err := r.Object(`({})`)
	require.NoError(t, err)

	req := &Request{
		Token: token.Token{
			Type:   token.Variable,
			String: "x",
			State: &token.State{
				LocalVars:  token.Frames("x"),
				GlobalVars: token.Frames("console"),
			},
		},
		Context: ctxObj,
		Global:  r,
		Results: completion.Names{},
	}

	out, err := d.Trigger(context.Background(), Variable, req)
	require.NoError(t, err)
	assert.Nil(t, out)

	for _, name := range []string{"x", "console", "if", "while", "hasOwnProperty"} {
		assert.True(t, req.Results[name], name)
	}
	for name := range req.Results {
		assert.True(t, completion.IsValidVariableName(name), name)
	}
}

func TestVariableHookMergesContextLevels(t *testing.T) {
	d, r := setup(t)

	req := &Request{
		Token: token.Token{
			Type: token.Variable,
			State: &token.State{
				LocalVars:  token.Frames("local"),
				Context:    token.Blocks(token.Frames("inner", "bad-name"), token.Frames("outer")),
				GlobalVars: token.Frames("window"),
			},
		},
		Context: otto.NullValue(),
		Global:  r,
	}

	_, err := d.Trigger(context.Background(), Variable, req)
	require.NoError(t, err)

	for _, name := range []string{"local", "inner", "outer", "window", "typeof"} {
		assert.True(t, req.Results[name], name)
	}
	assert.NotContains(t, req.Results, "bad-name")
}

func TestVariableHookKeepsExistingResults(t *testing.T) {
	d, r := setup(t)
	req := &Request{
		Token:   token.Token{Type: token.Variable, State: &token.State{LocalVars: token.Frames("if")}},
		Context: otto.NullValue(),
		Global:  r,
		Results: completion.Names{"seeded": true},
	}

	_, err := d.Trigger(context.Background(), Variable, req)
	require.NoError(t, err)
	assert.True(t, req.Results["seeded"])
	assert.True(t, req.Results["if"])
}

func TestVariableHookIsIdempotent(t *testing.T) {
	d, r := setup(t)
	state := &token.State{LocalVars: token.Frames("a", "b")}

	run := func() completion.Names {
		req := &Request{Token: token.Token{Type: token.Variable, State: state}, Context: r.Global(), Global: r, Results: completion.Names{}}
		_, err := d.Trigger(context.Background(), Variable, req)
		require.NoError(t, err)
		return req.Results
	}
	assert.Equal(t, run(), run())
}

func TestPropertyHook(t *testing.T) {
	d, r := setup(t)
	str, err := r.String("abc")
	require.NoError(t, err)

	req := &Request{Token: token.Token{Type: token.Property, String: "ch"}, Context: str, Global: r}
	_, err = d.Trigger(context.Background(), Property, req)
	require.NoError(t, err)
	assert.True(t, req.Results["charAt"])
	assert.NotContains(t, req.Results, "if", "keywords are only offered for variables")

	nullReq := &Request{Context: otto.NullValue(), Global: r, Results: completion.Names{}}
	_, err = d.Trigger(context.Background(), Property, nullReq)
	require.NoError(t, err)
	assert.Empty(t, nullReq.Results)
}

func TestContextHookWalksDottedExpression(t *testing.T) {
	d, r := setup(t)
	_, err := r.Run(`var app = {user: {name: "ada"}};`)
	require.NoError(t, err)

	req := &Request{Context: r.Global(), Global: r}
	for _, tok := range []token.Token{
		{Type: token.Variable, String: "app"},
		{Type: token.Property, String: "user"},
		{Type: token.Property, String: "name"},
	} {
		req.Token = tok
		_, err := d.Trigger(context.Background(), Context, req)
		require.NoError(t, err)
	}
	require.True(t, req.Context.IsString())
	assert.Equal(t, "ada", req.Context.String())
}

func TestContextHookFallsBackToNull(t *testing.T) {
	d, r := setup(t)
	req := &Request{Token: token.Token{Type: token.Regexp, String: "/broken"}, Context: r.Global(), Global: r}

	_, err := d.Trigger(context.Background(), Context, req)
	require.NoError(t, err)
	assert.True(t, req.Context.IsNull())
}

func TestFilterHook(t *testing.T) {
	d, _ := setup(t)

	out, err := d.Trigger(context.Background(), Filter, &FilterRequest{
		Token:  token.Token{String: "len"},
		Result: Result{Value: "length"},
	})
	require.NoError(t, err)
	assert.Equal(t, true, out)

	out, err = d.Trigger(context.Background(), Filter, &FilterRequest{
		Token:  token.Token{String: "length"},
		Result: Result{Value: "len"},
	})
	require.NoError(t, err)
	assert.Equal(t, false, out)
}

func TestStubHooks(t *testing.T) {
	d, r := setup(t)
	req := &Request{Context: r.Global(), Global: r}

	out, err := d.Trigger(context.Background(), Arguments, req)
	require.NoError(t, err)
	assert.Equal(t, []string{}, out)

	out, err = d.Trigger(context.Background(), Function, req)
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = d.Trigger(context.Background(), Describe, req)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, out)
}

func TestWrongDataType(t *testing.T) {
	d, _ := setup(t)
	for _, hook := range []string{Variable, Property, Context, Filter} {
		_, err := d.Trigger(context.Background(), hook, "not a request")
		require.Error(t, err, hook)
		assert.True(t, domainerrors.IsCode(err, domainerrors.CodeValidationError), hook)
	}
}

func TestMaxPrototypeDepth(t *testing.T) {
	r, err := realm.New()
	require.NoError(t, err)
	d := middleware.New()
	p := New(1, nil)
	require.NoError(t, p.Attach(d))

	obj, err := r.Object(`({own: 1})`)
	require.NoError(t, err)

	shallow := &Request{Context: obj, Global: r}
	_, err = d.Trigger(context.Background(), Property, shallow)
	require.NoError(t, err)
	assert.NotContains(t, shallow.Results, "hasOwnProperty")

	p.SetMaxPrototypeDepth(0)
	deep := &Request{Context: obj, Global: r}
	_, err = d.Trigger(context.Background(), Property, deep)
	require.NoError(t, err)
	assert.True(t, deep.Results["hasOwnProperty"])
}
