package completion

import (
	"testing"

	"notebook/internal/engine/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatten(t *testing.T) {
	tests := []struct {
		name  string
		chain *token.ScopeFrame
		want  []string
	}{
		{"nil chain", nil, []string{}},
		{"single", token.Frames("x"), []string{"x"}},
		{"walks every frame", token.Frames("a", "b", "c"), []string{"a", "b", "c"}},
		{"skips empty names", token.Frames("a", "", "b"), []string{"a", "b"}},
		{"skips invalid identifiers", token.Frames("a", "b-c", "9d"), []string{"a"}},
		{"duplicates collapse", token.Frames("a", "a"), []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Flatten(tt.chain).Sorted())
		})
	}
}

func TestFlattenStopsOnCycle(t *testing.T) {
	a := &token.ScopeFrame{Name: "a"}
	b := &token.ScopeFrame{Name: "b", Next: a}
	a.Next = b

	assert.Equal(t, []string{"a", "b"}, Flatten(a).Sorted())
}

func TestFlattenStateOrder(t *testing.T) {
	state := &token.State{
		LocalVars:  token.Frames("local"),
		Context:    token.Blocks(token.Frames("inner"), token.Frames("outer")),
		GlobalVars: token.Frames("console"),
	}

	levels := FlattenState(state)
	require.Len(t, levels, 4)
	assert.True(t, levels[0]["local"])
	assert.True(t, levels[1]["inner"])
	assert.True(t, levels[2]["outer"])
	assert.True(t, levels[3]["console"])

	assert.Nil(t, FlattenState(nil))
}

func TestFlattenStateCyclicContext(t *testing.T) {
	block := &token.ContextBlock{Vars: token.Frames("x")}
	block.Prev = block

	levels := FlattenState(&token.State{Context: block})
	assert.Len(t, levels, 3)
}
