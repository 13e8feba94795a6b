package completion

import "notebook/internal/engine/token"

// Flatten squashes a scope chain into a presence set, walking Next until the
// chain ends. Frames without a valid identifier are skipped, and a frame
// seen twice ends the walk.
func Flatten(head *token.ScopeFrame) Names {
	out := Names{}
	seen := make(map[*token.ScopeFrame]struct{})
	for frame := head; frame != nil; frame = frame.Next {
		if _, ok := seen[frame]; ok {
			break
		}
		seen[frame] = struct{}{}
		out.Add(frame.Name)
	}
	return out
}

// FlattenState flattens every scope source of a tokenizer state, in merge
// order: local variables, each context block from the innermost outward,
// then globals.
func FlattenState(state *token.State) []Names {
	if state == nil {
		return nil
	}

	out := []Names{Flatten(state.LocalVars)}
	seen := make(map[*token.ContextBlock]struct{})
	for block := state.Context; block != nil; block = block.Prev {
		if _, ok := seen[block]; ok {
			break
		}
		seen[block] = struct{}{}
		out = append(out, Flatten(block.Vars))
	}
	return append(out, Flatten(state.GlobalVars))
}
