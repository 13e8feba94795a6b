package completion

import "strings"

// Matches reports whether candidate completes the partially typed token:
// a case-sensitive prefix match.
func Matches(candidate, partial string) bool {
	return len(candidate) >= len(partial) && strings.HasPrefix(candidate, partial)
}
