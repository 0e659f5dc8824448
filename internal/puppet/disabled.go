package puppet

import "strings"

// DisabledReason extracts the operator-supplied reason from an agent
// disabled lockfile. The file carries a single embedded field shaped like
// {"disabled_message":"..."}; the markers are stripped literally rather
// than JSON-decoded, matching how the agent writes it. Content without
// the markers passes through unchanged.
func DisabledReason(content string) string {
	s := strings.TrimSpace(content)
	s = strings.TrimPrefix(s, `{"disabled_message":"`)
	s = strings.TrimSuffix(s, `"}`)
	return s
}
