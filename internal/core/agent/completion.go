package agent

import "strings"

// Sentinel is the exact text an agent prints to declare the work complete.
const Sentinel = "<promise>COMPLETE</promise>"

// CompletionSignaled reports whether output contains Sentinel. The match is
// a case-sensitive substring search and nothing else.
func CompletionSignaled(output string) bool {
	return strings.Contains(output, Sentinel)
}
