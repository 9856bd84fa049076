package llm

import "strings"

// StripCodeFence unwraps a reply that arrived inside a fenced code block by
// keeping the first line containing "{" through the last line containing "}".
// Replies without a fence are returned trimmed.
func StripCodeFence(content string) string {
	s := strings.TrimSpace(content)
	if !strings.Contains(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	first, last := -1, -1
	for i, l := range lines {
		if strings.Contains(l, "{") {
			first = i
			break
		}
	}
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.Contains(lines[i], "}") {
			last = i
			break
		}
	}
	if first < 0 || last < first {
		return s
	}
	return strings.TrimSpace(strings.Join(lines[first:last+1], "\n"))
}
