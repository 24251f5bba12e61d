package todo

import (
	"bufio"
	"strings"
)

// Progress counts task lines for display. The loop never inspects task
// lines; this is only used to summarize a document for the operator.
type Progress struct {
	Done    int
	Pending int
}

// Total returns the number of tasks.
func (p Progress) Total() int {
	return p.Done + p.Pending
}

// CountProgress scans the task section of content, stopping at the first
// "---" separator.
func CountProgress(content string) Progress {
	var p Progress
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "---" {
			break
		}
		switch {
		case strings.HasPrefix(line, "- [ ]"):
			p.Pending++
		case strings.HasPrefix(line, "- [x]"), strings.HasPrefix(line, "- [X]"):
			p.Done++
		}
	}
	return p
}
