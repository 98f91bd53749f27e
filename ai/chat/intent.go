package chat

import (
	"strings"

	"github.com/hrygo/taskpilot/store"
)

// The functions in this file pin the intent heuristics. They are
// deliberately simple string checks kept behind named functions so a
// real classifier can replace them without touching the transition
// logic. Tests assert their exact behavior.

// WantsTaskUpdate reports whether a message looks like an update-task
// request: the lowercase form contains "update" together with one of
// "task", "change", or "modify".
func WantsTaskUpdate(message string) bool {
	m := strings.ToLower(message)
	if !strings.Contains(m, "update") {
		return false
	}
	return strings.Contains(m, "task") || strings.Contains(m, "change") || strings.Contains(m, "modify")
}

// MatchTaskTitle finds the first task whose title matches the user's
// input, comparing case-insensitively and accepting a substring match in
// either direction. Returns nil when nothing matches. List order decides
// ties.
func MatchTaskTitle(input string, tasks []*store.Task) *store.Task {
	candidate := strings.ToLower(strings.TrimSpace(input))
	for _, task := range tasks {
		title := strings.ToLower(task.Title)
		if strings.Contains(title, candidate) || strings.Contains(candidate, title) {
			return task
		}
	}
	return nil
}

// IsSkip reports whether the message is the literal skip token,
// case-insensitively and without trimming.
func IsSkip(message string) bool {
	return strings.ToLower(message) == "skip"
}
