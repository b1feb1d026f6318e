package jobs

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a render job.
type Status string

const (
	StatusQueued    Status = "QUEUED"
	StatusRunning   Status = "RUNNING"
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// ParseStatus accepts any casing of a known status.
func ParseStatus(value string) (Status, error) {
	switch s := Status(strings.ToUpper(strings.TrimSpace(value))); s {
	case StatusQueued, StatusRunning, StatusSucceeded, StatusFailed:
		return s, nil
	default:
		return "", fmt.Errorf("unknown job status %q", value)
	}
}

func canTransition(from, to Status) bool {
	switch from {
	case StatusQueued:
		return to == StatusRunning || to == StatusFailed
	case StatusRunning:
		return to.Terminal()
	default:
		return false
	}
}
