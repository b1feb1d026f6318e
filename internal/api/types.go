package api

import (
	"time"

	"cuecast/internal/deps"
	"cuecast/internal/jobs"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// JobResponse describes a job in a transport-friendly format.
type JobResponse struct {
	JobID      string      `json:"jobId"`
	Status     jobs.Status `json:"status"`
	Message    string      `json:"message,omitempty"`
	DurationMs *int64      `json:"durationMs,omitempty"`
	CreatedAt  string      `json:"createdAt,omitempty"`
	UpdatedAt  string      `json:"updatedAt,omitempty"`
}

// JobListResponse wraps a list of jobs.
type JobListResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Version     string `json:"version,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// StatusResponse summarizes the running service.
type StatusResponse struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	Jobs         map[string]int     `json:"jobs"`
	HistoryPath  string             `json:"historyPath,omitempty"`
	LockFilePath string             `json:"lockFilePath,omitempty"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// FromSnapshot converts a registry snapshot.
func FromSnapshot(s jobs.Snapshot) JobResponse {
	resp := JobResponse{
		JobID:     s.ID,
		Status:    s.Status,
		Message:   s.Message,
		CreatedAt: formatTime(s.CreatedAt),
		UpdatedAt: formatTime(s.UpdatedAt),
	}
	if s.Status == jobs.StatusSucceeded {
		d := s.DurationMs
		resp.DurationMs = &d
	}
	return resp
}

// FromDependencies converts dependency statuses.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, len(statuses))
	for i, dep := range statuses {
		out[i] = DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Version:     dep.Version,
			Detail:      dep.Detail,
		}
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
