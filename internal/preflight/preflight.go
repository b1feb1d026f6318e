package preflight

import (
	"context"

	"cuecast/internal/config"
	"cuecast/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	}
	if cfg.Text.FontFile != "" {
		results = append(results, CheckFileReadable("Font file", cfg.Text.FontFile))
	}
	for _, status := range CheckSystemDeps(ctx, cfg) {
		results = append(results, fromDependency(status))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

func fromDependency(s deps.Status) Result {
	if s.Available {
		detail := s.Command
		if s.Version != "" {
			detail += " (" + s.Version + ")"
		}
		return Result{Name: s.Name, Passed: true, Detail: detail}
	}
	return Result{Name: s.Name, Passed: s.Optional, Detail: s.Detail}
}
