package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cuecast/internal/config"
	"cuecast/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	jobPath    string
	audioPath  string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())

	inputs := filepath.Join(testsupport.BaseDir(cfg), "inputs")
	audio := filepath.Join(inputs, "narration.mp3")
	testsupport.WriteFile(t, audio, 64)
	cues := testsupport.WriteCuePayload(t, inputs, 2000, [2]int64{0, 900}, [2]int64{900, 2000})
	job := filepath.Join(inputs, "job.yaml")
	testsupport.WriteBytes(t, job, []byte(fmt.Sprintf(
		"render:\n  audioUrl: %s\n  cuesUrl: %s\n  lines:\n    - first line\n    - second line\n  layout: paginated_panel\n",
		audio, cues)))

	return &cliTestEnv{
		cfg:        cfg,
		configPath: testsupport.WriteConfigFile(t, cfg),
		jobPath:    job,
		audioPath:  audio,
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n%s", needle, haystack)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, env, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
}

func TestRenderThenJobsHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	dest := filepath.Join(t.TempDir(), "episode.mp4")

	out, _, err := runCLI(t, env, "render", "--job", env.jobPath, "--out", dest)
	if err != nil {
		t.Fatalf("render: %v\n%s", err, out)
	}
	requireContains(t, out, "SUCCEEDED")
	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "fake-mp4" {
		t.Fatalf("expected copied artifact, got %q (%v)", data, err)
	}

	id := strings.TrimSpace(strings.TrimPrefix(strings.SplitN(out, "\n", 2)[0], "Job:"))
	out, _, err = runCLI(t, env, "jobs", "list", "--status", "succeeded")
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	requireContains(t, out, id)

	out, _, err = runCLI(t, env, "jobs", "show", id)
	if err != nil {
		t.Fatalf("jobs show: %v", err)
	}
	requireContains(t, out, "Status:   SUCCEEDED")

	if _, _, err := runCLI(t, env, "jobs", "show", "nope"); err == nil {
		t.Fatal("expected unknown job to fail")
	}
}

func TestOverlayAndGraph(t *testing.T) {
	env := setupCLITestEnv(t)
	dest := filepath.Join(t.TempDir(), "overlay.ass")

	out, _, err := runCLI(t, env, "overlay", "--job", env.jobPath, "--out", dest)
	if err != nil {
		t.Fatalf("overlay: %v", err)
	}
	requireContains(t, out, "paginated_panel")
	doc, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read overlay: %v", err)
	}
	requireContains(t, string(doc), "[Events]")
	requireContains(t, string(doc), "first line")

	out, _, err = runCLI(t, env, "graph", "--job", env.jobPath)
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	requireContains(t, out, "Filter graph:")
	requireContains(t, out, "subtitles=")
	requireContains(t, out, "drawbox=")

	if _, _, err := runCLI(t, env, "overlay", "--job", env.jobPath); err == nil {
		t.Fatal("expected overlay without --out to fail")
	}
}

func TestProbeAndDeps(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "probe", env.audioPath)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	requireContains(t, out, "3000")

	out, _, err = runCLI(t, env, "probe", "--json", env.audioPath)
	if err != nil {
		t.Fatalf("probe --json: %v", err)
	}
	requireContains(t, out, `"totalMs": 3000`)

	out, _, err = runCLI(t, env, "deps")
	if err != nil {
		t.Fatalf("deps: %v\n%s", err, out)
	}
	requireContains(t, out, "FFmpeg")
	requireContains(t, out, "[OK]")
}
