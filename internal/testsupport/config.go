package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"cuecast/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.API.Bind = "127.0.0.1:0"
	cfgVal.Encoder.TimeoutSeconds = 30

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithAPIToken sets the bearer token on the test config.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.API.Token = token
	}
}

// WithoutHistory disables the SQLite job history.
func WithoutHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Jobs.History = false
	}
}

// WithStubbedBinaries writes stub ffmpeg/ffprobe executables and points the
// encoder section at them. ffmpeg writes a small file to its last argument
// and ffprobe reports one video stream and three seconds of audio.
func WithStubbedBinaries() ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		b.cfg.Encoder.FFmpegBinary = WriteStub(b.t, binDir, "ffmpeg", FFmpegWritesOutput)
		b.cfg.Encoder.FFprobeBinary = WriteStub(b.t, binDir, "ffprobe", FFprobeVideoAndAudio)
	}
}

// WithStub points the named encoder binary ("ffmpeg" or "ffprobe") at a custom script.
func WithStub(name, script string) ConfigOption {
	return func(b *configBuilder) {
		path := WriteStub(b.t, filepath.Join(b.baseDir, "bin"), name, script)
		switch name {
		case "ffmpeg":
			b.cfg.Encoder.FFmpegBinary = path
		case "ffprobe":
			b.cfg.Encoder.FFprobeBinary = path
		default:
			b.t.Fatalf("unknown stub %q", name)
		}
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}

// PrependPath puts dir at the front of PATH for the duration of the test.
func PrependPath(t testing.TB, dir string) {
	t.Helper()
	old := os.Getenv("PATH")
	if err := os.Setenv("PATH", dir+string(os.PathListSeparator)+old); err != nil {
		t.Fatalf("set PATH: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Setenv("PATH", old)
	})
}

// WriteConfigFile serializes cfg as TOML next to its work directory and
// returns the file path, for commands that load configuration themselves.
func WriteConfigFile(t testing.TB, cfg *config.Config) string {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(BaseDir(cfg), "cuecast.toml")
	WriteBytes(t, path, data)
	return path
}
