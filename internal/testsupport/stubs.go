package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// Stub scripts for the external encoder binaries.
const (
	FFmpegWritesOutput = "#!/bin/sh\nfor last; do :; done\ncase \"$last\" in -*) echo 'ffmpeg version stub'; exit 0 ;; esac\nprintf 'fake-mp4' > \"$last\"\nexit 0\n"

	FFmpegFails = "#!/bin/sh\necho 'Invalid filtergraph' >&2\nexit 1\n"

	FFmpegNoOutput = "#!/bin/sh\nexit 0\n"

	FFmpegHangs = "#!/bin/sh\nexec sleep 30\n"

	FFprobeVideoAndAudio = `#!/bin/sh
cat <<'JSON'
{"streams":[{"codec_type":"video","codec_name":"h264"},{"codec_type":"audio","codec_name":"aac","sample_rate":"44100","nb_samples":"132300","duration":"3.0"}],"format":{"duration":"3.000000"}}
JSON
`

	FFprobeAudioOnly = `#!/bin/sh
cat <<'JSON'
{"streams":[{"codec_type":"audio","codec_name":"aac","sample_rate":"44100","nb_samples":"132300"}],"format":{"duration":"3.000000"}}
JSON
`
)

// WriteStub writes an executable script named name into dir and returns its path.
func WriteStub(t testing.TB, dir, name, script string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}
