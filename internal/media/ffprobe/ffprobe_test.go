package ffprobe

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "audio", SampleRate: "48000", NBSamples: "96000"},
			{CodecType: "audio"},
		},
		Format: Format{Duration: "123.45"},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	samples, rate, ok := result.AudioSamples()
	if !ok || samples != 96000 || rate != 48000 {
		t.Fatalf("unexpected samples: %d %d %v", samples, rate, ok)
	}
}

func TestAudioSamplesMissingCount(t *testing.T) {
	result := Result{Streams: []Stream{{CodecType: "audio", SampleRate: "44100", NBSamples: "N/A"}}}
	if _, _, ok := result.AudioSamples(); ok {
		t.Fatal("expected missing sample count to report false")
	}
	if result.SampleRate() != 44100 {
		t.Fatalf("expected sample rate fallback, got %d", result.SampleRate())
	}
	if !math.IsNaN(Result{Format: Format{Duration: "bad"}}.DurationSeconds()) {
		t.Fatal("expected NaN for malformed duration")
	}
}

func TestInspectAudioParsesStubOutput(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "ffprobe")
	script := "#!/bin/sh\ncat <<'JSON'\n{\"streams\":[{\"codec_type\":\"audio\",\"sample_rate\":\"22050\",\"nb_samples\":\"44100\"}],\"format\":{\"duration\":\"2.000000\"}}\nJSON\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	result, err := InspectAudio(context.Background(), stub, filepath.Join(dir, "audio.mp3"))
	if err != nil {
		t.Fatalf("InspectAudio: %v", err)
	}
	samples, rate, ok := result.AudioSamples()
	if !ok || samples != 44100 || rate != 22050 {
		t.Fatalf("unexpected audio samples: %d %d %v", samples, rate, ok)
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
