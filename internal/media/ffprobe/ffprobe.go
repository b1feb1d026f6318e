package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Result is the subset of ffprobe's JSON output cuecast reads.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream is one media stream. Numeric fields stay strings because ffprobe
// reports "N/A" for values it cannot determine.
type Stream struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name,omitempty"`
	SampleRate string `json:"sample_rate,omitempty"`
	NBSamples  string `json:"nb_samples,omitempty"`
	Duration   string `json:"duration,omitempty"`
}

// Format is the container section.
type Format struct {
	Duration   string `json:"duration"`
	FormatName string `json:"format_name,omitempty"`
}

// Inspect lists every stream and the container of path. The encoder uses it
// to confirm an artifact contains video.
func Inspect(ctx context.Context, binary, path string) (Result, error) {
	return probe(ctx, binary, path, "-show_streams", "-show_format")
}

// InspectAudio reads sample count, sample rate and duration of the first
// audio stream plus the container duration.
func InspectAudio(ctx context.Context, binary, path string) (Result, error) {
	return probe(ctx, binary, path,
		"-select_streams", "a:0",
		"-show_entries", "stream=codec_type,nb_samples,sample_rate,duration:format=duration",
	)
}

func probe(ctx context.Context, binary, path string, query ...string) (Result, error) {
	if path = strings.TrimSpace(path); path == "" {
		return Result{}, errors.New("ffprobe: empty path")
	}
	if binary = strings.TrimSpace(binary); binary == "" {
		binary = "ffprobe"
	}

	args := make([]string, 0, len(query)+8)
	args = append(args, "-v", "error", "-hide_banner")
	args = append(args, query...)
	args = append(args, "-of", "json", "--", path)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return Result{}, fmt.Errorf("ffprobe %s: %w: %s", path, err, msg)
		}
		return Result{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var result Result
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe %s: decode output: %w", path, err)
	}
	return result, nil
}

// VideoStreamCount returns how many video streams were found.
func (r Result) VideoStreamCount() int { return r.count("video") }

// AudioStreamCount returns how many audio streams were found.
func (r Result) AudioStreamCount() int { return r.count("audio") }

func (r Result) count(codecType string) int {
	n := 0
	for _, s := range r.Streams {
		if strings.EqualFold(s.CodecType, codecType) {
			n++
		}
	}
	return n
}

// firstAudio returns the first stream that is audio or untyped. Queries made
// with -show_entries may omit codec_type.
func (r Result) firstAudio() (Stream, bool) {
	for _, s := range r.Streams {
		if s.CodecType == "" || strings.EqualFold(s.CodecType, "audio") {
			return s, true
		}
	}
	return Stream{}, false
}

// DurationSeconds returns the container duration: 0 when absent, NaN when
// unparsable.
func (r Result) DurationSeconds() float64 {
	v := strings.TrimSpace(r.Format.Duration)
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// SampleRate returns the first audio stream's rate, or 0.
func (r Result) SampleRate() int {
	s, ok := r.firstAudio()
	if !ok {
		return 0
	}
	rate, err := strconv.Atoi(strings.TrimSpace(s.SampleRate))
	if err != nil || rate <= 0 {
		return 0
	}
	return rate
}

// AudioSamples returns the first audio stream's sample count and rate. ok is
// false when either value is missing.
func (r Result) AudioSamples() (samples int64, rate int, ok bool) {
	s, found := r.firstAudio()
	if !found {
		return 0, 0, false
	}
	if rate = r.SampleRate(); rate == 0 {
		return 0, 0, false
	}
	samples, err := strconv.ParseInt(strings.TrimSpace(s.NBSamples), 10, 64)
	if err != nil || samples < 0 {
		return 0, rate, false
	}
	return samples, rate, true
}
