// Package audio measures narration audio length with exact integer sample
// arithmetic so concatenated pieces add up to the same total the encoder sees.
package audio

import (
	"context"
	"errors"
	"fmt"
	"math"

	"cuecast/internal/media/ffprobe"
	"cuecast/internal/services"
)

// TargetRate is the sample rate every piece is resampled to before summing.
const TargetRate = 44100

// Report holds per-piece and total durations in milliseconds.
type Report struct {
	DurationsMs []int64 `json:"durationsMs"`
	TotalMs     int64   `json:"totalMs"`
}

// Resample converts a sample count between rates, rounding half up.
func Resample(samples int64, srcRate, dstRate int) int64 {
	if srcRate <= 0 {
		return 0
	}
	return (samples*int64(dstRate) + int64(srcRate)/2) / int64(srcRate)
}

// MsFromSamples converts a sample count to milliseconds, rounding half up.
func MsFromSamples(samples int64, rate int) int64 {
	if rate <= 0 {
		return 0
	}
	return (samples*1000 + int64(rate)/2) / int64(rate)
}

// Summarize turns per-piece sample counts at TargetRate into durations. Each
// piece is the difference of rounded cumulative offsets, so the pieces always
// sum to the total.
func Summarize(samples []int64) Report {
	report := Report{DurationsMs: make([]int64, len(samples))}
	var acc, prevMs int64
	for i, n := range samples {
		acc += n
		cum := MsFromSamples(acc, TargetRate)
		report.DurationsMs[i] = cum - prevMs
		prevMs = cum
	}
	report.TotalMs = MsFromSamples(acc, TargetRate)
	return report
}

type inspectFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Prober runs ffprobe against audio files.
type Prober struct {
	binary  string
	inspect inspectFunc
}

// NewProber returns a prober using the given ffprobe binary.
func NewProber(binary string) *Prober {
	return &Prober{binary: binary, inspect: ffprobe.InspectAudio}
}

// Durations probes every path and summarizes them in order.
func (p *Prober) Durations(ctx context.Context, paths []string) (Report, error) {
	if len(paths) == 0 {
		return Report{}, services.Wrap(services.ErrValidation, "probe", "durations", "no audio paths", nil)
	}
	samples := make([]int64, len(paths))
	for i, path := range paths {
		n, err := p.Samples(ctx, path)
		if err != nil {
			return Report{}, err
		}
		samples[i] = n
	}
	return Summarize(samples), nil
}

// Samples returns the sample count of path at TargetRate. When the stream
// lacks nb_samples the container duration is used instead.
func (p *Prober) Samples(ctx context.Context, path string) (int64, error) {
	result, err := p.inspect(ctx, p.binary, path)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "probe", "ffprobe", path, err)
	}
	if n, rate, ok := result.AudioSamples(); ok {
		return Resample(n, rate, TargetRate), nil
	}

	seconds := result.DurationSeconds()
	if seconds <= 0 || math.IsNaN(seconds) {
		return 0, services.Wrap(services.ErrResource, "probe", "ffprobe", fmt.Sprintf("%s: no sample count or duration", path), errors.New("unusable ffprobe output"))
	}
	rate := result.SampleRate()
	if rate <= 0 {
		rate = TargetRate
	}
	n := int64(math.Floor(seconds*float64(rate) + 0.5))
	return Resample(n, rate, TargetRate), nil
}
