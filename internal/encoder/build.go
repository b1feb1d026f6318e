package encoder

import (
	"strconv"
	"strings"

	"cuecast/internal/compositor"
)

// Settings are the fixed output codec flags.
type Settings struct {
	VideoCodec       string
	Preset           string
	CRF              int
	AudioCodec       string
	AudioBitrateKbps int
	VideoBitrateKbps int
}

// Plan is everything one encode needs.
type Plan struct {
	Inputs      []compositor.Input
	Audio       string
	FilterGraph string
	VideoLabel  string
	DurationMs  int64
	Output      string
	Settings    Settings
}

// Invocation is a ready to run command line.
type Invocation struct {
	Binary string
	Args   []string
	Output string
}

// String renders the invocation for logs and the graph command.
func (i Invocation) String() string {
	parts := make([]string, 0, len(i.Args)+1)
	parts = append(parts, i.Binary)
	for _, a := range i.Args {
		if strings.ContainsAny(a, " ;'[]") {
			a = strconv.Quote(a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// Build assembles the encoder arguments. Background inputs come first and the
// audio track, when present, is the last input.
func Build(binary string, p Plan) Invocation {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	s := p.Settings
	args := []string{"-y", "-hide_banner", "-nostdin"}
	for _, in := range p.Inputs {
		args = append(args, in.Args...)
	}
	if p.Audio != "" {
		args = append(args, "-i", p.Audio)
	}
	args = append(args, "-filter_complex", p.FilterGraph, "-map", "["+p.VideoLabel+"]")
	if p.Audio != "" {
		args = append(args, "-map", strconv.Itoa(len(p.Inputs))+":a")
	}
	args = append(args,
		"-c:v", orDefault(s.VideoCodec, "libx264"),
		"-preset", orDefault(s.Preset, "veryfast"),
		"-crf", strconv.Itoa(s.CRF),
		"-pix_fmt", "yuv420p",
	)
	if s.VideoBitrateKbps > 0 {
		args = append(args,
			"-maxrate", strconv.Itoa(s.VideoBitrateKbps)+"k",
			"-bufsize", strconv.Itoa(2*s.VideoBitrateKbps)+"k",
		)
	}
	if p.Audio != "" {
		args = append(args, "-c:a", orDefault(s.AudioCodec, "aac"))
		if s.AudioBitrateKbps > 0 {
			args = append(args, "-b:a", strconv.Itoa(s.AudioBitrateKbps)+"k")
		}
	}
	if p.DurationMs > 0 {
		args = append(args, "-t", compositor.Seconds(p.DurationMs))
	}
	args = append(args, "-movflags", "+faststart", p.Output)
	return Invocation{Binary: binary, Args: args, Output: p.Output}
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
