// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect returns container and stream metadata for verifying encoder
// artifacts; InspectAudio narrows the query to the first audio stream's sample
// count and rate, which the audio duration probe needs for exact arithmetic.
package ffprobe
