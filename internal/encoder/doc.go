// Package encoder assembles and runs the external encoder invocation.
//
// Build turns a composition, subtitle overlay, and audio track into one ffmpeg
// argument list with fixed output codec flags. Runner executes it under a
// deadline and only reports success when the process exits cleanly and leaves
// a non-empty artifact, optionally confirmed by ffprobe. Failures carry the
// exit code and the tail of the encoder's output.
package encoder
