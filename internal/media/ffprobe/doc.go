// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect runs ffprobe through a toolexec-style runner and returns a Result
// with stream and container metadata. Helpers answer the two questions the
// converter asks: does the upload carry an audio stream, and how long is it.
package ffprobe
