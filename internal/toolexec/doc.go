// Package toolexec runs external command-line tools (ffmpeg, ffprobe,
// whisper-cli) as single-attempt invocations.
//
// Run never returns a raw error: spawn failures, non-zero exits, timeouts, and
// cancellations are all folded into a Result whose Succeeded flag is true only
// for a clean zero exit. Output streams are captured in full so a chatty tool
// cannot stall on a full pipe. Each child runs in its own process group and the
// whole group is killed when the deadline passes or the caller cancels.
package toolexec
