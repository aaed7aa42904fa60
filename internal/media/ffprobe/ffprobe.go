package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"videoconverter/internal/toolexec"
)

// Runner executes ffprobe. *toolexec.Invoker satisfies it.
type Runner interface {
	Run(ctx context.Context, tool string, args []string, timeout time.Duration) toolexec.Result
}

// Seconds is an ffprobe duration. ffprobe prints durations as decimal
// strings ("2.020000") and "N/A" when unknown; anything unparsable
// decodes to zero.
type Seconds time.Duration

// UnmarshalJSON accepts both quoted and bare numbers.
func (s *Seconds) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value <= 0 {
		*s = 0
		return nil
	}
	*s = Seconds(time.Duration(value * float64(time.Second)).Round(time.Millisecond))
	return nil
}

// Result is the subset of `ffprobe -show_format -show_streams` output the
// converter reads.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream is one elementary stream in the container.
type Stream struct {
	Index       int     `json:"index"`
	CodecName   string  `json:"codec_name"`
	CodecType   string  `json:"codec_type"`
	Channels    int     `json:"channels"`
	Duration    Seconds `json:"duration"`
	Disposition struct {
		Default int `json:"default"`
	} `json:"disposition"`
}

// IsAudio reports whether the stream carries audio.
func (s Stream) IsAudio() bool { return strings.EqualFold(s.CodecType, "audio") }

// Format is container-level metadata.
type Format struct {
	FormatName string  `json:"format_name"`
	Duration   Seconds `json:"duration"`
}

// Inspect runs ffprobe against path and decodes its JSON report.
func Inspect(ctx context.Context, runner Runner, binary, path string, timeout time.Duration) (Result, error) {
	if binary = strings.TrimSpace(binary); binary == "" {
		binary = "ffprobe"
	}
	if path = strings.TrimSpace(path); path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	run := runner.Run(ctx, binary, []string{
		"-v", "error", "-hide_banner",
		"-show_format", "-show_streams",
		"-of", "json",
		"--", path,
	}, timeout)
	if !run.Succeeded {
		return Result{}, fmt.Errorf("ffprobe inspect: %s", run.Message)
	}

	var result Result
	if err := json.Unmarshal(run.Stdout, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// AudioStreams returns the audio streams in container order.
func (r Result) AudioStreams() []Stream {
	var audio []Stream
	for _, s := range r.Streams {
		if s.IsAudio() {
			audio = append(audio, s)
		}
	}
	return audio
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int { return len(r.AudioStreams()) }

// PrimaryAudio returns the audio stream flagged default, else the first one.
func (r Result) PrimaryAudio() (Stream, bool) {
	audio := r.AudioStreams()
	if len(audio) == 0 {
		return Stream{}, false
	}
	for _, s := range audio {
		if s.Disposition.Default == 1 {
			return s, true
		}
	}
	return audio[0], true
}

// Duration returns the container duration, falling back to the longest
// stream when the container does not report one. Zero means unknown.
func (r Result) Duration() time.Duration {
	if r.Format.Duration > 0 {
		return time.Duration(r.Format.Duration)
	}
	var longest Seconds
	for _, s := range r.Streams {
		longest = max(longest, s.Duration)
	}
	return time.Duration(longest)
}
