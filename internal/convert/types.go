package convert

import (
	"io"
	"time"
)

// OutputKind selects what a request produces.
type OutputKind string

const (
	OutputAudio OutputKind = "audio"
	OutputText  OutputKind = "text"
)

// NoSpeechText replaces an empty transcript.
const NoSpeechText = "No speech detected in the audio file."

const (
	msgNoFile          = "No video file provided"
	msgInternal        = "An unexpected error occurred while processing the file"
	msgConversion      = "Audio conversion failed"
	msgExtraction      = "Failed to extract audio from the video"
	msgNoAudioTrack    = "The video file does not contain an audio track"
	msgTranscription   = "Speech recognition failed"
	msgTimedOut        = "Processing timed out"
	msgTranscoderGone  = "The audio transcoder is not available on this server"
	msgSpeechModelGone = "The speech recognition model is not available on this server"
)

// Request is one accepted upload. Size may be negative when unknown.
type Request struct {
	Source      io.Reader
	FileName    string
	Size        int64
	Kind        OutputKind
	AudioFormat string
}

// AudioArtifact is the converted audio, read fully into memory so the
// temporary output can be deleted before returning.
type AudioArtifact struct {
	Data        []byte
	ContentType string
	FileName    string
	Format      string
	// Duration is zero when the output could not be inspected.
	Duration time.Duration
}

// Transcript is the rendered recognition result.
type Transcript struct {
	FileName     string
	Text         string
	SegmentCount int
	WordCount    int
	Language     string
	ProcessedAt  time.Time
}

// Outcome holds exactly one of Audio, Transcript or Failure.
type Outcome struct {
	Audio      *AudioArtifact
	Transcript *Transcript
	Failure    *Failure
}

// Succeeded reports whether the outcome carries a result.
func (o Outcome) Succeeded() bool {
	return o.Failure == nil
}

// Report summarises one pipeline run for recorders.
type Report struct {
	RequestID   string
	Kind        OutputKind
	FileName    string
	Format      string
	Failure     *Failure
	WordCount   int
	Language    string
	OutputBytes int64
	Duration    time.Duration
	CompletedAt time.Time
}
