package transcribe

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Segment is one recognized span of speech.
type Segment struct {
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
	Text  string        `json:"text"`
}

// Result is the ordered output of one recognition run.
type Result struct {
	Segments []Segment
	// Language is the engine-reported ISO 639-1 code, empty when unknown.
	Language string
}

// Engine recognizes speech in an audio file.
type Engine interface {
	Name() string
	Transcribe(ctx context.Context, audioPath string) (Result, error)
}

// FormatTimestamp renders d as HH:MM:SS.mmm.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d.%03d", ms/3_600_000, (ms/60_000)%60, (ms/1000)%60, ms%1000)
}

// Render joins non-blank segments into "[start - end] text" lines and
// returns the text with the number of lines written.
func Render(segments []Segment) (string, int) {
	var b strings.Builder
	count := 0
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		if count > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%s - %s] %s", FormatTimestamp(seg.Start), FormatTimestamp(seg.End), text)
		count++
	}
	return b.String(), count
}
