package api

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"videoconverter/internal/bootstrap"
	"videoconverter/internal/convert"
	"videoconverter/internal/history"
)

func TestFromTranscriptJSONShape(t *testing.T) {
	payload := FromTranscript(convert.Transcript{
		FileName:     "talk.mp4",
		Text:         "[00:00:00.000 - 00:00:01.000] hi",
		WordCount:    5,
		SegmentCount: 1,
		Language:     "en",
		ProcessedAt:  time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.UTC),
	})
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"fileName":"talk.mp4"`, `"wordCount":5`, `"processedAt":"2026-01-02T03:04:05.006Z"`, `"transcription":`} {
		if !strings.Contains(string(raw), key) {
			t.Fatalf("payload %s missing %s", raw, key)
		}
	}
}

func TestFromSnapshots(t *testing.T) {
	out := FromSnapshots([]bootstrap.Snapshot{{Name: "speech-model", StateName: "failed", Attempts: 3, Error: "unreachable"}})
	if len(out) != 1 || out[0].State != "failed" || out[0].Attempts != 3 || out[0].UpdatedAt != "" {
		t.Fatalf("unexpected conversion: %+v", out)
	}
	if FromSnapshots(nil) == nil {
		t.Fatal("expected empty slice, not nil")
	}
}

func TestFromHistory(t *testing.T) {
	out := FromHistory([]history.Entry{{
		ID:       "abc",
		Kind:     "audio",
		Status:   history.StatusSucceeded,
		Duration: 2500 * time.Millisecond,
	}})
	if out[0].DurationMS != 2500 || out[0].Status != "succeeded" {
		t.Fatalf("unexpected entry: %+v", out[0])
	}
}
