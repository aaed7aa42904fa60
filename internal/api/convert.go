package api

import (
	"time"

	"videoconverter/internal/bootstrap"
	"videoconverter/internal/convert"
	"videoconverter/internal/history"
)

// FormatTime renders t in the API timestamp format, or "" when zero.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// FromTranscript converts a pipeline transcript to its response body.
func FromTranscript(t convert.Transcript) Transcription {
	return Transcription{
		FileName:      t.FileName,
		Transcription: t.Text,
		WordCount:     t.WordCount,
		SegmentCount:  t.SegmentCount,
		Language:      t.Language,
		ProcessedAt:   FormatTime(t.ProcessedAt),
	}
}

// FromSnapshot converts a bootstrap snapshot.
func FromSnapshot(s bootstrap.Snapshot) DependencyStatus {
	return DependencyStatus{
		Name:      s.Name,
		State:     s.StateName,
		Path:      s.Path,
		Source:    s.Source,
		Attempts:  s.Attempts,
		Error:     s.Error,
		UpdatedAt: FormatTime(s.UpdatedAt),
	}
}

// FromSnapshots converts a slice of snapshots, never returning nil.
func FromSnapshots(snapshots []bootstrap.Snapshot) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(snapshots))
	for _, s := range snapshots {
		out = append(out, FromSnapshot(s))
	}
	return out
}

// FromHistory converts stored history rows, never returning nil.
func FromHistory(entries []history.Entry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryEntry{
			ID:          e.ID,
			RequestID:   e.RequestID,
			Kind:        e.Kind,
			FileName:    e.FileName,
			Format:      e.Format,
			Status:      string(e.Status),
			FailureKind: e.FailureKind,
			Message:     e.Message,
			WordCount:   e.WordCount,
			Language:    e.Language,
			OutputBytes: e.OutputBytes,
			DurationMS:  e.Duration.Milliseconds(),
			CreatedAt:   FormatTime(e.CreatedAt),
		})
	}
	return out
}
