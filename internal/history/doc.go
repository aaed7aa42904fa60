// Package history keeps a SQLite log of conversion outcomes.
//
// Only metadata is stored: file name, kind, format, status, failure kind,
// word count, output size, and timing. Uploaded media and transcripts never
// reach the database. Store implements the pipeline's Recorder so every run
// is appended automatically; rows older than the retention window are pruned
// when the store opens.
package history
