// Package convert implements the conversion pipeline that turns one uploaded
// video into either an audio file or a timestamped transcript.
//
// Each call owns a workspace scope for its temporary files and closes it on
// every exit path. Failures are returned as *Failure values whose Kind maps
// onto an HTTP status; Run folds either result into an Outcome.
package convert
