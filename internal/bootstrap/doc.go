// Package bootstrap acquires large external dependencies (the speech model,
// optionally the ffmpeg binary) onto local disk once per process.
//
// Each dependency has its own Bootstrapper walking
// Uninitialized -> Acquiring -> Ready | Failed. Concurrent triggers collapse
// onto a single in-flight acquisition; the mutex only guards state
// transitions, never the download itself. Acquisition retries a fixed number
// of times with a fixed, cancellable delay. Failed is sticky until Reset.
// A file already present at the target path short-circuits to Ready, and a
// flock on a sibling .lock file keeps several processes on one host from
// downloading the same file at once.
package bootstrap
