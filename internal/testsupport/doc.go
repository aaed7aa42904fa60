// Package testsupport provides shared fixtures for tests: temp-rooted configs,
// stub ffmpeg and whisper-cli scripts, and placeholder uploads.
package testsupport
