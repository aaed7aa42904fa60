// Package transcribe turns a mono 16 kHz WAV file into timestamped text.
//
// Engine is the seam the conversion pipeline depends on. Two engines ship:
// WhisperCPP drives the whisper.cpp command-line tool against a local model
// file and reads its JSON output; OpenAI sends the audio to the hosted
// transcription API. Render formats segments as "[start - end] text" lines.
package transcribe
