// Package language normalizes language identifiers reported by recognition
// engines and detects the language of transcript text.
//
// Engines disagree on notation (whisper.cpp says "en", the OpenAI API says
// "english", users configure "en-US" or "auto"). Normalize folds all of them
// into ISO 639-1 codes using x/text; Detector falls back to lingua when an
// engine reports nothing.
package language
