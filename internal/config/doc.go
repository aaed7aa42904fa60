// Package config loads, normalizes, and validates converter configuration.
//
// It merges TOML files, a working-directory .env file, and environment
// overrides (PORT, VIDEOCONVERTER_ENV, OPENAI_API_KEY and friends) into a
// single Config value. Helpers expand user paths, derive the stable model and
// tool locations, and create the scratch directories before the server runs.
//
// Load once at startup and pass the resulting *Config downstream rather than
// reading environment variables ad hoc.
package config
