// Package api defines the JSON payloads served by the HTTP server and
// rendered by the CLI.
//
// # Key Types
//
// ServiceInfo: name, version, and endpoint map for the service root.
//
// Status: transcoder availability, accepted extensions, output formats,
// deployment environment, and dependency bootstrap states.
//
// Transcription: the /text response body.
//
// HistoryEntry: one recorded conversion.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds in
// UTC. Converters accept internal types so handlers never build payloads by
// hand.
package api
