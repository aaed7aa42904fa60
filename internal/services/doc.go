// Package services defines shared utilities consumed by the conversion
// pipeline, the HTTP surface, and the external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp request IDs, operations, and stage names for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper so failures can be
//     classified (validation, dependency, external tool) without string
//     matching.
//
// Use these helpers when wiring new pipeline steps so operational behaviour
// stays uniform across the service.
package services
