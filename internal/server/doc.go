// Package server exposes the conversion pipeline over HTTP.
//
// Routes live under /api/videoconverter. Conversion endpoints accept a
// multipart upload in the "file" field, enforce the body size ceiling before
// the pipeline sees any bytes, and share a fixed number of concurrency slots.
// Every request gets an X-Request-ID, an access log line, and panic recovery.
package server
