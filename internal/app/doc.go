// Package app wires configuration into a running converter: tool invoker,
// workspace, dependency bootstrappers, recognition engine, pipeline, history
// store, and HTTP server. Both binaries and every CLI command build on App.
package app
