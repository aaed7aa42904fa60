// Package workspace hands out exclusively-owned temporary files for a single
// conversion and guarantees their removal.
//
// A Manager owns the scratch directory. Each pipeline run opens a Scope,
// acquires assets from it, and defers Scope.Close so every file is deleted on
// success, early return, or panic. Release never fails: deletion errors are
// logged at debug level and swallowed so they cannot mask the conversion
// outcome.
package workspace
