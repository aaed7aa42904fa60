// Package preflight provides readiness checks for the directories, binaries,
// and hosted services the converter depends on.
//
// The server logs every failed RunAll check at startup. CheckSystemDeps feeds
// the tool section of the status payload. Checks that only apply to one
// recognition engine are skipped for the other.
package preflight
