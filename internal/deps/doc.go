// Package deps reports whether the external binaries the converter shells
// out to can be found.
package deps
