// Package version exposes build metadata for the debpack tool itself.
//
// Variables Version, Commit, and BuildTime are injected at build time via
// Go ldflags and default to sensible values for local builds. This is the
// version of the packaging tool, not of the package being built; the latter
// comes from the package manifest.
package version
