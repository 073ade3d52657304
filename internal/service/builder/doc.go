// Package builder orchestrates the packaging pipeline.
//
// A run moves through resolving, staging, normalizing, archiving and an
// optional installing stage, then always through cleanup before finishing.
// The staging tree is acquired once and released by a deferred cleanup on
// every exit path, so no partial staging state survives a failed run. An
// install failure is reported but does not invalidate the produced archive.
// A best-effort marker-and-process-scan guard refuses to start while a
// sibling run is alive.
package builder
