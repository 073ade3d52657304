// Package staging builds and normalizes the ephemeral directory tree the
// package archiver consumes.
//
// A Tree mirrors the installed filesystem layout (usr/bin for the payload,
// DEBIAN for control metadata). Build is idempotent: it removes any stale
// root before populating a fresh one. Normalize enforces the file modes
// dpkg-deb validates. Remove destroys the tree; the pipeline guarantees it
// is called on every exit path.
package staging
