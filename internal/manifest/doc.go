// Package manifest resolves the metadata of the package being built.
//
// The YAML manifest names the package, its target architecture and the
// control fields. The version is either stated inline or, preferably,
// resolved at run time from the application's own build descriptor via the
// version_from field, so it is never duplicated between the two files.
package manifest
