// Package config defines the packaging settings for a debpack run and
// provides helpers to load, validate and save them in YAML format.
//
// The Config type holds the manifest and binary paths, the staging and
// output locations, the archiver backend selection and the install toggle.
package config
