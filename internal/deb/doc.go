// Package deb produces and installs Debian archives from a staging tree.
//
// Two Archiver backends are provided: ToolArchiver shells out to dpkg-deb,
// NativeArchiver assembles the ar(debian-binary, control.tar.gz, data.tar.*)
// layout in-process. ArchiveName derives the deterministic output filename
// from the package metadata, RenderControl emits the control descriptor, and
// WriteChecksum records a BLAKE3 sidecar for the produced archive. The
// Installer type is the injected capability for the optional install step.
package deb
