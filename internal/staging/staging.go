package staging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/roextract/debpack/internal/logger"
)

// Tree is the ephemeral staging directory mirroring the installed filesystem
// layout. It is exclusively owned by the current run and must be removed on
// every exit path.
type Tree struct {
	// root is the staging directory root handed to the archiver.
	root string
	// payloadDir is the executable install path inside the tree.
	payloadDir string
	// controlDir is the package-control metadata directory inside the tree.
	controlDir string
	// binaryPath is the staged binary under its public name.
	binaryPath string
}

const (
	// payloadSubdir mirrors the installed executable location.
	payloadSubdir = "usr/bin"

	// controlSubdir is the Debian control metadata directory.
	controlSubdir = "DEBIAN"

	// controlFilename is the control descriptor inside controlSubdir.
	controlFilename = "control"
)

// ErrMissingArtifact is returned when the release binary has not been built
// at the expected path before staging begins.
var ErrMissingArtifact = errors.New("release binary not found")

// Build constructs a staging tree rooted at root, copying the release binary
// from binarySrc into the install path under installedName. Any stale tree at
// the same root is removed first, so an interrupted previous run cannot leak
// files into this one.
func Build(ctx context.Context, root, binarySrc, installedName string) (*Tree, error) {
	info, err := os.Stat(binarySrc)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", binarySrc, ErrMissingArtifact)
	} else if err != nil {
		return nil, fmt.Errorf("stat release binary: %w", err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", binarySrc, ErrMissingArtifact)
	}

	// Always start from an empty root.
	if err := os.RemoveAll(root); err != nil {
		return nil, fmt.Errorf("remove stale staging root: %w", err)
	}

	tree := &Tree{
		root:       root,
		payloadDir: filepath.Join(root, payloadSubdir),
		controlDir: filepath.Join(root, controlSubdir),
	}
	tree.binaryPath = filepath.Join(tree.payloadDir, installedName)

	for _, dir := range []string{tree.payloadDir, tree.controlDir} {
		if err := os.MkdirAll(dir, DirMode); err != nil {
			return nil, fmt.Errorf("create staging directory: %w", err)
		}
	}

	logger.InfoKV(ctx, "Staging release binary",
		"source", binarySrc, "target", tree.binaryPath, "size", info.Size())

	if err := copyFile(binarySrc, tree.binaryPath, info.Size()); err != nil {
		return nil, fmt.Errorf("stage release binary: %w", err)
	}

	return tree, nil
}

// Root returns the staging root handed to the archiver.
func (t *Tree) Root() string {
	return t.root
}

// BinaryPath returns the staged binary location.
func (t *Tree) BinaryPath() string {
	return t.binaryPath
}

// ControlPath returns the control descriptor location inside the tree.
func (t *Tree) ControlPath() string {
	return filepath.Join(t.controlDir, controlFilename)
}

// WriteControl renders the provided control descriptor contents into the tree.
func (t *Tree) WriteControl(contents []byte) error {
	if err := os.WriteFile(t.ControlPath(), contents, ControlMode); err != nil {
		return fmt.Errorf("write control descriptor: %w", err)
	}

	return nil
}

// CopyControl copies a pre-written control descriptor verbatim into the tree.
func (t *Tree) CopyControl(src string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat control descriptor: %w", err)
	}

	if err := copyFile(src, t.ControlPath(), info.Size()); err != nil {
		return fmt.Errorf("copy control descriptor: %w", err)
	}

	return nil
}

// Remove deletes the staging tree. Callers treat a failure here as a warning,
// not a run failure: the produced archive is unaffected, the residue merely
// has to be cleared by the next run.
func (t *Tree) Remove() error {
	if err := os.RemoveAll(t.root); err != nil {
		return fmt.Errorf("remove staging root: %w", err)
	}

	return nil
}

// copyFile copies src to dst, showing a progress bar when attached to a
// terminal. Release binaries can be large enough for the feedback to matter.
func copyFile(src, dst string, size int64) error {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}

	defer func() {
		_ = in.Close()
	}()

	out, err := os.Create(filepath.Clean(dst))
	if err != nil {
		return err
	}

	var writer io.Writer = out

	if term.IsTerminal(int(os.Stdout.Fd())) {
		bar := progressbar.DefaultBytes(size, "staging "+filepath.Base(dst))
		writer = io.MultiWriter(out, bar)
	}

	if _, err = io.Copy(writer, in); err != nil {
		_ = out.Close()
		return err
	}

	return out.Close()
}
