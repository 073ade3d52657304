package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildFixture(t *testing.T) (*Tree, string) {
	t.Helper()

	dir := t.TempDir()
	binary := filepath.Join(dir, "release-binary")
	require.NoError(t, os.WriteFile(binary, []byte("#!/bin/sh\nexit 0\n"), 0o600))

	root := filepath.Join(dir, "stage")

	tree, err := Build(context.Background(), root, binary, "roextract")
	require.NoError(t, err)

	return tree, root
}

// TestBuild stages the binary under its public name inside usr/bin.
func TestBuild(t *testing.T) {
	t.Parallel()

	tree, root := buildFixture(t)

	require.Equal(t, root, tree.Root())
	require.Equal(t, filepath.Join(root, "usr", "bin", "roextract"), tree.BinaryPath())

	contents, err := os.ReadFile(tree.BinaryPath())
	require.NoError(t, err)
	require.Equal(t, "#!/bin/sh\nexit 0\n", string(contents))

	// Control subtree exists and is empty until the control file is written.
	info, err := os.Stat(filepath.Join(root, "DEBIAN"))
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

// TestBuildMissingBinary fails with ErrMissingArtifact and leaves no staging root.
func TestBuildMissingBinary(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	root := filepath.Join(dir, "stage")

	_, err := Build(context.Background(), root, filepath.Join(dir, "absent"), "roextract")
	require.ErrorIs(t, err, ErrMissingArtifact)

	_, err = os.Stat(root)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestBuildRemovesStaleRoot ensures leftovers from an interrupted run are cleared.
func TestBuildRemovesStaleRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	binary := filepath.Join(dir, "release-binary")
	require.NoError(t, os.WriteFile(binary, []byte("payload"), 0o600))

	root := filepath.Join(dir, "stage")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "junk"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "junk", "leftover"), []byte("x"), 0o644))

	_, err := Build(context.Background(), root, binary, "roextract")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(root, "junk"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestWriteControlAndNormalize checks the exact modes after normalization.
func TestWriteControlAndNormalize(t *testing.T) {
	t.Parallel()

	tree, root := buildFixture(t)

	require.NoError(t, tree.WriteControl([]byte("Package: roextract\nVersion: 1.0.4\n")))
	require.NoError(t, tree.Normalize())

	// Payload binary: executable by all.
	info, err := os.Stat(tree.BinaryPath())
	require.NoError(t, err)
	require.Equal(t, BinaryMode, info.Mode().Perm())

	// Control descriptor: writable only by owner.
	info, err = os.Stat(tree.ControlPath())
	require.NoError(t, err)
	require.Equal(t, ControlMode, info.Mode().Perm())

	// Directories: world-readable and executable, not world-writable.
	for _, dir := range []string{root, filepath.Join(root, "DEBIAN"), filepath.Join(root, "usr", "bin")} {
		info, err = os.Stat(dir)
		require.NoError(t, err)
		require.Equal(t, DirMode, info.Mode().Perm())
	}
}

// TestCopyControl copies a pre-written descriptor verbatim.
func TestCopyControl(t *testing.T) {
	t.Parallel()

	tree, _ := buildFixture(t)

	dir := t.TempDir()
	src := filepath.Join(dir, "control")
	require.NoError(t, os.WriteFile(src, []byte("Package: roextract\n"), 0o644))

	require.NoError(t, tree.CopyControl(src))

	contents, err := os.ReadFile(tree.ControlPath())
	require.NoError(t, err)
	require.Equal(t, "Package: roextract\n", string(contents))
}

// TestRemove deletes the whole tree.
func TestRemove(t *testing.T) {
	t.Parallel()

	tree, root := buildFixture(t)

	require.NoError(t, tree.Remove())

	_, err := os.Stat(root)
	require.ErrorIs(t, err, os.ErrNotExist)
}
