package deb

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"lukechampine.com/blake3"
)

// TestWriteChecksum hashes an archive and writes the sum-file sidecar.
func TestWriteChecksum(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archive := filepath.Join(dir, "roextract_1.0.4_amd64.deb")
	contents := []byte("not really an archive")
	require.NoError(t, os.WriteFile(archive, contents, 0o644))

	digest, err := WriteChecksum(archive)
	require.NoError(t, err)

	expected := blake3.Sum256(contents)
	require.Equal(t, hex.EncodeToString(expected[:]), digest)

	sidecar, err := os.ReadFile(archive + ChecksumExtension)
	require.NoError(t, err)
	require.Equal(t, digest+"  roextract_1.0.4_amd64.deb\n", string(sidecar))
}

// TestWriteChecksumMissingArchive fails when the archive is absent.
func TestWriteChecksumMissingArchive(t *testing.T) {
	t.Parallel()

	_, err := WriteChecksum(filepath.Join(t.TempDir(), "absent.deb"))
	require.Error(t, err)
}
