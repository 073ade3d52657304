package deb

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"lukechampine.com/blake3"
)

const (
	// ChecksumExtension is appended to the archive path for the sidecar file.
	ChecksumExtension = ".b3"

	// checksumSize is the BLAKE3 digest size in bytes.
	checksumSize = 32

	// checksumFileMode is the sidecar's permission bits.
	checksumFileMode = 0o644
)

// WriteChecksum hashes the produced archive with BLAKE3 and writes a
// `<digest>  <filename>` sidecar next to it, in the usual sum-file layout.
// It returns the hex digest.
func WriteChecksum(archivePath string) (string, error) {
	file, err := os.Open(filepath.Clean(archivePath))
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	hasher := blake3.New(checksumSize, nil)
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("hash archive: %w", err)
	}

	digest := hex.EncodeToString(hasher.Sum(nil))
	line := fmt.Sprintf("%s  %s\n", digest, filepath.Base(archivePath))

	if err := os.WriteFile(archivePath+ChecksumExtension, []byte(line), checksumFileMode); err != nil {
		return "", fmt.Errorf("write checksum sidecar: %w", err)
	}

	return digest, nil
}
