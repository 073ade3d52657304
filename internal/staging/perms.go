package staging

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Exact modes dpkg-deb validates before it agrees to build an archive.
const (
	// DirMode applies to the staging root and every directory below it.
	DirMode os.FileMode = 0o755

	// BinaryMode applies to every file in the install path: executable by all.
	BinaryMode os.FileMode = 0o755

	// ControlMode applies to control metadata files: readable by all,
	// writable only by owner.
	ControlMode os.FileMode = 0o644
)

// Normalize walks the staging tree and sets the exact file modes the package
// format's build tool validates. This exists to satisfy that external
// validator, not as a security measure. A chmod failure is fatal for the run.
func (t *Tree) Normalize() error {
	err := filepath.WalkDir(t.root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		mode := ControlMode

		switch {
		case entry.IsDir():
			mode = DirMode
		case strings.HasPrefix(path, t.payloadDir+string(filepath.Separator)):
			mode = BinaryMode
		}

		return os.Chmod(path, mode)
	})
	if err != nil {
		return fmt.Errorf("normalize staging permissions: %w", err)
	}

	return nil
}
