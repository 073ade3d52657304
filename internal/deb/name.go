package deb

import (
	"fmt"

	"github.com/roextract/debpack/internal/manifest"
)

// ArchiveName returns the canonical archive filename for the resolved
// metadata. It is a pure function of the metadata, so repeated runs with
// unchanged metadata overwrite the same file instead of accumulating new ones.
func ArchiveName(meta *manifest.Metadata) string {
	return fmt.Sprintf("%s_%s_%s.deb", meta.Name, meta.Version, meta.Architecture)
}
