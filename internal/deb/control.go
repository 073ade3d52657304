package deb

import (
	"fmt"
	"strings"

	"github.com/roextract/debpack/internal/manifest"
)

// RenderControl produces the Debian control descriptor for the resolved
// metadata. The description's first line becomes the synopsis; remaining
// lines are emitted as the extended description with the leading-space
// continuation syntax the format requires.
func RenderControl(meta *manifest.Metadata) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "Package: %s\n", meta.Name)
	fmt.Fprintf(&b, "Version: %s\n", meta.Version)
	fmt.Fprintf(&b, "Section: %s\n", meta.Section)
	fmt.Fprintf(&b, "Priority: %s\n", meta.Priority)
	fmt.Fprintf(&b, "Architecture: %s\n", meta.Architecture)

	if len(meta.Depends) > 0 {
		fmt.Fprintf(&b, "Depends: %s\n", strings.Join(meta.Depends, ", "))
	}

	fmt.Fprintf(&b, "Maintainer: %s\n", meta.Maintainer)

	lines := strings.Split(strings.TrimRight(meta.Description, "\n"), "\n")
	fmt.Fprintf(&b, "Description: %s\n", lines[0])

	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			// Blank lines inside the extended description are written as " .".
			b.WriteString(" .\n")
			continue
		}

		b.WriteString(" " + line + "\n")
	}

	return []byte(b.String())
}
