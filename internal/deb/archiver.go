package deb

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/roextract/debpack/internal/logger"
)

// Archiver turns a normalized staging tree into an installable archive.
// The pipeline holds the only reference to it; implementations keep no
// state across runs.
type Archiver interface {
	// Build produces the archive at outPath from the staging tree at root.
	Build(ctx context.Context, root, outPath string) error
}

// DefaultTool is the external packaging tool the ToolArchiver invokes.
const DefaultTool = "dpkg-deb"

// ToolArchiver shells out to dpkg-deb. This is the one stage with a true
// external-process boundary; the invocation blocks until the tool exits and
// a non-zero exit is surfaced as a build failure.
type ToolArchiver struct {
	// tool is the packaging tool executable name or path.
	tool string
}

// NewToolArchiver returns a ToolArchiver invoking the provided tool,
// defaulting to dpkg-deb.
func NewToolArchiver(tool string) *ToolArchiver {
	if tool == "" {
		tool = DefaultTool
	}

	return &ToolArchiver{tool: tool}
}

// Build invokes the packaging tool against the staging tree root.
// --root-owner-group makes the archive's contents owned by root:root
// without requiring the staging tree itself to be.
func (a *ToolArchiver) Build(ctx context.Context, root, outPath string) error {
	logger.InfoKV(ctx, "Invoking packaging tool", "tool", a.tool, "root", root, "output", outPath)

	cmd := exec.CommandContext(ctx, a.tool, "--build", "--root-owner-group", root, outPath)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %s: %w", a.tool, strings.TrimSpace(string(output)), err)
	}

	logger.Debugf(ctx, "Packaging tool output: %s", strings.TrimSpace(string(output)))

	return nil
}
