package deb

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/roextract/debpack/internal/logger"
)

// Installer installs a produced archive on the local host. It is injected
// into the pipeline so the archive-building stages stay testable without
// elevated privileges or a real package database.
type Installer func(ctx context.Context, archivePath string) error

// SystemInstaller returns the host's native install capability: apt-get when
// available (it resolves declared dependencies), plain dpkg otherwise.
// Both require elevated privileges and may prompt interactively.
func SystemInstaller() Installer {
	return func(ctx context.Context, archivePath string) error {
		absolute, err := filepath.Abs(archivePath)
		if err != nil {
			return fmt.Errorf("resolve archive path: %w", err)
		}

		if aptGet, lookErr := exec.LookPath("apt-get"); lookErr == nil {
			return runInstall(ctx, aptGet, "install", "-y", absolute)
		}

		dpkg, lookErr := exec.LookPath("dpkg")
		if lookErr != nil {
			return fmt.Errorf("locate package installer: %w", lookErr)
		}

		return runInstall(ctx, dpkg, "-i", absolute)
	}
}

// runInstall executes the installer tool and surfaces its output on failure.
func runInstall(ctx context.Context, tool string, args ...string) error {
	logger.InfoKV(ctx, "Invoking package installer", "tool", tool, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, tool, args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %s: %w", tool, strings.TrimSpace(string(output)), err)
	}

	return nil
}
