package builder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/roextract/debpack/internal/logger"
)

const (
	// markerFilename marks that a packaging run is in progress, to keep two
	// runs from racing on the shared staging area.
	markerFilename = "debpack-run-marker.bin"

	// markerLifetime is the period after which an unverifiable marker is
	// considered stale.
	markerLifetime = 10 * time.Minute

	// markerFileMode restricts the marker to its owner.
	markerFileMode = 0o600

	// baseExecutable is the tool's executable name, as seen in the process table.
	baseExecutable = "debpack"
)

// markerPath returns the run marker location under the system temp dir,
// next to the default staging roots it protects.
func markerPath() string {
	return filepath.Join(os.TempDir(), markerFilename)
}

// isBuilderRunningNow checks presence of a run marker and attempts recovery
// when its owning process is gone. The guard is best-effort, not a lock.
func isBuilderRunningNow(ctx context.Context) bool {
	fileInfo, err := os.Stat(markerPath())
	if errors.Is(err, os.ErrNotExist) {
		return false
	}

	if err != nil {
		logger.Infof(ctx, "Unable to read run marker: %v", err)
		return false
	}

	alive, err := siblingProcessAlive()
	if err != nil {
		// Process table unavailable; trust a fresh marker.
		return time.Since(fileInfo.ModTime()) <= markerLifetime
	}

	if alive {
		return true
	}

	logger.Info(ctx, "Run marker has no live owner, removing it")

	if err = os.Remove(markerPath()); err != nil {
		return true
	}

	return false
}

// siblingProcessAlive reports whether another debpack process is running.
func siblingProcessAlive() (bool, error) {
	processList, err := ps.Processes()
	if err != nil {
		return false, err
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() == toolExecutable() {
			return true, nil
		}
	}

	return false, nil
}

// toolExecutable returns the executable name for the current platform.
func toolExecutable() string {
	if runtime.GOOS == "windows" {
		return baseExecutable + ".exe"
	}

	return baseExecutable
}

// createRunMarker records this process as the current run's owner.
func createRunMarker() error {
	return os.WriteFile(markerPath(), []byte(strconv.Itoa(os.Getpid())), markerFileMode)
}

// removeRunMarker clears the marker at the end of the run.
func removeRunMarker(ctx context.Context) {
	if err := os.Remove(markerPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WarnKV(ctx, "Unable to remove run marker", "error", err)
	}
}
