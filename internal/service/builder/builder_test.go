package builder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roextract/debpack/internal/config"
	"github.com/roextract/debpack/internal/staging"
)

// fakeArchiver stands in for a packaging tool. On success it writes a
// placeholder archive; on failure it exits without touching the output path.
type fakeArchiver struct {
	fail   bool
	builds int
}

func (a *fakeArchiver) Build(_ context.Context, _, outPath string) error {
	a.builds++

	if a.fail {
		return errors.New("simulated archiver failure")
	}

	return os.WriteFile(outPath, []byte("archive"), 0o644)
}

// testFixture creates a release binary, a manifest and a config pointing at them.
func testFixture(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()

	binary := filepath.Join(dir, "release-binary")
	require.NoError(t, os.WriteFile(binary, []byte("payload"), 0o755))

	manifestPath := filepath.Join(dir, "debpack-manifest.yaml")
	require.NoError(t, os.WriteFile(manifestPath, []byte(`
name: roextract
version: 1.0.4
architecture: amd64
maintainer: Example Maintainer <maintainer@example.com>
description: Extract assets from cache files
`), 0o644))

	cfg := &config.Config{
		ManifestPath: manifestPath,
		BinaryPath:   binary,
		StagingRoot:  filepath.Join(dir, "stage"),
		OutputDir:    dir,
	}
	require.NoError(t, config.Validate(cfg))

	return cfg
}

// TestRunProducesArchiveAndCleansUp covers the happy path end state.
func TestRunProducesArchiveAndCleansUp(t *testing.T) {
	t.Parallel()

	cfg := testFixture(t)
	archiver := &fakeArchiver{}
	b := newBuilder(cfg, &Options{Archiver: archiver})

	require.NoError(t, b.run(context.Background()))
	require.Equal(t, stateDone, b.state)
	require.Equal(t, 1, archiver.builds)

	// Deterministically named archive and its checksum sidecar exist.
	outPath := filepath.Join(cfg.OutputDir, "roextract_1.0.4_amd64.deb")
	_, err := os.Stat(outPath)
	require.NoError(t, err)
	_, err = os.Stat(outPath + ".b3")
	require.NoError(t, err)

	// Staging root is gone.
	_, err = os.Stat(cfg.StagingRoot)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestRunMissingBinary aborts before creating anything.
func TestRunMissingBinary(t *testing.T) {
	t.Parallel()

	cfg := testFixture(t)
	cfg.BinaryPath = filepath.Join(t.TempDir(), "absent")

	b := newBuilder(cfg, &Options{Archiver: &fakeArchiver{}})

	err := b.run(context.Background())
	require.ErrorIs(t, err, staging.ErrMissingArtifact)
	require.Equal(t, stateFailed, b.state)

	// No archive, no staging residue.
	_, err = os.Stat(filepath.Join(cfg.OutputDir, "roextract_1.0.4_amd64.deb"))
	require.ErrorIs(t, err, os.ErrNotExist)
	_, err = os.Stat(cfg.StagingRoot)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestRunArchiverFailureStillCleansUp verifies cleanup on the failure path.
func TestRunArchiverFailureStillCleansUp(t *testing.T) {
	t.Parallel()

	cfg := testFixture(t)
	b := newBuilder(cfg, &Options{Archiver: &fakeArchiver{fail: true}})

	err := b.run(context.Background())
	require.Error(t, err)
	require.Equal(t, stateFailed, b.state)

	_, err = os.Stat(filepath.Join(cfg.OutputDir, "roextract_1.0.4_amd64.deb"))
	require.ErrorIs(t, err, os.ErrNotExist)
	_, err = os.Stat(cfg.StagingRoot)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestRunInstallFailureKeepsArchive reports the failure without removing the archive.
func TestRunInstallFailureKeepsArchive(t *testing.T) {
	t.Parallel()

	cfg := testFixture(t)
	cfg.Install = true

	failingInstaller := func(_ context.Context, _ string) error {
		return errors.New("simulated install failure")
	}

	b := newBuilder(cfg, &Options{Archiver: &fakeArchiver{}, Installer: failingInstaller})

	err := b.run(context.Background())
	require.Error(t, err)
	require.Equal(t, stateFailed, b.state)

	// The archive survives an install failure.
	_, err = os.Stat(filepath.Join(cfg.OutputDir, "roextract_1.0.4_amd64.deb"))
	require.NoError(t, err)
	_, err = os.Stat(cfg.StagingRoot)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestRunInstallInvokesCapability passes the archive path to the injected installer.
func TestRunInstallInvokesCapability(t *testing.T) {
	t.Parallel()

	cfg := testFixture(t)
	cfg.Install = true

	var installed string

	recorder := func(_ context.Context, archivePath string) error {
		installed = archivePath
		return nil
	}

	b := newBuilder(cfg, &Options{Archiver: &fakeArchiver{}, Installer: recorder})

	require.NoError(t, b.run(context.Background()))
	require.Equal(t, filepath.Join(cfg.OutputDir, "roextract_1.0.4_amd64.deb"), installed)
}

// TestResolveConfigFlagOverrides checks flags win over config-file values.
func TestResolveConfigFlagOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "debpack.yaml")

	fileCfg := &config.Config{
		ManifestPath: "from-file.yaml",
		BinaryPath:   "from-file-binary",
		Backend:      config.BackendTool,
	}
	require.NoError(t, config.Save(configPath, fileCfg))

	cfg, err := resolveConfig(&Options{
		ConfigPath: configPath,
		BinaryPath: "from-flag-binary",
		Backend:    config.BackendNative,
	})
	require.NoError(t, err)
	require.Equal(t, "from-flag-binary", cfg.BinaryPath)
	require.Equal(t, config.BackendNative, cfg.Backend)
	require.Equal(t, "from-file.yaml", cfg.ManifestPath)
}

// TestResolveConfigDefaults works without any config file.
func TestResolveConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := resolveConfig(&Options{BinaryPath: "release-binary"})
	require.NoError(t, err)
	require.Equal(t, config.DefaultManifestFilename, cfg.ManifestPath)
	require.Equal(t, config.BackendTool, cfg.Backend)

	// Missing binary path fails validation.
	_, err = resolveConfig(&Options{})
	require.Error(t, err)
}
