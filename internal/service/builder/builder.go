package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/roextract/debpack/internal/config"
	"github.com/roextract/debpack/internal/deb"
	"github.com/roextract/debpack/internal/logger"
	"github.com/roextract/debpack/internal/manifest"
	"github.com/roextract/debpack/internal/staging"
)

// builder drives a single packaging run through its stages.
// It is unexported—callers should use Run, which encapsulates setup and
// the concurrent-run guard.
type builder struct {
	// cfg holds the merged packaging settings for this run.
	cfg *config.Config
	// archiver produces the archive from the staging tree.
	archiver deb.Archiver
	// installer is the injected capability for the optional install step.
	installer deb.Installer
	// state is the pipeline's current lifecycle position.
	state state
}

// newBuilder wires the archiver backend and install capability,
// honoring test overrides from the options.
func newBuilder(cfg *config.Config, opts *Options) *builder {
	archiver := opts.Archiver
	if archiver == nil {
		if cfg.Backend == config.BackendNative {
			archiver = deb.NewNativeArchiver(cfg.Compression)
		} else {
			archiver = deb.NewToolArchiver("")
		}
	}

	installer := opts.Installer
	if installer == nil {
		installer = deb.SystemInstaller()
	}

	return &builder{
		cfg:       cfg,
		archiver:  archiver,
		installer: installer,
		state:     stateResolving,
	}
}

// run executes the pipeline. The staging tree acquired in the staging stage
// is released by a single deferred cleanup covering every later exit path,
// success or failure; only the removal itself failing is non-fatal.
//
//nolint:cyclop // The stage sequence reads best as one function.
func (b *builder) run(ctx context.Context) (err error) {
	b.setState(ctx, stateResolving)

	meta, err := manifest.Load(b.cfg.ManifestPath)
	if err != nil {
		b.setState(ctx, stateFailed)
		return fmt.Errorf("resolve metadata: %w", err)
	}

	logger.InfoKV(ctx, "Resolved package metadata",
		"name", meta.Name, "version", meta.Version, "architecture", meta.Architecture)

	outPath := filepath.Join(b.cfg.OutputDir, deb.ArchiveName(meta))

	stagingRoot := b.cfg.StagingRoot
	if stagingRoot == "" {
		stagingRoot = filepath.Join(os.TempDir(), "debpack-"+meta.Name)
	}

	b.setState(ctx, stateStaging)

	tree, err := staging.Build(ctx, stagingRoot, b.cfg.BinaryPath, meta.Name)
	if err != nil {
		b.setState(ctx, stateFailed)
		return fmt.Errorf("build staging tree: %w", err)
	}

	defer func() {
		b.setState(ctx, stateCleaningUp)

		if removeErr := tree.Remove(); removeErr != nil {
			logger.WarnKV(ctx, "Staging cleanup failed, residue left for the next run", "error", removeErr)
		}

		if err != nil {
			b.setState(ctx, stateFailed)
		} else {
			b.setState(ctx, stateDone)
		}
	}()

	if b.cfg.ControlFile != "" {
		err = tree.CopyControl(b.cfg.ControlFile)
	} else {
		err = tree.WriteControl(deb.RenderControl(meta))
	}

	if err != nil {
		return err
	}

	b.setState(ctx, stateNormalizing)

	if err = tree.Normalize(); err != nil {
		return err
	}

	b.setState(ctx, stateArchiving)

	if err = b.archiver.Build(ctx, tree.Root(), outPath); err != nil {
		return fmt.Errorf("build archive: %w", err)
	}

	digest, sumErr := deb.WriteChecksum(outPath)
	if sumErr != nil {
		logger.WarnKV(ctx, "Checksum sidecar not written", "error", sumErr)
	} else {
		logger.InfoKV(ctx, "Produced archive", "path", outPath, "blake3", digest)
	}

	if b.cfg.Install {
		b.setState(ctx, stateInstalling)

		if installErr := b.installer(ctx, outPath); installErr != nil {
			// The archive is already complete and stays usable for manual install.
			logger.ErrorKV(ctx, "Install failed, archive remains usable",
				"archive", outPath, "error", installErr)

			err = fmt.Errorf("install package: %w", installErr)

			return err
		}

		logger.InfoKV(ctx, "Installed package", "archive", outPath)
	}

	return nil
}
