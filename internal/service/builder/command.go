package builder

import (
	"context"
	"errors"
	"fmt"

	"github.com/roextract/debpack/internal/config"
	"github.com/roextract/debpack/internal/deb"
	"github.com/roextract/debpack/internal/logger"
)

// Options contains inputs for the packaging entry point. Flag values override
// the corresponding configuration-file fields.
type Options struct {
	// ConfigPath is an optional path to a packaging settings YAML file.
	ConfigPath string
	// ManifestPath is the path to the package manifest.
	ManifestPath string
	// BinaryPath is the path to the prebuilt release binary.
	BinaryPath string
	// ControlFile optionally names a pre-written control descriptor to copy
	// verbatim instead of rendering one from the manifest.
	ControlFile string
	// StagingRoot overrides the staging directory root.
	StagingRoot string
	// OutputDir is the directory receiving the produced archive.
	OutputDir string
	// Backend selects the archiver backend ("dpkg-deb" or "native").
	Backend string
	// Compression selects the native backend's data compression.
	Compression string
	// Install requests installation of the produced archive.
	Install bool

	// Archiver overrides backend selection. Intended for tests.
	Archiver deb.Archiver
	// Installer overrides the system install capability. Intended for tests.
	Installer deb.Installer
}

// errBuilderRunning indicates that another packaging run owns the staging area.
var errBuilderRunning = errors.New("another packaging run is in progress")

// Run executes the packaging workflow.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "debpack")

	cfg, err := resolveConfig(opts)
	if err != nil {
		return err
	}

	if isBuilderRunningNow(ctx) {
		return errBuilderRunning
	}

	if err = createRunMarker(); err != nil {
		// The guard is best-effort; a missing marker only weakens it.
		logger.WarnKV(ctx, "Unable to create run marker", "error", err)
	}

	defer removeRunMarker(ctx)

	if err = newBuilder(cfg, opts).run(ctx); err != nil {
		return fmt.Errorf("packaging failed: %w", err)
	}

	logger.Info(ctx, "Packaging completed successfully")

	return nil
}

// resolveConfig loads settings when a config file is named, applies flag
// overrides and validates the merged result.
func resolveConfig(opts *Options) (*config.Config, error) {
	cfg := config.Default()

	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load configuration: %w", err)
		}

		cfg = loaded
	}

	if opts.ManifestPath != "" {
		cfg.ManifestPath = opts.ManifestPath
	}

	if opts.BinaryPath != "" {
		cfg.BinaryPath = opts.BinaryPath
	}

	if opts.ControlFile != "" {
		cfg.ControlFile = opts.ControlFile
	}

	if opts.StagingRoot != "" {
		cfg.StagingRoot = opts.StagingRoot
	}

	if opts.OutputDir != "" {
		cfg.OutputDir = opts.OutputDir
	}

	if opts.Backend != "" {
		cfg.Backend = opts.Backend
	}

	if opts.Compression != "" {
		cfg.Compression = opts.Compression
	}

	if opts.Install {
		cfg.Install = true
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
