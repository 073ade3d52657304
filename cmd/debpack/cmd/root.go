package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roextract/debpack/internal/logger"
	"github.com/roextract/debpack/internal/service/builder"
	"github.com/roextract/debpack/internal/version"
)

var (
	// configPath to the packaging settings YAML file.
	configPath string

	// opts collects flag values passed to the pipeline.
	opts builder.Options

	// logLevel is the textual logging level.
	logLevel string

	// rootCmd represents the base command for building a package from a
	// prebuilt release binary.
	rootCmd = &cobra.Command{
		Use:   "debpack",
		Short: "Package a prebuilt release binary as an installable Debian archive",
		Long: "debpack stages a prebuilt release binary into a Debian filesystem layout, " +
			"normalizes permissions, builds a .deb archive named from the package manifest " +
			"and optionally installs it on the local host.",
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}

			opts.ConfigPath = configPath

			return builder.Run(ctx, &opts)
		},
	}
)

// Execute runs the debpack CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to packaging settings file")
	rootCmd.Flags().StringVarP(&opts.ManifestPath, "manifest", "m", "", "path to the package manifest")
	rootCmd.Flags().StringVarP(&opts.BinaryPath, "binary", "b", "", "path to the prebuilt release binary")
	rootCmd.Flags().StringVar(&opts.ControlFile, "control-file", "", "pre-written control descriptor to copy verbatim")
	rootCmd.Flags().StringVar(&opts.StagingRoot, "staging-dir", "", "staging directory root (defaults to the system temp dir)")
	rootCmd.Flags().StringVarP(&opts.OutputDir, "output-dir", "o", "", "directory receiving the produced archive")
	rootCmd.Flags().StringVar(&opts.Backend, "backend", "", "archiver backend: dpkg-deb or native")
	rootCmd.Flags().StringVar(&opts.Compression, "compression", "", "native backend data compression: gzip or xz")
	rootCmd.Flags().BoolVarP(&opts.Install, "install", "i", false, "install the produced archive (requires privileges)")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "info", "logging level: debug, info, warn, error or fatal")
}
