package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the packaging settings for a debpack run.
type Config struct {
	// ManifestPath is the path to the YAML package manifest.
	ManifestPath string `yaml:"manifest"`
	// BinaryPath is the path to the prebuilt release binary to package.
	BinaryPath string `yaml:"binary"`
	// ControlFile is an optional pre-written control descriptor copied
	// verbatim into the staging tree instead of rendering one from the manifest.
	ControlFile string `yaml:"control_file"`
	// StagingRoot is the staging directory root. Empty means a
	// package-scoped directory under the system temp dir.
	StagingRoot string `yaml:"staging_root"`
	// OutputDir is the directory receiving the produced archive.
	OutputDir string `yaml:"output_dir"`
	// Backend selects the archiver: "dpkg-deb" or "native".
	Backend string `yaml:"backend"`
	// Compression selects the native backend's data member compression:
	// "gzip" or "xz". Ignored by the dpkg-deb backend.
	Compression string `yaml:"compression"`
	// Install requests installation of the produced archive after a
	// successful build. Requires elevated privileges.
	Install bool `yaml:"install"`
}

const (
	// DefaultConfigFilename is the default filename for packaging settings.
	DefaultConfigFilename = "debpack.yaml"

	// DefaultManifestFilename is the default filename for the package manifest.
	DefaultManifestFilename = "debpack-manifest.yaml"

	// BackendTool invokes the external dpkg-deb binary.
	BackendTool = "dpkg-deb"

	// BackendNative builds the archive in-process without external tools.
	BackendNative = "native"

	// CompressionGzip compresses the native data member with gzip.
	CompressionGzip = "gzip"

	// CompressionXz compresses the native data member with xz.
	CompressionXz = "xz"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errBinaryRequired is returned when the release binary path is missing.
	errBinaryRequired = errors.New("release binary path must be provided")
	// errUnknownBackend is returned for an unrecognized archiver backend.
	errUnknownBackend = errors.New("unknown archiver backend")
	// errUnknownCompression is returned for an unrecognized compression name.
	errUnknownCompression = errors.New("unknown compression")
)

// Default returns a configuration populated with defaults only.
// The binary path is intentionally left empty; Validate rejects it until
// the caller fills it in from flags.
func Default() *Config {
	return &Config{
		ManifestPath: DefaultManifestFilename,
		OutputDir:    ".",
		Backend:      BackendTool,
		Compression:  CompressionGzip,
	}
}

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields
// and fills in defaults for optional ones.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.BinaryPath == "" {
		return errBinaryRequired
	}

	if cfg.ManifestPath == "" {
		cfg.ManifestPath = DefaultManifestFilename
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}

	if cfg.Backend == "" {
		cfg.Backend = BackendTool
	}

	if cfg.Backend != BackendTool && cfg.Backend != BackendNative {
		return fmt.Errorf("%q: %w", cfg.Backend, errUnknownBackend)
	}

	if cfg.Compression == "" {
		cfg.Compression = CompressionGzip
	}

	if cfg.Compression != CompressionGzip && cfg.Compression != CompressionXz {
		return fmt.Errorf("%q: %w", cfg.Compression, errUnknownCompression)
	}

	return nil
}
