package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Metadata identifies the package being built. It is resolved once per run
// and never mutated afterwards.
type Metadata struct {
	// Name is the package name, which is also the installed binary name.
	Name string `yaml:"name"`
	// Version is the semantic version string. It is treated as opaque.
	Version string `yaml:"version"`
	// Architecture is the target Debian architecture (e.g. "amd64").
	Architecture string `yaml:"architecture"`
	// Maintainer is the "Name <email>" contact recorded in the control file.
	Maintainer string `yaml:"maintainer"`
	// Description is the package description. The first line becomes the
	// control file synopsis; further lines become the extended description.
	Description string `yaml:"description"`
	// Section is the archive section (defaults to "utils").
	Section string `yaml:"section"`
	// Priority is the package priority (defaults to "optional").
	Priority string `yaml:"priority"`
	// Depends lists runtime package dependencies, if any.
	Depends []string `yaml:"depends"`
	// VersionFrom optionally points at the application's own build
	// descriptor; when set, its version field overrides Version so the
	// manifest never carries a duplicated version literal.
	VersionFrom string `yaml:"version_from"`
}

const (
	// DefaultSection is used when the manifest leaves the section empty.
	DefaultSection = "utils"

	// DefaultPriority is used when the manifest leaves the priority empty.
	DefaultPriority = "optional"
)

var (
	// errNameRequired is returned when the manifest has no package name.
	errNameRequired = errors.New("package name must be provided")
	// errVersionRequired is returned when no version could be resolved.
	errVersionRequired = errors.New("package version must be provided")
	// errMaintainerRequired is returned when the manifest has no maintainer.
	errMaintainerRequired = errors.New("package maintainer must be provided")
	// errDescriptionRequired is returned when the manifest has no description.
	errDescriptionRequired = errors.New("package description must be provided")
	// errUnsupportedArch is returned for an architecture outside the known set.
	errUnsupportedArch = errors.New("unsupported architecture")
	// errVersionNotFound is returned when the build descriptor has no version field.
	errVersionNotFound = errors.New("no version field in build descriptor")
)

// supportedArchitectures is the set of Debian architectures the tool accepts.
//
//nolint:gochecknoglobals // Static lookup table.
var supportedArchitectures = map[string]struct{}{
	"amd64": {},
	"arm64": {},
	"armhf": {},
	"i386":  {},
	"all":   {},
}

// Load reads the package manifest from the provided path, resolves the
// version from the build descriptor when one is referenced, and validates
// the result. It performs no filesystem mutation.
func Load(path string) (*Metadata, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var meta Metadata
	if err := yaml.Unmarshal(contents, &meta); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}

	if meta.VersionFrom != "" {
		// Descriptor paths are relative to the manifest location.
		descriptor := meta.VersionFrom
		if !filepath.IsAbs(descriptor) {
			descriptor = filepath.Join(filepath.Dir(path), descriptor)
		}

		version, err := versionFromDescriptor(descriptor)
		if err != nil {
			return nil, fmt.Errorf("resolve version from %s: %w", meta.VersionFrom, err)
		}

		meta.Version = version
	}

	if err := Validate(&meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// Validate checks resolved metadata for required fields
// and fills in defaults for optional ones.
func Validate(meta *Metadata) error {
	if meta.Name == "" {
		return errNameRequired
	}

	if meta.Version == "" {
		return errVersionRequired
	}

	if meta.Maintainer == "" {
		return errMaintainerRequired
	}

	if meta.Description == "" {
		return errDescriptionRequired
	}

	if _, ok := supportedArchitectures[meta.Architecture]; !ok {
		return fmt.Errorf("%q: %w", meta.Architecture, errUnsupportedArch)
	}

	if meta.Section == "" {
		meta.Section = DefaultSection
	}

	if meta.Priority == "" {
		meta.Priority = DefaultPriority
	}

	return nil
}

// versionFromDescriptor extracts the version from the application's build
// descriptor. Both `version = "x.y.z"` (Cargo.toml style) and `version: x.y.z`
// (YAML style) assignments are recognized; the first match wins.
func versionFromDescriptor(path string) (string, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("open build descriptor: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "version") {
			continue
		}

		rest := strings.TrimSpace(strings.TrimPrefix(line, "version"))
		if rest == "" {
			continue
		}

		if rest[0] != '=' && rest[0] != ':' {
			continue
		}

		value := strings.TrimSpace(rest[1:])
		value = strings.Trim(value, `"'`)

		if value != "" {
			return value, nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan build descriptor: %w", err)
	}

	return "", errVersionNotFound
}
