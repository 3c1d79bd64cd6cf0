package depm

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"

	"daisyc/common"
	"daisyc/report"
)

// tomlManifest is the surface form of a `daisy.toml` file as it is unmarshaled
// from disk.  It is converted into a Manifest after validation.
type tomlManifest struct {
	Name     string `toml:"name"`
	Version  string `toml:"version"`
	AbiMajor int    `toml:"abi-major"`

	Dependencies map[string]tomlDependency `toml:"dependencies"`

	Workspace tomlWorkspace `toml:"workspace"`
}

// tomlDependency is a single entry of the `[dependencies]` table.  At most one
// of Path and Version may be omitted.
type tomlDependency struct {
	Path    string `toml:"path"`
	Version string `toml:"version"`
}

// tomlWorkspace is the `[workspace]` table.
type tomlWorkspace struct {
	Members []string `toml:"members"`
}

// -----------------------------------------------------------------------------

// Manifest is the validated form of a module's `daisy.toml`.
type Manifest struct {
	// The declared module name.
	Name string

	// The declared module version.
	Version *Version

	// The ABI major version the module is built against.
	AbiMajor int

	// The directory containing the manifest file.
	AbsPath string

	// The declared dependencies, keyed by name.
	Dependencies map[string]*Dependency

	// The expanded workspace member directories: absolute paths of member
	// directories that contain a manifest of their own.  Glob patterns in the
	// member list have already been expanded.
	WorkspaceMembers []string
}

// Dependency is a single validated dependency declaration.
type Dependency struct {
	Name string

	// The absolute path the dependency resolves to, empty for dependencies
	// located through search paths.
	Path string

	// The version requirement, nil if the dependency accepts any version.
	Spec *VersionSpec
}

// -----------------------------------------------------------------------------

// FindManifest walks up from a starting directory looking for a `daisy.toml`
// and returns the directory that contains it.
func FindManifest(startDir string) (string, bool) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, common.DaisyManifestFileName)); err == nil {
			return dir, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}

		dir = parent
	}
}

// LoadManifest loads and validates the manifest of the module rooted at the
// given directory.  It reports any errors it encounters and returns a flag
// indicating whether loading succeeded.
func LoadManifest(moduleDir string) (*Manifest, bool) {
	manifestPath := filepath.Join(moduleDir, common.DaisyManifestFileName)

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		report.ReportStdError(manifestPath, fmt.Errorf("unable to read module manifest: %s", err))
		return nil, false
	}

	var tm tomlManifest
	if err := toml.Unmarshal(data, &tm); err != nil {
		report.ReportStdError(manifestPath, fmt.Errorf("malformed module manifest: %s", err))
		return nil, false
	}

	return validateManifest(moduleDir, manifestPath, &tm)
}

// validateManifest converts an unmarshaled manifest into its validated form,
// reporting anything invalid it finds.
func validateManifest(moduleDir, manifestPath string, tm *tomlManifest) (*Manifest, bool) {
	if tm.Name == "" {
		report.ReportStdError(manifestPath, fmt.Errorf("manifest missing required field `name`"))
		return nil, false
	}

	if !isValidIdentifier(tm.Name) {
		report.ReportStdError(manifestPath, fmt.Errorf("`%s` is not a valid module name", tm.Name))
		return nil, false
	}

	if tm.Version == "" {
		report.ReportStdError(manifestPath, fmt.Errorf("manifest missing required field `version`"))
		return nil, false
	}

	version, err := ParseVersion(tm.Version)
	if err != nil {
		report.ReportStdError(manifestPath, err)
		return nil, false
	}

	if tm.AbiMajor < 0 {
		report.ReportStdError(manifestPath, fmt.Errorf("`abi-major` may not be negative"))
		return nil, false
	}

	man := &Manifest{
		Name:         tm.Name,
		Version:      version,
		AbiMajor:     tm.AbiMajor,
		AbsPath:      moduleDir,
		Dependencies: make(map[string]*Dependency),
	}

	for name, td := range tm.Dependencies {
		dep, ok := validateDependency(moduleDir, manifestPath, name, td)
		if !ok {
			return nil, false
		}

		man.Dependencies[name] = dep
	}

	members, ok := expandWorkspaceMembers(moduleDir, manifestPath, tm.Workspace.Members)
	if !ok {
		return nil, false
	}
	man.WorkspaceMembers = members

	return man, true
}

// validateDependency validates a single `[dependencies]` entry.
func validateDependency(moduleDir, manifestPath, name string, td tomlDependency) (*Dependency, bool) {
	if td.Path == "" && td.Version == "" {
		report.ReportStdError(manifestPath,
			fmt.Errorf("dependency `%s` must declare a `path`, a `version`, or both", name))
		return nil, false
	}

	dep := &Dependency{Name: name}

	if td.Path != "" {
		if filepath.IsAbs(td.Path) {
			dep.Path = filepath.Clean(td.Path)
		} else {
			dep.Path = filepath.Clean(filepath.Join(moduleDir, td.Path))
		}
	}

	if td.Version != "" {
		spec, err := ParseVersionSpec(td.Version)
		if err != nil {
			report.ReportStdError(manifestPath, fmt.Errorf("dependency `%s`: %s", name, err))
			return nil, false
		}

		dep.Spec = spec
	}

	return dep, true
}

// expandWorkspaceMembers expands the `[workspace]` member patterns into the
// list of member module directories.  Patterns may use `*` globbing; matches
// that are not directories containing a manifest are skipped.
func expandWorkspaceMembers(moduleDir, manifestPath string, patterns []string) ([]string, bool) {
	var members []string

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(moduleDir, pattern))
		if err != nil {
			report.ReportStdError(manifestPath,
				fmt.Errorf("malformed workspace member pattern `%s`", pattern))
			return nil, false
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || !info.IsDir() {
				continue
			}

			if _, err := os.Stat(filepath.Join(match, common.DaisyManifestFileName)); err != nil {
				continue
			}

			members = append(members, match)
		}
	}

	return members, true
}

// isValidIdentifier returns whether a manifest name is usable as a module
// identifier: it must be non-empty and contain only letters, digits, and
// underscores, not starting with a digit.
func isValidIdentifier(name string) bool {
	for i, r := range name {
		switch {
		case r == '_' || 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z':
		case '0' <= r && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}

	return len(name) > 0
}
