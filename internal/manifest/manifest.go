package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/envbox-dev/envbox/internal/model"
)

// RawManifest represents the raw structure of a manifest file.
//
// The env values use interface{} because the manifest format allows two
// value shapes for the same key: a literal string, or an object with a
// "libraryPath" list. ParseEnvValue normalizes both into EnvValue.
type RawManifest struct {
	// Name is the display name for the sandbox. When empty, the CLI
	// derives a name from the manifest's directory.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Deps is the ordered sequence of package identifiers to provision.
	// Order is preserved through planning, installation, and labels.
	Deps []string `json:"deps" yaml:"deps"`

	// Env maps environment variable names to their declared values.
	// Each value is either a string or a map with a "libraryPath" key.
	Env map[string]interface{} `json:"env,omitempty" yaml:"env,omitempty"`

	// Image is the base container image for container-mode sandboxes.
	Image string `json:"image,omitempty" yaml:"image,omitempty"`

	// Backend overrides the auto-detected package manager backend.
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
}

// EnvValue is the normalized form of a single env declaration.
// Exactly one of Literal / LibraryPath is meaningful, discriminated
// by IsLibraryPath.
type EnvValue struct {
	// Literal is the verbatim value for literal declarations.
	Literal string

	// LibraryPath lists the package identifiers whose shared-library
	// directories are joined to produce the value, in declared order.
	LibraryPath []string

	// IsLibraryPath is true when the declaration was a libraryPath object.
	IsLibraryPath bool
}

// Load reads a manifest file and parses it into a RawManifest.
//
// The format is selected by file extension: .yaml/.yml files are parsed
// with yaml.v3, everything else is treated as JSONC (comments and
// trailing commas stripped with tidwall/jsonc, then parsed with
// encoding/json). Unknown top-level keys are ignored here; Validate
// reports them.
//
// Returns a CLIError with ExitManifestNotFound if the file does not exist.
func Load(path string) (*RawManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(
				model.ExitManifestNotFound,
				fmt.Sprintf("manifest not found: %s", path),
				err,
			)
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var raw RawManifest
	if isYAMLPath(path) {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, model.WrapCLIError(
				model.ExitManifestInvalid,
				fmt.Sprintf("failed to parse YAML manifest at %s", path),
				err,
			)
		}
		return &raw, nil
	}

	// JSONC is the primary format: the original sandbox declarations this
	// tool consumes routinely carry comments, so comments and trailing
	// commas are stripped before handing the bytes to encoding/json.
	cleanJSON := jsonc.ToJSON(data)
	if err := json.Unmarshal(cleanJSON, &raw); err != nil {
		return nil, model.WrapCLIError(
			model.ExitManifestInvalid,
			fmt.Sprintf("failed to parse manifest at %s", path),
			err,
		)
	}

	return &raw, nil
}

// Hash returns the hex SHA-256 of a manifest file's content.
// The hash is recorded on provisioned sandboxes (as a Docker label in
// container mode) and compared later to detect stale sandboxes.
func Hash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read manifest for hashing: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ParseEnvValue normalizes a raw env declaration into an EnvValue.
//
// Accepted shapes:
//   - string: a literal value
//   - map with a "libraryPath" key holding a list of strings: a computed
//     library search path
//
// YAML and JSON both decode objects into map[string]interface{} here, so
// a single switch covers both formats.
func ParseEnvValue(v interface{}) (EnvValue, error) {
	switch val := v.(type) {
	case string:
		return EnvValue{Literal: val}, nil

	case map[string]interface{}:
		rawList, ok := val["libraryPath"]
		if !ok {
			keys := make([]string, 0, len(val))
			for k := range val {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			return EnvValue{}, fmt.Errorf("env value object must have a libraryPath key (got keys: %s)", strings.Join(keys, ", "))
		}

		list, ok := rawList.([]interface{})
		if !ok {
			return EnvValue{}, fmt.Errorf("libraryPath must be a list of package identifiers")
		}

		pkgs := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return EnvValue{}, fmt.Errorf("libraryPath entries must be strings (got %T)", item)
			}
			pkgs = append(pkgs, s)
		}
		return EnvValue{LibraryPath: pkgs, IsLibraryPath: true}, nil

	default:
		return EnvValue{}, fmt.Errorf("env value must be a string or a libraryPath object (got %T)", v)
	}
}

// EnvNames returns the manifest's env variable names in sorted order.
// Sorting makes plan output, rendered env files, and labels deterministic
// regardless of map iteration order.
func (m *RawManifest) EnvNames() []string {
	names := make([]string, 0, len(m.Env))
	for name := range m.Env {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// recognizedKeys are the top-level manifest keys this tool understands.
// deps and env are the core declaration; name, image, and backend are
// tool extensions.
var recognizedKeys = map[string]bool{
	"name":    true,
	"deps":    true,
	"env":     true,
	"image":   true,
	"backend": true,
}

// UnknownKeys reports top-level keys in a manifest file that are not part
// of the recognized set. The result is sorted for stable diagnostics.
//
// Parsing errors are deliberately swallowed (empty result): Load already
// reports malformed files with a better message, and UnknownKeys is only
// a supplementary validate-time check.
func UnknownKeys(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	generic := map[string]interface{}{}
	if isYAMLPath(path) {
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil
		}
	} else {
		if err := json.Unmarshal(jsonc.ToJSON(data), &generic); err != nil {
			return nil
		}
	}

	var unknown []string
	for key := range generic {
		if !recognizedKeys[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// isYAMLPath reports whether a manifest path should be parsed as YAML.
func isYAMLPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
