// validate.go checks that a parsed manifest is well-formed: the deps
// sequence is present and sane, env declarations have valid names and
// recognized value shapes, and libraryPath references resolve to
// declared packages.
package manifest

import (
	"fmt"
	"strings"

	"github.com/envbox-dev/envbox/internal/model"
	"github.com/envbox-dev/envbox/internal/pkgmgr"
)

// ValidationError represents a specific validation failure in a manifest.
type ValidationError struct {
	// Field is the manifest field path that failed validation
	// (e.g. "deps[2]", "env.LD_LIBRARY_PATH").
	Field string

	// Message describes what's wrong with the field value.
	Message string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("manifest validation error: %s: %s", e.Field, e.Message)
}

// Validate performs well-formedness checks on a parsed manifest and
// returns a list of validation errors (empty list = valid manifest).
//
// Checks performed:
//   - deps must be present and non-empty
//   - dep entries must be non-empty and unique
//   - env variable names must follow POSIX naming rules
//   - env values must be literal strings or libraryPath objects
//   - libraryPath entries must reference packages declared in deps
//   - name, if set, must be a valid sandbox name
//   - backend, if set, must be a known package manager
func Validate(raw *RawManifest) []ValidationError {
	var errs []ValidationError

	// deps is the core of the declaration: a manifest that installs
	// nothing has no reason to exist.
	if len(raw.Deps) == 0 {
		errs = append(errs, ValidationError{
			Field:   "deps",
			Message: "deps must be a non-empty sequence of package identifiers",
		})
	}

	// Track declared packages for libraryPath reference checks, and for
	// duplicate detection. The first occurrence wins; later duplicates
	// are flagged with their index.
	declared := make(map[string]bool, len(raw.Deps))
	for i, dep := range raw.Deps {
		if strings.TrimSpace(dep) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("deps[%d]", i),
				Message: "package identifier must not be empty",
			})
			continue
		}
		if declared[dep] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("deps[%d]", i),
				Message: fmt.Sprintf("duplicate package identifier %q", dep),
			})
			continue
		}
		declared[dep] = true
	}

	// Env names are iterated in sorted order so repeated validation runs
	// produce identical error lists.
	for _, name := range raw.EnvNames() {
		field := "env." + name

		if err := model.ValidateEnvName(name); err != nil {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: err.Error(),
			})
		}

		value, err := ParseEnvValue(raw.Env[name])
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: err.Error(),
			})
			continue
		}

		if !value.IsLibraryPath {
			continue
		}

		if len(value.LibraryPath) == 0 {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "libraryPath must name at least one package",
			})
		}

		// A libraryPath value can only be computed for packages the
		// manifest actually provisions.
		for _, pkg := range value.LibraryPath {
			if !declared[pkg] {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("libraryPath references %q, which is not listed in deps", pkg),
				})
			}
		}
	}

	if raw.Name != "" {
		if err := model.ValidateName(raw.Name); err != nil {
			errs = append(errs, ValidationError{
				Field:   "name",
				Message: err.Error(),
			})
		}
	}

	if raw.Backend != "" && !pkgmgr.IsKnown(raw.Backend) {
		errs = append(errs, ValidationError{
			Field:   "backend",
			Message: fmt.Sprintf("unknown backend %q (valid: %s)", raw.Backend, strings.Join(pkgmgr.KnownNames(), ", ")),
		})
	}

	return errs
}

// ValidateFile validates a manifest file: it runs Validate on the parsed
// content and additionally reports unrecognized top-level keys, which
// Load silently ignores.
func ValidateFile(path string, raw *RawManifest) []ValidationError {
	errs := Validate(raw)

	for _, key := range UnknownKeys(path) {
		errs = append(errs, ValidationError{
			Field:   key,
			Message: "unrecognized top-level key (recognized: name, deps, env, image, backend)",
		})
	}

	return errs
}
