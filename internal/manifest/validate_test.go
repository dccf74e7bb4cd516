package manifest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fieldSet collects the Field values of a validation result for
// straightforward membership assertions.
func fieldSet(errs []ValidationError) map[string]bool {
	fields := make(map[string]bool, len(errs))
	for _, e := range errs {
		fields[e.Field] = true
	}
	return fields
}

// TestValidate_CleanManifest verifies that a well-formed manifest
// produces no errors.
func TestValidate_CleanManifest(t *testing.T) {
	path := filepath.Join(testdataPath(t, "music-bot"), "envbox.json")
	raw, err := Load(path)
	require.NoError(t, err)

	assert.Empty(t, ValidateFile(path, raw))
}

// TestValidate_MissingDeps verifies that an empty deps sequence is
// rejected: a manifest that installs nothing declares nothing.
func TestValidate_MissingDeps(t *testing.T) {
	errs := Validate(&RawManifest{})
	require.Len(t, errs, 1)
	assert.Equal(t, "deps", errs[0].Field)
}

// TestValidate_DepEntries verifies empty and duplicate dep detection,
// with indices in the field paths.
func TestValidate_DepEntries(t *testing.T) {
	errs := Validate(&RawManifest{
		Deps: []string{"ffmpeg", " ", "ffmpeg"},
	})

	fields := fieldSet(errs)
	assert.True(t, fields["deps[1]"], "blank dep should be flagged")
	assert.True(t, fields["deps[2]"], "duplicate dep should be flagged")
}

// TestValidate_EnvNames verifies POSIX name enforcement.
func TestValidate_EnvNames(t *testing.T) {
	errs := Validate(&RawManifest{
		Deps: []string{"git"},
		Env: map[string]interface{}{
			"9BAD":     "x",
			"GOOD_VAR": "y",
			"ALSO-BAD": "z",
		},
	})

	fields := fieldSet(errs)
	assert.True(t, fields["env.9BAD"])
	assert.True(t, fields["env.ALSO-BAD"])
	assert.False(t, fields["env.GOOD_VAR"])
}

// TestValidate_LibraryPathReferences verifies that libraryPath may only
// name packages declared in deps, and must name at least one.
func TestValidate_LibraryPathReferences(t *testing.T) {
	errs := Validate(&RawManifest{
		Deps: []string{"ffmpeg"},
		Env: map[string]interface{}{
			"LD_LIBRARY_PATH": map[string]interface{}{
				"libraryPath": []interface{}{"ffmpeg", "openssl"},
			},
			"EMPTY_PATH": map[string]interface{}{
				"libraryPath": []interface{}{},
			},
		},
	})

	require.Len(t, errs, 2)
	fields := fieldSet(errs)
	assert.True(t, fields["env.LD_LIBRARY_PATH"], "undeclared package reference should be flagged")
	assert.True(t, fields["env.EMPTY_PATH"], "empty libraryPath should be flagged")
}

// TestValidate_UnknownBackend verifies backend name checking.
func TestValidate_UnknownBackend(t *testing.T) {
	errs := Validate(&RawManifest{
		Deps:    []string{"git"},
		Backend: "nixpkgs",
	})

	require.Len(t, errs, 1)
	assert.Equal(t, "backend", errs[0].Field)
	assert.Contains(t, errs[0].Message, "nixpkgs")
}

// TestValidateFile_InvalidFixture runs the full file-level validation
// against the invalid fixture and checks that every expected violation
// is reported in one pass.
func TestValidateFile_InvalidFixture(t *testing.T) {
	path := filepath.Join(testdataPath(t, "invalid"), "envbox.json")
	raw, err := Load(path)
	require.NoError(t, err, "the invalid fixture is parseable, just not valid")

	errs := ValidateFile(path, raw)
	fields := fieldSet(errs)

	assert.True(t, fields["deps[1]"], "empty dep")
	assert.True(t, fields["deps[2]"], "duplicate dep")
	assert.True(t, fields["env.9BAD"], "invalid env name")
	assert.True(t, fields["env.LD_LIBRARY_PATH"], "libraryPath references undeclared package")
	assert.True(t, fields["env.WRONG"], "numeric env value")
	assert.True(t, fields["backend"], "unknown backend")
	assert.True(t, fields["requirements"], "unrecognized top-level key")
}
