package envfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/envbox-dev/envbox/internal/libpath"
	"github.com/envbox-dev/envbox/internal/manifest"
	"github.com/envbox-dev/envbox/internal/model"
)

// fakeQuerier returns canned library directories per package identifier.
type fakeQuerier struct {
	dirs map[string][]string
}

func (f *fakeQuerier) QueryLibDirs(ctx context.Context, id string) ([]string, error) {
	return f.dirs[id], nil
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"shell", "Shell", "dotenv", "JSON"} {
		_, err := ParseFormat(s)
		assert.NoError(t, err, "format %q should parse", s)
	}

	_, err := ParseFormat("toml")
	assert.Error(t, err)
}

func TestBuild_LiteralAndLibraryPath(t *testing.T) {
	raw := &manifest.RawManifest{
		Deps: []string{"ffmpeg", "zlib"},
		Env: map[string]interface{}{
			"AUDIO_QUALITY": "320k",
			"LD_LIBRARY_PATH": map[string]interface{}{
				"libraryPath": []interface{}{"ffmpeg", "zlib"},
			},
		},
	}
	resolver := libpath.NewQueryResolver(&fakeQuerier{dirs: map[string][]string{
		"ffmpeg": {"/usr/lib/x86_64-linux-gnu"},
		"zlib":   {"/usr/lib"},
	}})

	vars, missing, err := Build(context.Background(), raw, resolver)
	require.NoError(t, err)
	assert.Empty(t, missing)
	require.Len(t, vars, 2)

	// Sorted name order: AUDIO_QUALITY before LD_LIBRARY_PATH.
	assert.Equal(t, "AUDIO_QUALITY", vars[0].Name)
	assert.Equal(t, "320k", vars[0].Value)
	assert.Equal(t, model.SourceLiteral, vars[0].Source)

	sep := string(os.PathListSeparator)
	assert.Equal(t, "LD_LIBRARY_PATH", vars[1].Name)
	assert.Equal(t, "/usr/lib/x86_64-linux-gnu"+sep+"/usr/lib", vars[1].Value)
	assert.Equal(t, model.SourceLibraryPath, vars[1].Source)
	assert.Equal(t, []string{"ffmpeg", "zlib"}, vars[1].Packages)
}

func TestBuild_ReportsMissingPackages(t *testing.T) {
	raw := &manifest.RawManifest{
		Deps: []string{"ffmpeg", "zlib"},
		Env: map[string]interface{}{
			"LD_LIBRARY_PATH": map[string]interface{}{
				"libraryPath": []interface{}{"ffmpeg", "zlib"},
			},
		},
	}
	resolver := libpath.NewQueryResolver(&fakeQuerier{dirs: map[string][]string{
		"zlib": {"/usr/lib"},
	}})

	vars, missing, err := Build(context.Background(), raw, resolver)
	require.NoError(t, err)
	assert.Equal(t, []string{"ffmpeg"}, missing)
	require.Len(t, vars, 1)
	assert.Equal(t, "/usr/lib", vars[0].Value)
}

func TestRender_Shell(t *testing.T) {
	vars := []model.EnvVar{
		{Name: "AUDIO_QUALITY", Value: "320k"},
		{Name: "GREETING", Value: "it's here"},
	}

	out, err := Render(vars, FormatShell)
	require.NoError(t, err)
	assert.Equal(t, "export AUDIO_QUALITY='320k'\nexport GREETING='it'\\''s here'\n", out)
}

func TestRender_Dotenv(t *testing.T) {
	vars := []model.EnvVar{
		{Name: "LD_LIBRARY_PATH", Value: "/usr/lib"},
	}

	out, err := Render(vars, FormatDotenv)
	require.NoError(t, err)
	assert.Equal(t, "LD_LIBRARY_PATH=/usr/lib\n", out)
}

// TestRender_Dotenv_EscapesAwkwardValues verifies that values containing
// newlines or quotes stay on one line, keeping the file parseable.
func TestRender_Dotenv_EscapesAwkwardValues(t *testing.T) {
	vars := []model.EnvVar{
		{Name: "MULTI", Value: "line one\nline two"},
		{Name: "QUOTED", Value: `say "hi"`},
		{Name: "PLAIN", Value: "/usr/lib"},
	}

	out, err := Render(vars, FormatDotenv)
	require.NoError(t, err)
	assert.Equal(t,
		"MULTI=\"line one\\nline two\"\n"+
			"QUOTED=\"say \\\"hi\\\"\"\n"+
			"PLAIN=/usr/lib\n",
		out)
}

func TestRender_JSON(t *testing.T) {
	vars := []model.EnvVar{
		{Name: "LD_LIBRARY_PATH", Value: "/usr/lib", Source: model.SourceLibraryPath, Packages: []string{"zlib"}},
	}

	out, err := Render(vars, FormatJSON)
	require.NoError(t, err)

	var decoded []model.EnvVar
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, vars, decoded)
}

func TestRender_JSON_EmptySetIsArray(t *testing.T) {
	out, err := Render(nil, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestWriteScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".envbox", "env.sh")
	vars := []model.EnvVar{{Name: "LD_LIBRARY_PATH", Value: "/usr/lib"}}

	require.NoError(t, WriteScript(path, vars))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "# Generated by envbox apply")
	assert.Contains(t, string(content), "export LD_LIBRARY_PATH='/usr/lib'\n")
}

func TestApply_OverridesAndAppends(t *testing.T) {
	base := []string{"PATH=/usr/bin", "HOME=/root", "LD_LIBRARY_PATH=/old"}
	vars := []model.EnvVar{
		{Name: "LD_LIBRARY_PATH", Value: "/usr/lib"},
		{Name: "AUDIO_QUALITY", Value: "320k"},
	}

	result := Apply(base, vars)
	assert.Equal(t, []string{
		"PATH=/usr/bin",
		"HOME=/root",
		"LD_LIBRARY_PATH=/usr/lib",
		"AUDIO_QUALITY=320k",
	}, result)
}

func TestPairs(t *testing.T) {
	vars := []model.EnvVar{
		{Name: "A", Value: "1"},
		{Name: "B", Value: "2"},
	}
	assert.Equal(t, []string{"A=1", "B=2"}, Pairs(vars))
}
