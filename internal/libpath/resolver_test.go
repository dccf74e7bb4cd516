package libpath

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQuerier returns canned library directories per package identifier.
type fakeQuerier struct {
	dirs map[string][]string
	errs map[string]error
}

func (f *fakeQuerier) QueryLibDirs(ctx context.Context, id string) ([]string, error) {
	if err, ok := f.errs[id]; ok {
		return nil, err
	}
	return f.dirs[id], nil
}

func TestJoin(t *testing.T) {
	sep := string(os.PathListSeparator)

	value := Join([]string{"/usr/lib", "/usr/local/lib", "/usr/lib", "", "/opt/lib"})
	assert.Equal(t, "/usr/lib"+sep+"/usr/local/lib"+sep+"/opt/lib", value)

	assert.Equal(t, "", Join(nil))
	assert.Equal(t, "/usr/lib", Join([]string{"/usr/lib", "/usr/lib"}))
}

func TestCompute_PreservesDeclarationOrder(t *testing.T) {
	q := &fakeQuerier{dirs: map[string][]string{
		"ffmpeg": {"/usr/lib/x86_64-linux-gnu"},
		"zlib":   {"/usr/lib", "/usr/lib/x86_64-linux-gnu"},
	}}
	r := NewQueryResolver(q)

	value, missing := r.Compute(context.Background(), []string{"ffmpeg", "zlib"})
	require.Empty(t, missing)

	sep := string(os.PathListSeparator)
	assert.Equal(t, "/usr/lib/x86_64-linux-gnu"+sep+"/usr/lib", value)
}

func TestCompute_ReportsMissingPackages(t *testing.T) {
	q := &fakeQuerier{
		dirs: map[string][]string{"zlib": {"/usr/lib"}},
		errs: map[string]error{"ffmpeg": errors.New("not installed")},
	}
	r := NewQueryResolver(q)

	value, missing := r.Compute(context.Background(), []string{"ffmpeg", "zlib"})
	assert.Equal(t, []string{"ffmpeg"}, missing)
	assert.Equal(t, "/usr/lib", value)
}

func TestLibDirs_FallsBackToRootProbing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "libzlib.so.1"))

	q := &fakeQuerier{errs: map[string]error{"zlib": errors.New("query failed")}}
	r := NewResolver(q, []string{root})

	dirs := r.LibDirs(context.Background(), "zlib")
	assert.Equal(t, []string{root}, dirs)
}

func TestProbeRoots_PackageSubdirectory(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "ffmpeg")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	writeFile(t, filepath.Join(sub, "libavcodec.so.59"))

	r := NewResolver(nil, []string{root})

	dirs := r.LibDirs(context.Background(), "ffmpeg")
	assert.Equal(t, []string{sub}, dirs)
}

func TestProbeRoots_IgnoresNonSharedObjects(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "libzlib.a"))

	r := NewResolver(nil, []string{root})

	dirs := r.LibDirs(context.Background(), "zlib")
	assert.Empty(t, dirs)
}

func TestNewQueryResolver_NeverProbesFilesystem(t *testing.T) {
	q := &fakeQuerier{dirs: map[string][]string{}}
	r := NewQueryResolver(q)

	// With no querier hits and no roots, resolution comes up empty
	// instead of touching the host filesystem.
	dirs := r.LibDirs(context.Background(), "ffmpeg")
	assert.Empty(t, dirs)
}

func TestDefaultRoots_NotEmpty(t *testing.T) {
	assert.NotEmpty(t, DefaultRoots())
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("not a real library"), 0o644))
}
