package pkgmgr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	b, err := ByName("apt")
	require.NoError(t, err)
	assert.Equal(t, "apt", b.Name)

	_, err = ByName("nixpkgs")
	assert.Error(t, err)
}

func TestIsKnown(t *testing.T) {
	for _, name := range []string{"apt", "apk", "dnf", "pacman", "brew"} {
		assert.True(t, IsKnown(name), "backend %q should be known", name)
	}
	assert.False(t, IsKnown("yum"))
	assert.False(t, IsKnown(""))
}

func TestKnownNames_PriorityOrder(t *testing.T) {
	assert.Equal(t, []string{"apt", "apk", "dnf", "pacman", "brew"}, KnownNames())
}

func TestResolvePackage_Aliases(t *testing.T) {
	apt, err := ByName("apt")
	require.NoError(t, err)

	assert.Equal(t, "python3.11", apt.ResolvePackage("python311"))
	assert.Equal(t, "python3-pip", apt.ResolvePackage("pip"))
	assert.Equal(t, "zlib1g", apt.ResolvePackage("zlib"))
	// Identifiers without an alias pass through unchanged.
	assert.Equal(t, "ffmpeg", apt.ResolvePackage("ffmpeg"))

	brew, err := ByName("brew")
	require.NoError(t, err)
	assert.Equal(t, "python@3.11", brew.ResolvePackage("python311"))
}

func TestInstallArgv_PreservesOrder(t *testing.T) {
	apt, err := ByName("apt")
	require.NoError(t, err)

	argv := apt.InstallArgv([]string{"python311", "pip", "ffmpeg", "git", "zlib"})
	assert.Equal(t, []string{
		"apt-get", "install", "-y", "--no-install-recommends",
		"python3.11", "python3-pip", "ffmpeg", "git", "zlib1g",
	}, argv)
}

func TestUpdateArgv(t *testing.T) {
	apt, err := ByName("apt")
	require.NoError(t, err)
	assert.Equal(t, []string{"apt-get", "update"}, apt.UpdateArgv())

	brew, err := ByName("brew")
	require.NoError(t, err)
	assert.Nil(t, brew.UpdateArgv())
}

func TestExtraEnv(t *testing.T) {
	apt, err := ByName("apt")
	require.NoError(t, err)
	assert.Contains(t, apt.ExtraEnv(), "DEBIAN_FRONTEND=noninteractive")

	apk, err := ByName("apk")
	require.NoError(t, err)
	assert.Empty(t, apk.ExtraEnv())
}

func TestQueryLibDirsVia_FileList(t *testing.T) {
	apt, err := ByName("apt")
	require.NoError(t, err)

	var gotArgv []string
	run := func(ctx context.Context, argv []string) (string, error) {
		gotArgv = argv
		return "/.\n" +
			"/usr/bin/ffmpeg\n" +
			"/usr/lib/x86_64-linux-gnu/libavcodec.so.59\n" +
			"/usr/lib/x86_64-linux-gnu/libavformat.so.59\n" +
			"/usr/share/doc/ffmpeg/README\n", nil
	}

	dirs, err := apt.QueryLibDirsVia(context.Background(), run, "ffmpeg")
	require.NoError(t, err)
	assert.Equal(t, []string{"dpkg", "-L", "ffmpeg"}, gotArgv)
	assert.Equal(t, []string{"/usr/lib/x86_64-linux-gnu"}, dirs)
}

func TestQueryLibDirsVia_ResolvesAlias(t *testing.T) {
	apt, err := ByName("apt")
	require.NoError(t, err)

	var gotArgv []string
	run := func(ctx context.Context, argv []string) (string, error) {
		gotArgv = argv
		return "/usr/lib/libz.so.1\n", nil
	}

	dirs, err := apt.QueryLibDirsVia(context.Background(), run, "zlib")
	require.NoError(t, err)
	assert.Equal(t, []string{"dpkg", "-L", "zlib1g"}, gotArgv)
	assert.Equal(t, []string{"/usr/lib"}, dirs)
}

func TestQueryLibDirsVia_Prefix(t *testing.T) {
	brew, err := ByName("brew")
	require.NoError(t, err)

	run := func(ctx context.Context, argv []string) (string, error) {
		assert.Equal(t, []string{"brew", "--prefix", "zlib"}, argv)
		return "/opt/homebrew/opt/zlib\n", nil
	}

	dirs, err := brew.QueryLibDirsVia(context.Background(), run, "zlib")
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/homebrew/opt/zlib/lib"}, dirs)
}

func TestQueryLibDirsVia_RunnerError(t *testing.T) {
	apt, err := ByName("apt")
	require.NoError(t, err)

	run := func(ctx context.Context, argv []string) (string, error) {
		return "", errors.New("package not installed")
	}

	_, err = apt.QueryLibDirsVia(context.Background(), run, "ffmpeg")
	assert.Error(t, err)
}

func TestLibDirsFromFileList(t *testing.T) {
	files := []string{
		"usr/lib/libz.so.1",          // apk style, no leading slash
		"usr/lib/libz.so.1.3",        // same dir, deduped
		"/usr/local/lib/libfoo.so",   // plain .so
		"/usr/share/man/man1/z.1.gz", // not a shared object
		"",
	}

	dirs := LibDirsFromFileList(files)
	assert.Equal(t, []string{"/usr/lib", "/usr/local/lib"}, dirs)
}

func TestIsSharedObject(t *testing.T) {
	shared := []string{
		"/usr/lib/libz.so",
		"/usr/lib/libz.so.1",
		"/usr/lib/libssl.so.3.0.2",
		"/opt/homebrew/lib/libavcodec.dylib",
	}
	for _, p := range shared {
		assert.True(t, IsSharedObject(p), "%q should be a shared object", p)
	}

	notShared := []string{
		"/usr/bin/ffmpeg",
		"/usr/lib/pkgconfig/zlib.pc",
		"/usr/share/man/man3/zlib.3.gz",
	}
	for _, p := range notShared {
		assert.False(t, IsSharedObject(p), "%q should not be a shared object", p)
	}
}
