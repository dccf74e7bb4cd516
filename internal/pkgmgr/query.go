// query.go locates the shared-library directories of installed packages
// by asking the backend for the package's file list (or install prefix)
// and filtering for shared objects.
package pkgmgr

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Runner executes a backend query command and returns its stdout.
// The default runner executes on the host; container-mode provisioning
// supplies a runner that executes inside the sandbox container.
type Runner func(ctx context.Context, argv []string) (string, error)

// hostRunner executes a query command on the host via os/exec.
func hostRunner(ctx context.Context, argv []string) (string, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	output, err := cmd.Output()
	return string(output), err
}

// QueryLibDirs returns the directories where an installed package keeps
// its shared libraries on the host. See QueryLibDirsVia.
func (b *Backend) QueryLibDirs(ctx context.Context, id string) ([]string, error) {
	return b.QueryLibDirsVia(ctx, hostRunner, id)
}

// QueryLibDirsVia returns a package's shared-library directories using
// the given runner, in the order the backend reports them, with
// duplicates removed.
//
// For file-list backends (dpkg -L, apk info -L, rpm -ql, pacman -Qlq)
// the output is scanned for shared-object files and their parent
// directories are collected. For prefix backends (brew --prefix) the
// reported prefix plus /lib is returned.
//
// The package identifier is resolved through the alias table before the
// query runs.
func (b *Backend) QueryLibDirsVia(ctx context.Context, run Runner, id string) ([]string, error) {
	pkg := b.ResolvePackage(id)

	argv := make([]string, 0, len(b.listArgv)+1)
	argv = append(argv, b.listArgv...)
	argv = append(argv, pkg)

	output, err := run(ctx, argv)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s for package %q: %w", b.Name, pkg, err)
	}

	switch b.style {
	case queryPrefix:
		prefix := strings.TrimSpace(output)
		if prefix == "" {
			return nil, fmt.Errorf("%s reported no prefix for package %q", b.Name, pkg)
		}
		return []string{filepath.Join(prefix, "lib")}, nil

	default:
		return LibDirsFromFileList(strings.Split(output, "\n")), nil
	}
}

// LibDirsFromFileList extracts the parent directories of shared-library
// files from a package file listing. Order follows the listing; each
// directory appears once.
//
// apk info -L prints paths without a leading slash; those are normalized
// so all backends yield absolute directories.
func LibDirsFromFileList(files []string) []string {
	var dirs []string
	seen := make(map[string]bool)

	for _, f := range files {
		f = strings.TrimSpace(f)
		if f == "" || !IsSharedObject(f) {
			continue
		}
		if !strings.HasPrefix(f, "/") {
			f = "/" + f
		}
		dir := filepath.Dir(f)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	return dirs
}

// IsSharedObject reports whether a file path looks like a shared library:
// ELF shared objects (libfoo.so, libfoo.so.1.2.3) and Mach-O dylibs.
func IsSharedObject(path string) bool {
	base := filepath.Base(path)

	if strings.HasSuffix(base, ".dylib") {
		return true
	}
	if strings.HasSuffix(base, ".so") {
		return true
	}
	// Versioned sonames: libz.so.1, libssl.so.3.0.2. The marker must be
	// an interior ".so." segment, not just any ".so" substring.
	return strings.Contains(base, ".so.")
}
