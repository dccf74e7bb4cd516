package libpath

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/envbox-dev/envbox/internal/pkgmgr"
)

// Querier answers "where does this package keep its shared libraries".
// *pkgmgr.Backend implements it for host queries; container-mode
// provisioning wraps a backend with an in-container runner.
type Querier interface {
	QueryLibDirs(ctx context.Context, id string) ([]string, error)
}

// Resolver locates the shared-library directories of packages and joins
// them into library search path values.
//
// Resolution strategy per package:
//  1. Ask the querier for the package's file list (dpkg -L and friends)
//     and keep the directories holding shared objects.
//  2. Fall back to probing well-known library roots for files named
//     lib<pkg>*.so* / lib<pkg>*.dylib.
//
// A nil querier skips step 1, which keeps the resolver usable in tests
// and on hosts without a supported package manager.
type Resolver struct {
	// querier answers file-list queries. May be nil.
	querier Querier

	// roots are the directories probed in fallback resolution, in
	// priority order.
	roots []string
}

// NewResolver creates a Resolver for the given querier. extraRoots are
// probed before the platform defaults, letting config add custom
// install prefixes.
func NewResolver(querier Querier, extraRoots []string) *Resolver {
	roots := make([]string, 0, len(extraRoots)+6)
	roots = append(roots, extraRoots...)
	roots = append(roots, DefaultRoots()...)
	return &Resolver{
		querier: querier,
		roots:   roots,
	}
}

// NewQueryResolver creates a Resolver that only consults the querier and
// never probes the local filesystem. Used for container-mode sandboxes,
// where host library roots say nothing about the container.
func NewQueryResolver(querier Querier) *Resolver {
	return &Resolver{querier: querier}
}

// DefaultRoots returns the platform's conventional shared-library
// directories in search priority order.
func DefaultRoots() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/opt/homebrew/lib",
			"/usr/local/lib",
			"/usr/lib",
		}
	default:
		// Debian-family multiarch directories are keyed by the GNU triplet
		// prefix, which follows the machine architecture.
		multiarch := ""
		switch runtime.GOARCH {
		case "amd64":
			multiarch = "/usr/lib/x86_64-linux-gnu"
		case "arm64":
			multiarch = "/usr/lib/aarch64-linux-gnu"
		}

		roots := make([]string, 0, 5)
		if multiarch != "" {
			roots = append(roots, multiarch)
		}
		return append(roots,
			"/usr/lib",
			"/usr/lib64",
			"/usr/local/lib",
		)
	}
}

// LibDirs resolves the shared-library directories for one package
// identifier. An empty result means the package's libraries could not
// be located; that is not an error, since callers may be planning an
// environment whose packages are not installed yet.
func (r *Resolver) LibDirs(ctx context.Context, pkg string) []string {
	if r.querier != nil {
		dirs, err := r.querier.QueryLibDirs(ctx, pkg)
		if err == nil && len(dirs) > 0 {
			return dirs
		}
		if err != nil {
			log.WithField("package", pkg).WithError(err).
				Debug("library query failed, probing roots")
		}
	}

	return r.probeRoots(pkg)
}

// probeRoots scans the library roots for shared objects belonging to the
// package. A root is included when it directly contains a matching file
// or has a subdirectory named after the package that contains one.
func (r *Resolver) probeRoots(pkg string) []string {
	var dirs []string

	for _, root := range r.roots {
		if containsLibFor(root, pkg) {
			dirs = append(dirs, root)
			continue
		}
		// Some packages install into a private subdirectory,
		// e.g. /usr/lib/ffmpeg.
		sub := filepath.Join(root, pkg)
		if containsLibFor(sub, pkg) || containsSharedObjects(sub) {
			dirs = append(dirs, sub)
		}
	}

	return dirs
}

// containsLibFor reports whether dir holds a shared object whose name
// starts with lib<pkg>. The package name is lowercased for the match
// since library sonames are conventionally lowercase.
func containsLibFor(dir, pkg string) bool {
	pattern := filepath.Join(dir, "lib"+strings.ToLower(pkg)+"*")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return false
	}
	for _, m := range matches {
		if pkgmgr.IsSharedObject(m) {
			return true
		}
	}
	return false
}

// containsSharedObjects reports whether dir holds any shared object.
func containsSharedObjects(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && pkgmgr.IsSharedObject(e.Name()) {
			return true
		}
	}
	return false
}

// Compute builds a library search path value from the given package
// identifiers: each package's directories are gathered in declaration
// order and joined. Packages whose libraries could not be located are
// returned in missing so the caller can decide whether that is fatal.
func (r *Resolver) Compute(ctx context.Context, pkgs []string) (value string, missing []string) {
	var all []string
	for _, pkg := range pkgs {
		dirs := r.LibDirs(ctx, pkg)
		if len(dirs) == 0 {
			missing = append(missing, pkg)
			continue
		}
		all = append(all, dirs...)
	}
	return Join(all), missing
}

// Join concatenates directories with the OS path-list separator,
// dropping duplicates while preserving first-seen order. Shadowed
// duplicate entries would never be consulted by the loader, so they
// only add noise.
func Join(dirs []string) string {
	seen := make(map[string]bool, len(dirs))
	unique := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		unique = append(unique, d)
	}
	return strings.Join(unique, string(os.PathListSeparator))
}
