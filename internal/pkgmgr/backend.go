package pkgmgr

import (
	"fmt"
	"os/exec"

	"github.com/envbox-dev/envbox/internal/model"
)

// queryStyle selects how a backend's library directories are derived.
type queryStyle int

const (
	// queryFileList runs a file-listing command (dpkg -L style) and keeps
	// the directories of any shared-library files in the output.
	queryFileList queryStyle = iota

	// queryPrefix runs a prefix command (brew --prefix style) and appends
	// /lib to the single path it prints.
	queryPrefix
)

// Backend describes one supported package manager.
//
// All command argvs are templates: package names (already resolved
// through the alias table) are appended by the caller.
type Backend struct {
	// Name is the backend identifier used in manifests, config, and labels.
	Name string

	// binary is the executable probed by Detect.
	binary string

	// installArgv is the install command prefix, e.g.
	// ["apt-get", "install", "-y"].
	installArgv []string

	// updateArgv optionally refreshes the package index before installing,
	// e.g. ["apt-get", "update"]. Nil when the backend needs no refresh.
	updateArgv []string

	// listArgv is the per-package query command prefix used to locate
	// library directories, e.g. ["dpkg", "-L"].
	listArgv []string

	// style selects how listArgv output is interpreted.
	style queryStyle

	// extraEnv is appended to the process environment for install
	// commands, e.g. DEBIAN_FRONTEND=noninteractive for apt.
	extraEnv []string

	// aliases maps platform-neutral package identifiers to this backend's
	// package names. Identifiers without an entry pass through unchanged.
	aliases map[string]string
}

// backends lists the supported package managers in detection priority
// order. Linux system managers come first; brew last since it coexists
// with them on Linux hosts.
var backends = []*Backend{
	{
		Name:        "apt",
		binary:      "apt-get",
		installArgv: []string{"apt-get", "install", "-y", "--no-install-recommends"},
		updateArgv:  []string{"apt-get", "update"},
		listArgv:    []string{"dpkg", "-L"},
		style:       queryFileList,
		extraEnv:    []string{"DEBIAN_FRONTEND=noninteractive"},
		aliases: map[string]string{
			"python311": "python3.11",
			"python310": "python3.10",
			"pip":       "python3-pip",
			"zlib":      "zlib1g",
			"openssl":   "openssl",
		},
	},
	{
		Name:        "apk",
		binary:      "apk",
		installArgv: []string{"apk", "add", "--no-cache"},
		listArgv:    []string{"apk", "info", "-L"},
		style:       queryFileList,
		aliases: map[string]string{
			"python311": "python3",
			"python310": "python3",
			"pip":       "py3-pip",
			"zlib":      "zlib",
		},
	},
	{
		Name:        "dnf",
		binary:      "dnf",
		installArgv: []string{"dnf", "install", "-y"},
		listArgv:    []string{"rpm", "-ql"},
		style:       queryFileList,
		aliases: map[string]string{
			"python311": "python3.11",
			"python310": "python3.10",
			"pip":       "python3-pip",
			"zlib":      "zlib",
		},
	},
	{
		Name:        "pacman",
		binary:      "pacman",
		installArgv: []string{"pacman", "-S", "--noconfirm", "--needed"},
		listArgv:    []string{"pacman", "-Qlq"},
		style:       queryFileList,
		aliases: map[string]string{
			"python311": "python",
			"python310": "python",
			"pip":       "python-pip",
			"zlib":      "zlib",
		},
	},
	{
		Name:        "brew",
		binary:      "brew",
		installArgv: []string{"brew", "install"},
		listArgv:    []string{"brew", "--prefix"},
		style:       queryPrefix,
		aliases: map[string]string{
			"python311": "python@3.11",
			"python310": "python@3.10",
			"pip":       "python@3.11",
			"zlib":      "zlib",
		},
	},
}

// Detect probes the host for a supported package manager and returns the
// first one whose binary is on PATH, following the priority order of the
// backends table.
//
// Returns a CLIError with ExitBackendNotFound if no supported package
// manager is installed.
func Detect() (*Backend, error) {
	for _, b := range backends {
		if _, err := exec.LookPath(b.binary); err == nil {
			return b, nil
		}
	}
	return nil, model.NewCLIError(
		model.ExitBackendNotFound,
		fmt.Sprintf("no supported package manager found on PATH (supported: %v)", KnownNames()),
	)
}

// ByName looks up a backend by its identifier. Used when a manifest or
// config file overrides auto-detection.
func ByName(name string) (*Backend, error) {
	for _, b := range backends {
		if b.Name == name {
			return b, nil
		}
	}
	return nil, model.NewCLIError(
		model.ExitBackendNotFound,
		fmt.Sprintf("unknown package manager backend %q (valid: %v)", name, KnownNames()),
	)
}

// IsKnown reports whether name identifies a supported backend.
func IsKnown(name string) bool {
	for _, b := range backends {
		if b.Name == name {
			return true
		}
	}
	return false
}

// KnownNames returns the supported backend identifiers in priority order.
func KnownNames() []string {
	names := make([]string, 0, len(backends))
	for _, b := range backends {
		names = append(names, b.Name)
	}
	return names
}

// ResolvePackage maps a platform-neutral package identifier to this
// backend's package name via the alias table. Identifiers without an
// alias pass through unchanged, since most names (ffmpeg, git, curl)
// are spelled identically across package managers.
func (b *Backend) ResolvePackage(id string) string {
	if alias, ok := b.aliases[id]; ok {
		return alias
	}
	return id
}

// ResolvePackages maps a list of package identifiers, preserving the
// manifest's declared order.
func (b *Backend) ResolvePackages(ids []string) []string {
	resolved := make([]string, 0, len(ids))
	for _, id := range ids {
		resolved = append(resolved, b.ResolvePackage(id))
	}
	return resolved
}

// InstallArgv builds the full install command for the given package
// identifiers, resolving aliases and preserving order. The result is
// suitable both for host execution and for running inside a sandbox
// container.
func (b *Backend) InstallArgv(ids []string) []string {
	argv := make([]string, 0, len(b.installArgv)+len(ids))
	argv = append(argv, b.installArgv...)
	argv = append(argv, b.ResolvePackages(ids)...)
	return argv
}

// UpdateArgv returns the package index refresh command, or nil when the
// backend does not need one.
func (b *Backend) UpdateArgv() []string {
	if b.updateArgv == nil {
		return nil
	}
	argv := make([]string, len(b.updateArgv))
	copy(argv, b.updateArgv)
	return argv
}

// ExtraEnv returns environment variable assignments that install
// commands should run with (e.g. to suppress interactive prompts).
func (b *Backend) ExtraEnv() []string {
	return b.extraEnv
}
