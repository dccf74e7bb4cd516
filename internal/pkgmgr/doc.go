// Package pkgmgr integrates with platform package managers.
//
// This package wraps package manager CLIs (apt-get, apk, dnf, pacman,
// brew) via os/exec to install the packages a manifest declares and to
// query where an installed package keeps its shared libraries.
//
// Design decisions:
//   - We shell out to the native package manager rather than linking any
//     library, because installs need root-configured sources, hooks, and
//     triggers that only the real CLI runs.
//   - Package identifiers in manifests are platform-neutral; each backend
//     carries a small alias table mapping common identifiers to its own
//     package names (e.g. python311 → python3.11 on apt).
//   - Install errors are wrapped in model.CLIError with ExitInstallFailed
//     so the CLI layer can map them to exit codes.
package pkgmgr
