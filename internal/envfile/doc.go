// Package envfile builds and renders resolved environment variable sets.
//
// It turns a manifest's env declarations into model.EnvVar values
// (resolving libraryPath declarations through internal/libpath) and
// renders them as POSIX shell exports, dotenv lines, or JSON. It also
// applies a variable set onto a process environment for `envbox run`.
package envfile
