package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// SandboxStatus represents the lifecycle state of a provisioned sandbox.
// The state transitions are:
//
//	[Created] → Running → Stopped ⇄ Running → [Removed]
//	Running/Stopped → Stale (when the manifest is deleted or edited)
type SandboxStatus string

const (
	// StatusRunning indicates the sandbox container is running.
	StatusRunning SandboxStatus = "running"

	// StatusStopped indicates the sandbox container exists but is not
	// running. Installed packages and configuration are preserved.
	StatusStopped SandboxStatus = "stopped"

	// StatusStale indicates the manifest the sandbox was provisioned from
	// no longer exists on disk, or its content hash no longer matches the
	// hash recorded at provisioning time. The sandbox still works but may
	// not reflect the current declaration.
	StatusStale SandboxStatus = "stale"
)

// String returns the string representation of SandboxStatus.
func (s SandboxStatus) String() string {
	return string(s)
}

// IsValid checks whether the SandboxStatus value is one of the
// predefined valid states.
func (s SandboxStatus) IsValid() bool {
	switch s {
	case StatusRunning, StatusStopped, StatusStale:
		return true
	default:
		return false
	}
}

// ParseSandboxStatus converts a string to a SandboxStatus.
// Returns an error if the string does not match any valid status.
func ParseSandboxStatus(s string) (SandboxStatus, error) {
	status := SandboxStatus(strings.ToLower(s))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid sandbox status: %q (valid: running, stopped, stale)", s)
	}
	return status, nil
}

// EnvSource identifies how an environment variable's value was produced.
type EnvSource string

const (
	// SourceLiteral marks a value copied verbatim from the manifest.
	SourceLiteral EnvSource = "literal"

	// SourceLibraryPath marks a value computed by joining the shared-library
	// directories of packages named in the manifest.
	SourceLibraryPath EnvSource = "library-path"
)

// EnvVar is a single resolved environment variable.
//
// For library-path variables, Packages records which manifest packages
// contributed directories to the value, in declaration order.
type EnvVar struct {
	// Name is the variable name (POSIX rules: [A-Za-z_][A-Za-z0-9_]*).
	Name string `json:"name"`

	// Value is the fully resolved value.
	Value string `json:"value"`

	// Source records whether the value was literal or computed.
	Source EnvSource `json:"source"`

	// Packages lists the package identifiers a library-path value was
	// computed from. Empty for literal values.
	Packages []string `json:"packages,omitempty"`
}

// envNameRegex enforces POSIX environment variable naming.
var envNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateEnvName checks that a string is a legal environment variable name.
func ValidateEnvName(name string) error {
	if name == "" {
		return fmt.Errorf("environment variable name must not be empty")
	}
	if !envNameRegex.MatchString(name) {
		return fmt.Errorf("invalid environment variable name %q: must match [A-Za-z_][A-Za-z0-9_]*", name)
	}
	return nil
}

// Sandbox represents a provisioned environment: the manifest it was built
// from, the packages it declares, and the env vars computed for it.
// This is the primary aggregate entity in the domain.
//
// For container-mode sandboxes, every field except Status and Containers
// is reconstructed from Docker container labels. There is no state file.
type Sandbox struct {
	// Name is the unique identifier for this sandbox.
	// Must contain only alphanumeric characters and hyphens.
	Name string `json:"name"`

	// ManifestPath is the absolute path to the manifest the sandbox was
	// provisioned from.
	ManifestPath string `json:"manifestPath"`

	// ManifestHash is the hex SHA-256 of the manifest content at
	// provisioning time. Used to detect staleness.
	ManifestHash string `json:"manifestHash"`

	// Backend is the package manager used to install Packages
	// (e.g. "apt", "apk", "brew").
	Backend string `json:"backend"`

	// Image is the base container image, for container-mode sandboxes.
	Image string `json:"image,omitempty"`

	// Packages is the ordered list of package identifiers from the
	// manifest's deps sequence. Order is semantically meaningful and is
	// preserved through provisioning and label round-trips.
	Packages []string `json:"packages"`

	// Env holds the resolved environment variables.
	Env []EnvVar `json:"env,omitempty"`

	// Status is the current lifecycle state.
	Status SandboxStatus `json:"status"`

	// Containers holds runtime info for the sandbox's Docker containers.
	// Empty for host-mode provisioning.
	Containers []ContainerInfo `json:"containers,omitempty"`

	// CreatedAt is the timestamp when the sandbox was provisioned.
	CreatedAt time.Time `json:"createdAt"`
}

// nameRegex validates sandbox names: alphanumeric + hyphens only,
// must start and end with alphanumeric.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*[a-zA-Z0-9]$|^[a-zA-Z0-9]$`)

// ValidateName checks if the given name is a valid sandbox name.
// Valid names contain only alphanumeric characters and hyphens,
// and must start/end with an alphanumeric character.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("sandbox name must not be empty")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("invalid sandbox name %q: must contain only alphanumeric characters and hyphens, and start/end with alphanumeric", name)
	}
	return nil
}

// ContainerInfo holds runtime information about a Docker container.
// This data is fetched dynamically from the Docker API, not persisted.
type ContainerInfo struct {
	// ContainerID is the unique Docker container identifier.
	ContainerID string `json:"containerId"`

	// ContainerName is the human-readable Docker container name.
	ContainerName string `json:"containerName"`

	// Status is the Docker container state (e.g. "running", "exited").
	Status string `json:"status"`

	// Labels is the full set of Docker labels on the container,
	// including the envbox management labels (envbox.* prefix).
	Labels map[string]string `json:"labels,omitempty"`
}

// ExitCode defines the CLI exit codes. These codes allow scripts and CI
// systems to programmatically determine the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitManifestNotFound indicates no manifest was found in the
	// expected locations.
	ExitManifestNotFound ExitCode = 2

	// ExitManifestInvalid indicates the manifest failed validation.
	ExitManifestInvalid ExitCode = 3

	// ExitBackendNotFound indicates no supported package manager was
	// found on the host.
	ExitBackendNotFound ExitCode = 4

	// ExitInstallFailed indicates the package install command failed.
	ExitInstallFailed ExitCode = 5

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	ExitDockerNotRunning ExitCode = 6

	// ExitSandboxNotFound indicates the named sandbox does not exist.
	ExitSandboxNotFound ExitCode = 7
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
