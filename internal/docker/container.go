// container.go implements sandbox container lifecycle operations:
// listing, creating, starting, stopping, and removing the containers
// that back container-mode sandboxes.
//
// Listing and start/stop/remove go through the Docker SDK. Container
// creation and in-container installs shell out to the docker CLI
// ("docker run" / "docker exec"), which pulls images on demand and
// avoids hand-assembling the SDK's Config/HostConfig structs.
package docker

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/envbox-dev/envbox/internal/manifest"
	"github.com/envbox-dev/envbox/internal/model"
)

// ListManagedContainers queries the Docker daemon for all containers
// carrying the "envbox.managed-by=envbox" label, including stopped ones.
// All sandbox discovery starts here; state lives only in labels.
func ListManagedContainers(ctx context.Context, cli *Client) ([]model.ContainerInfo, error) {
	// Filter server-side on the management label rather than listing
	// everything and filtering in Go.
	filterArgs := filters.NewArgs(
		filters.Arg("label", LabelManagedBy+"="+ManagedByValue),
	)

	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"failed to list Docker containers",
			err,
		)
	}

	result := make([]model.ContainerInfo, 0, len(containers))
	for _, c := range containers {
		result = append(result, containerToInfo(c))
	}

	return result, nil
}

// containerToInfo converts a Docker API container struct to the domain
// ContainerInfo. Docker returns names with a leading "/" that we strip
// for display.
func containerToInfo(c types.Container) model.ContainerInfo {
	name := ""
	if len(c.Names) > 0 {
		name = strings.TrimPrefix(c.Names[0], "/")
	}

	return model.ContainerInfo{
		ContainerID:   c.ID,
		ContainerName: name,
		Status:        c.State,
		Labels:        c.Labels,
	}
}

// GroupContainersBySandbox groups containers by their "envbox.name"
// label value. Containers without the label cannot be attributed to a
// sandbox and are skipped.
func GroupContainersBySandbox(containers []model.ContainerInfo) map[string][]model.ContainerInfo {
	groups := make(map[string][]model.ContainerInfo)

	for _, c := range containers {
		name, ok := c.Labels[LabelName]
		if !ok || name == "" {
			continue
		}
		groups[name] = append(groups[name], c)
	}

	return groups
}

// BuildSandbox constructs a Sandbox domain object from the containers
// that belong to it, using ParseLabels on the first container's labels.
//
// The sandbox status is determined by:
//  1. Manifest deleted or edited since provisioning → stale
//  2. Any container running → running
//  3. Otherwise → stopped
func BuildSandbox(name string, containers []model.ContainerInfo) (*model.Sandbox, error) {
	if len(containers) == 0 {
		return nil, fmt.Errorf("cannot build sandbox %q: no containers provided", name)
	}

	sb, err := ParseLabels(containers[0].Labels)
	if err != nil {
		return nil, fmt.Errorf("failed to parse labels for sandbox %q: %w", name, err)
	}

	sb.Containers = containers
	sb.Status = determineStatus(containers, sb.ManifestPath, sb.ManifestHash)

	return sb, nil
}

// determineStatus calculates the aggregate status of a sandbox from its
// containers' states and the manifest on disk.
func determineStatus(containers []model.ContainerInfo, manifestPath, provisionedHash string) model.SandboxStatus {
	// A sandbox whose manifest is gone, or whose manifest content changed
	// after provisioning, no longer reflects its declaration.
	if _, err := os.Stat(manifestPath); os.IsNotExist(err) {
		return model.StatusStale
	}
	if currentHash, err := manifest.Hash(manifestPath); err == nil && currentHash != provisionedHash {
		return model.StatusStale
	}

	for _, c := range containers {
		if c.Status == "running" {
			return model.StatusRunning
		}
	}

	return model.StatusStopped
}

// RunSandboxContainer creates and starts the container backing a
// sandbox via "docker run -d". The container runs a long sleep as its
// main process so the sandbox stays alive for exec-based installs and
// interactive use.
//
// The docker CLI is used instead of the SDK's ContainerCreate workflow
// because "docker run" pulls missing images automatically and accepts
// the same flag forms as the label/env maps we hold.
//
// Returns the generated container name.
func RunSandboxContainer(ctx context.Context, image string, sandboxName string, labels map[string]string, envPairs []string) (string, error) {
	// A short random suffix keeps container names unique when a sandbox
	// is removed and re-created in quick succession.
	containerName := fmt.Sprintf("envbox-%s-%s", sandboxName, uuid.NewString()[:8])

	args := make([]string, 0, len(labels)*2+len(envPairs)*2+8)
	args = append(args, "run", "-d", "--name", containerName)
	for k, v := range labels {
		args = append(args, "--label", k+"="+v)
	}
	for _, pair := range envPairs {
		args = append(args, "-e", pair)
	}
	args = append(args, image, "sleep", "infinity")

	log.WithFields(log.Fields{
		"container": containerName,
		"image":     image,
	}).Debug("creating sandbox container")

	cmd := exec.CommandContext(ctx, "docker", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("docker run failed for sandbox %q: %s",
				sandboxName, strings.TrimSpace(string(output))),
			err,
		)
	}

	return containerName, nil
}

// ExecInContainer runs a command inside a sandbox container via
// "docker exec", streaming nothing and capturing combined output for
// error reporting. Used to drive the package manager install inside
// container-mode sandboxes.
func ExecInContainer(ctx context.Context, containerName string, argv []string, extraEnv []string) error {
	args := make([]string, 0, len(extraEnv)*2+len(argv)+2)
	args = append(args, "exec")
	for _, pair := range extraEnv {
		args = append(args, "-e", pair)
	}
	args = append(args, containerName)
	args = append(args, argv...)

	log.WithFields(log.Fields{
		"container": containerName,
		"command":   strings.Join(argv, " "),
	}).Debug("executing in sandbox container")

	cmd := exec.CommandContext(ctx, "docker", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return model.WrapCLIError(
			model.ExitInstallFailed,
			fmt.Sprintf("command failed in container %q: %s",
				containerName, strings.TrimSpace(string(output))),
			err,
		)
	}

	return nil
}

// ExecCapture runs a command inside a sandbox container and returns its
// stdout. Used for in-container package queries (library directory
// resolution after an install).
func ExecCapture(ctx context.Context, containerName string, argv []string) (string, error) {
	args := make([]string, 0, len(argv)+2)
	args = append(args, "exec", containerName)
	args = append(args, argv...)

	cmd := exec.CommandContext(ctx, "docker", args...)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("command failed in container %q: %w", containerName, err)
	}
	return string(output), nil
}

// WriteFileInContainer writes content to a path inside a sandbox
// container by streaming it through "docker exec -i ... sh -c 'cat >
// path'". Used to drop the computed environment into /etc/profile.d so
// login shells inside the sandbox pick it up.
func WriteFileInContainer(ctx context.Context, containerName, path, content string) error {
	args := []string{"exec", "-i", containerName, "sh", "-c", "cat > " + path}

	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Stdin = strings.NewReader(content)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return model.WrapCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("failed to write %s in container %q: %s",
				path, containerName, strings.TrimSpace(string(output))),
			err,
		)
	}
	return nil
}

// StartContainer starts a stopped container by ID using the Docker SDK.
func StartContainer(ctx context.Context, cli *Client, containerID string) error {
	err := cli.Inner().ContainerStart(ctx, containerID, container.StartOptions{})
	if err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to start container %q", containerID),
			err,
		)
	}
	return nil
}

// StopContainer stops a running container by ID using the Docker SDK.
// Docker sends SIGTERM and escalates to SIGKILL after its default
// timeout.
func StopContainer(ctx context.Context, cli *Client, containerID string) error {
	err := cli.Inner().ContainerStop(ctx, containerID, container.StopOptions{})
	if err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to stop container %q", containerID),
			err,
		)
	}
	return nil
}

// RemoveContainer removes a container by ID using the Docker SDK.
// When force is true, a running container is killed first.
func RemoveContainer(ctx context.Context, cli *Client, containerID string, force bool) error {
	err := cli.Inner().ContainerRemove(ctx, containerID, container.RemoveOptions{
		Force: force,
	})
	if err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to remove container %q", containerID),
			err,
		)
	}
	return nil
}
