// stop.go implements the "envbox stop" command: gracefully stop a
// sandbox's containers without removing them.
package cli

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/envbox-dev/envbox/internal/docker"
	"github.com/envbox-dev/envbox/internal/model"
)

// NewStopCommand creates the "stop" cobra command.
func NewStopCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop <name>",
		Short: "Stop a sandbox",
		Long: `Stop the containers of the specified sandbox.

The containers are stopped but not removed: installed packages and
configuration are preserved, and the sandbox can be resumed with the
"start" command.

Examples:
  envbox stop music-bot
  envbox stop --json music-bot`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStop(cmd.Context(), args[0])
		},
	}

	return cmd
}

// runStop finds the named sandbox and stops its running containers.
func runStop(ctx context.Context, name string) error {
	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	sb, containers, err := findSandbox(ctx, cli, name)
	if err != nil {
		return err
	}

	if sb.Status == model.StatusStopped {
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("sandbox %q is already stopped", name))
	}

	stopped := 0
	for _, c := range containers {
		if c.Status != "running" {
			continue
		}
		log.WithField("container", c.ContainerName).Debug("stopping container")
		if err := docker.StopContainer(ctx, cli, c.ContainerID); err != nil {
			return model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("failed to stop sandbox %q", name), err)
		}
		stopped++
	}

	printLifecycleResult(name, "stopped", stopped)
	return nil
}
