// remove.go implements the "envbox remove" command: delete a sandbox's
// containers entirely.
package cli

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/envbox-dev/envbox/internal/docker"
	"github.com/envbox-dev/envbox/internal/model"
)

// removeFlags holds the flag values for the remove command.
type removeFlags struct {
	force bool // --force: remove running containers without stopping first
}

// NewRemoveCommand creates the "remove" cobra command.
func NewRemoveCommand() *cobra.Command {
	flags := &removeFlags{}

	cmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a sandbox",
		Long: `Remove the containers of the specified sandbox.

A running sandbox must be stopped first, unless --force is given, in
which case its containers are killed and removed in one step. The
manifest on disk is never touched.

Examples:
  envbox remove music-bot
  envbox remove --force music-bot`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd.Context(), args[0], flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Remove running containers without stopping first")

	return cmd
}

// runRemove finds the named sandbox and removes its containers.
func runRemove(ctx context.Context, name string, flags *removeFlags) error {
	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	sb, containers, err := findSandbox(ctx, cli, name)
	if err != nil {
		return err
	}

	if sb.Status == model.StatusRunning && !flags.force {
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("sandbox %q is running; stop it first or use --force", name))
	}

	for _, c := range containers {
		log.WithField("container", c.ContainerName).Debug("removing container")
		if err := docker.RemoveContainer(ctx, cli, c.ContainerID, flags.force); err != nil {
			return model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("failed to remove sandbox %q", name), err)
		}
	}

	printLifecycleResult(name, "removed", len(containers))
	return nil
}
