// start.go implements the "envbox start" command: resume a previously
// stopped sandbox container.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/envbox-dev/envbox/internal/docker"
	"github.com/envbox-dev/envbox/internal/model"
)

// NewStartCommand creates the "start" cobra command.
func NewStartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start <name>",
		Short: "Start a stopped sandbox",
		Long: `Start the containers of the specified sandbox.

Installed packages and configuration are preserved across stop/start.

Examples:
  envbox start music-bot
  envbox start --json music-bot`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd.Context(), args[0])
		},
	}

	return cmd
}

// runStart finds the named sandbox and starts its non-running containers.
func runStart(ctx context.Context, name string) error {
	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	sb, containers, err := findSandbox(ctx, cli, name)
	if err != nil {
		return err
	}

	if sb.Status == model.StatusRunning {
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("sandbox %q is already running", name))
	}

	started := 0
	for _, c := range containers {
		if c.Status == "running" {
			continue
		}
		log.WithField("container", c.ContainerName).Debug("starting container")
		if err := docker.StartContainer(ctx, cli, c.ContainerID); err != nil {
			return model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("failed to start sandbox %q", name), err)
		}
		started++
	}

	printLifecycleResult(name, "started", started)
	return nil
}

// lifecycleResultJSON is the shared JSON output structure for the
// start/stop/remove commands.
type lifecycleResultJSON struct {
	Name       string `json:"name"`
	Action     string `json:"action"`
	Containers int    `json:"containers"`
}

// printLifecycleResult outputs a lifecycle action summary in text or
// JSON format.
func printLifecycleResult(name, action string, containers int) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(lifecycleResultJSON{
			Name:       name,
			Action:     action,
			Containers: containers,
		}, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Sandbox %q %s (%d container(s)).\n", name, action, containers)
}
