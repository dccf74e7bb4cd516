// list.go implements the "envbox list" command.
//
// Sandboxes are discovered by querying Docker for containers with the
// "envbox.managed-by=envbox" label, grouped by sandbox name, and shown
// as a text table or JSON array. An optional --status flag filters by
// lifecycle state (running, stopped, stale, or all).
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/envbox-dev/envbox/internal/docker"
	"github.com/envbox-dev/envbox/internal/model"
)

// listFlags holds the flag values for the list command.
type listFlags struct {
	// status filters sandboxes by lifecycle state.
	// Valid values: "running", "stopped", "stale", "all" (default).
	status string
}

// NewListCommand creates the "list" cobra command.
func NewListCommand() *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all sandboxes",
		Long: `List all managed sandboxes and their status.

Each sandbox is shown with its name, backend, lifecycle status, package
count, and base image. A sandbox whose manifest was deleted or edited
after provisioning is reported as stale.

Examples:
  envbox list
  envbox list --status running
  envbox list --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.status, "status", "all",
		"Filter by status: running, stopped, stale, all (default: all)")

	return cmd
}

// runList connects to Docker, discovers managed sandboxes, applies the
// status filter, and prints the result.
func runList(ctx context.Context, flags *listFlags) error {
	var statusFilter model.SandboxStatus
	if flags.status != "all" {
		parsed, err := model.ParseSandboxStatus(flags.status)
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("invalid status filter %q: valid values are running, stopped, stale, all", flags.status), nil)
		}
		statusFilter = parsed
	}

	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	containers, err := docker.ListManagedContainers(ctx, cli)
	if err != nil {
		return err
	}
	log.WithField("containers", len(containers)).Debug("found managed containers")

	groups := docker.GroupContainersBySandbox(containers)

	var sandboxes []*model.Sandbox
	for name, group := range groups {
		sb, err := docker.BuildSandbox(name, group)
		if err != nil {
			// A single corrupted sandbox should not prevent listing the rest.
			log.WithField("sandbox", name).WithError(err).Warn("skipping sandbox")
			continue
		}
		sandboxes = append(sandboxes, sb)
	}

	sort.Slice(sandboxes, func(i, j int) bool {
		return sandboxes[i].Name < sandboxes[j].Name
	})

	if statusFilter != "" {
		sandboxes = filterByStatus(sandboxes, statusFilter)
	}

	printListResult(sandboxes)
	return nil
}

// filterByStatus keeps only the sandboxes in the given lifecycle state.
func filterByStatus(sandboxes []*model.Sandbox, status model.SandboxStatus) []*model.Sandbox {
	filtered := make([]*model.Sandbox, 0, len(sandboxes))
	for _, sb := range sandboxes {
		if sb.Status == status {
			filtered = append(filtered, sb)
		}
	}
	return filtered
}

// printListResult outputs the sandbox list in text or JSON format.
func printListResult(sandboxes []*model.Sandbox) {
	if IsJSONOutput() {
		printListResultJSON(sandboxes)
	} else {
		printListResultText(sandboxes)
	}
}

// listSandboxJSON is the JSON output structure for a single sandbox.
type listSandboxJSON struct {
	Name         string   `json:"name"`
	Status       string   `json:"status"`
	Backend      string   `json:"backend"`
	Image        string   `json:"image"`
	Packages     []string `json:"packages"`
	ManifestPath string   `json:"manifestPath"`
}

// printListResultJSON outputs the sandbox list as structured JSON.
func printListResultJSON(sandboxes []*model.Sandbox) {
	type resultJSON struct {
		Sandboxes []listSandboxJSON `json:"sandboxes"`
	}

	result := resultJSON{
		// Empty slice rather than nil so JSON output shows [] instead of
		// null when no sandboxes exist.
		Sandboxes: make([]listSandboxJSON, 0, len(sandboxes)),
	}

	for _, sb := range sandboxes {
		result.Sandboxes = append(result.Sandboxes, listSandboxJSON{
			Name:         sb.Name,
			Status:       sb.Status.String(),
			Backend:      sb.Backend,
			Image:        sb.Image,
			Packages:     sb.Packages,
			ManifestPath: sb.ManifestPath,
		})
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}

// printListResultText outputs the sandbox list as an aligned text table:
//
//	NAME           STATUS    BACKEND  PACKAGES                     IMAGE
//	music-bot      running   apt      python311, pip, ffmpeg, ...  debian:bookworm-slim
func printListResultText(sandboxes []*model.Sandbox) {
	if len(sandboxes) == 0 {
		fmt.Println("No sandboxes found.")
		return
	}

	fmt.Printf("%-20s %-10s %-8s %-30s %s\n",
		"NAME", "STATUS", "BACKEND", "PACKAGES", "IMAGE")

	for _, sb := range sandboxes {
		fmt.Printf("%-20s %-10s %-8s %-30s %s\n",
			sb.Name,
			sb.Status.String(),
			sb.Backend,
			FormatPackageList(sb.Packages, 3),
			sb.Image,
		)
	}
}

// FormatPackageList renders a package list for display, truncating long
// lists to the first few entries.
//
// Example:
//
//	["python311", "pip", "ffmpeg", "git"] → "python311, pip, ffmpeg, ..."
//	[]                                     → "-"
func FormatPackageList(packages []string, max int) string {
	if len(packages) == 0 {
		return "-"
	}
	if max > 0 && len(packages) > max {
		return strings.Join(packages[:max], ", ") + ", ..."
	}
	return strings.Join(packages, ", ")
}
