// plan.go implements the "envbox plan" command: show what apply or
// create would do, without touching the host or Docker.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/envbox-dev/envbox/internal/envfile"
	"github.com/envbox-dev/envbox/internal/libpath"
	"github.com/envbox-dev/envbox/internal/model"
)

// NewPlanCommand creates the "plan" cobra command.
func NewPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan [path]",
		Short: "Show the resolved install plan and computed environment",
		Long: `Resolve a manifest against the selected package manager backend and
show what would happen on apply: the install command with backend-specific
package names (in the manifest's declared order) and the computed
environment variables.

Library-path values are resolved best-effort; packages whose libraries are
not installed yet are listed as unresolved.

Examples:
  envbox plan
  envbox plan --json ./envbox.yaml`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			arg := ""
			if len(args) == 1 {
				arg = args[0]
			}
			return runPlan(cmd.Context(), arg)
		},
	}

	return cmd
}

// runPlan builds and prints the plan for a manifest.
func runPlan(ctx context.Context, arg string) error {
	path, raw, err := resolveAndLoad(arg)
	if err != nil {
		return err
	}

	backend, err := selectBackend(raw)
	if err != nil {
		return err
	}

	resolver := libpath.NewResolver(backend, toolConfig.LibraryRoots)
	vars, missing, err := envfile.Build(ctx, raw, resolver)
	if err != nil {
		return model.WrapCLIError(model.ExitManifestInvalid, "failed to resolve environment", err)
	}

	printPlanResult(path, backend.Name, backend.InstallArgv(raw.Deps), vars, missing)
	return nil
}

// planResultJSON is the JSON output structure for the plan command.
type planResultJSON struct {
	Manifest   string         `json:"manifest"`
	Backend    string         `json:"backend"`
	Install    []string       `json:"install"`
	Env        []model.EnvVar `json:"env"`
	Unresolved []string       `json:"unresolved,omitempty"`
}

// printPlanResult outputs the plan in text or JSON format.
func printPlanResult(path, backend string, installArgv []string, vars []model.EnvVar, missing []string) {
	if IsJSONOutput() {
		result := planResultJSON{
			Manifest:   path,
			Backend:    backend,
			Install:    installArgv,
			Env:        vars,
			Unresolved: missing,
		}
		if result.Env == nil {
			result.Env = []model.EnvVar{}
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Manifest: %s\n", path)
	fmt.Printf("Backend:  %s\n", backend)
	fmt.Printf("Install:  %s\n", strings.Join(installArgv, " "))

	if len(vars) > 0 {
		fmt.Println("Environment:")
		for _, v := range vars {
			if v.Source == model.SourceLibraryPath {
				fmt.Printf("  %s=%s (from %s)\n", v.Name, v.Value, strings.Join(v.Packages, ", "))
			} else {
				fmt.Printf("  %s=%s\n", v.Name, v.Value)
			}
		}
	}

	if len(missing) > 0 {
		fmt.Printf("Unresolved library paths (packages not installed yet): %s\n",
			strings.Join(missing, ", "))
	}
}
