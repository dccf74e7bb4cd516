// apply.go implements the "envbox apply" command, the host-mode
// provisioning operation: install the manifest's packages through the
// platform package manager, then compute the environment and write it
// to a sourceable script.
//
// Orchestration steps:
//  1. Resolve and load the manifest, refuse invalid ones
//  2. Select the package manager backend
//  3. Install the deps sequence, in declared order
//  4. Resolve env declarations (library paths now resolvable)
//  5. Write .envbox/env.sh next to the manifest
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/envbox-dev/envbox/internal/envfile"
	"github.com/envbox-dev/envbox/internal/libpath"
	"github.com/envbox-dev/envbox/internal/manifest"
	"github.com/envbox-dev/envbox/internal/model"
)

// applyFlags holds the flag values for the apply command.
type applyFlags struct {
	skipInstall bool   // --skip-install: only recompute the environment
	output      string // --output: env script path override
}

// NewApplyCommand creates the "apply" cobra command.
func NewApplyCommand() *cobra.Command {
	flags := &applyFlags{}

	cmd := &cobra.Command{
		Use:   "apply [path]",
		Short: "Install manifest packages on the host and write the environment",
		Long: `Install the manifest's packages via the platform package manager and
write the computed environment variables to a sourceable shell script
(default: .envbox/env.sh next to the manifest).

Examples:
  envbox apply
  envbox apply ./envbox.json
  envbox apply --skip-install     # recompute env only
  envbox apply --output ./env.sh`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			arg := ""
			if len(args) == 1 {
				arg = args[0]
			}
			return runApply(cmd.Context(), arg, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.skipInstall, "skip-install", false, "Skip package installation, only recompute the environment")
	cmd.Flags().StringVar(&flags.output, "output", "", "Env script path (default: .envbox/env.sh next to the manifest)")

	return cmd
}

// runApply is the main orchestration function for the apply command.
func runApply(ctx context.Context, arg string, flags *applyFlags) error {
	path, raw, err := resolveAndLoad(arg)
	if err != nil {
		return err
	}

	// Provisioning an invalid manifest would install a half-described
	// environment, so validation gates everything else.
	if errs := manifest.ValidateFile(path, raw); len(errs) > 0 {
		for _, e := range errs {
			log.WithField("field", e.Field).Error(e.Message)
		}
		return model.NewCLIError(
			model.ExitManifestInvalid,
			fmt.Sprintf("manifest %s has %d validation error(s); run envbox validate for details", path, len(errs)),
		)
	}

	backend, err := selectBackend(raw)
	if err != nil {
		return err
	}
	log.WithField("backend", backend.Name).Debug("selected package manager backend")

	if !flags.skipInstall {
		if err := backend.Install(ctx, raw.Deps); err != nil {
			return err
		}
	}

	resolver := libpath.NewResolver(backend, toolConfig.LibraryRoots)
	vars, missing, err := envfile.Build(ctx, raw, resolver)
	if err != nil {
		return model.WrapCLIError(model.ExitManifestInvalid, "failed to resolve environment", err)
	}

	// After a real install every libraryPath package should resolve.
	// Missing ones mean the backend installed the package somewhere we
	// cannot see, which the user needs to know about.
	if len(missing) > 0 {
		return model.NewCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("could not locate shared libraries for: %s", strings.Join(missing, ", ")),
		)
	}

	scriptPath := flags.output
	if scriptPath == "" {
		abs, absErr := filepath.Abs(path)
		if absErr != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to resolve manifest path", absErr)
		}
		dir := filepath.Dir(abs)
		if filepath.Base(dir) == ".envbox" {
			dir = filepath.Dir(dir)
		}
		scriptPath = filepath.Join(dir, ".envbox", "env.sh")
	}

	if err := envfile.WriteScript(scriptPath, vars); err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to write env script", err)
	}

	printApplyResult(path, backend.Name, raw.Deps, vars, scriptPath, flags.skipInstall)
	return nil
}

// applyResultJSON is the JSON output structure for the apply command.
type applyResultJSON struct {
	Manifest  string         `json:"manifest"`
	Backend   string         `json:"backend"`
	Installed []string       `json:"installed"`
	Env       []model.EnvVar `json:"env"`
	EnvScript string         `json:"envScript"`
}

// printApplyResult outputs the apply summary in text or JSON format.
func printApplyResult(path, backend string, deps []string, vars []model.EnvVar, scriptPath string, skippedInstall bool) {
	if IsJSONOutput() {
		result := applyResultJSON{
			Manifest:  path,
			Backend:   backend,
			Installed: deps,
			Env:       vars,
			EnvScript: scriptPath,
		}
		if skippedInstall {
			result.Installed = []string{}
		}
		if result.Env == nil {
			result.Env = []model.EnvVar{}
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	if skippedInstall {
		fmt.Println("Skipped package installation.")
	} else {
		fmt.Printf("Installed %d package(s) via %s: %s\n", len(deps), backend, strings.Join(deps, ", "))
	}
	fmt.Printf("Wrote environment to %s\n", scriptPath)
	fmt.Printf("Load it with: source %s\n", scriptPath)
}
