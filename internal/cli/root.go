// Package cli implements the cobra-based CLI commands for envbox.
//
// Each subcommand (validate, plan, apply, env, run, create, list, start,
// stop, remove) is defined in its own file within this package. This
// file defines the root command, global flags, logging setup, and the
// helpers shared across subcommands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/envbox-dev/envbox/internal/config"
	"github.com/envbox-dev/envbox/internal/docker"
	"github.com/envbox-dev/envbox/internal/manifest"
	"github.com/envbox-dev/envbox/internal/model"
	"github.com/envbox-dev/envbox/internal/pkgmgr"
)

// Global flag variables shared across all subcommands, bound to cobra
// persistent flags on the root command.
var (
	// jsonOutput switches command output to structured JSON.
	jsonOutput bool

	// verbose forces debug-level logging to stderr.
	verbose bool
)

// toolConfig is the loaded tool configuration, populated in the root
// command's PersistentPreRunE before any subcommand runs.
var toolConfig config.Config

// version, commit, and date are set at build time via ldflags,
// injected from the main package.
var (
	// Version is the semantic version of the binary.
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
//
// The root command performs no action itself — it provides help text,
// global flags, and config/logging initialization for the subcommands.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "envbox",
		Short: "Declarative sandbox environment manager",
		Long: `envbox provisions sandbox environments from a declarative manifest:
an ordered list of system packages plus environment variables, including
library search paths computed from the packages' shared-library directories.

Manifests can be applied to the host through the platform package manager,
or provisioned into isolated Docker containers.`,

		// Errors are formatted by Execute (text or JSON), so cobra's own
		// usage/error printing is silenced.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return model.WrapCLIError(model.ExitGeneralError, "failed to load configuration", err)
			}
			toolConfig = cfg

			configureLogging(cfg.LogLevel)
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(NewValidateCommand())
	rootCmd.AddCommand(NewPlanCommand())
	rootCmd.AddCommand(NewApplyCommand())
	rootCmd.AddCommand(NewEnvCommand())
	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewCreateCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewStartCommand())
	rootCmd.AddCommand(NewStopCommand())
	rootCmd.AddCommand(NewRemoveCommand())

	return rootCmd
}

// configureLogging points logrus at stderr (stdout is reserved for
// command output) and applies the configured level. --verbose wins.
func configureLogging(level string) {
	log.SetOutput(os.Stderr)

	if verbose {
		log.SetLevel(log.DebugLevel)
		return
	}

	parsed, err := log.ParseLevel(level)
	if err != nil {
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}

// Execute runs the root command and handles exit codes.
// CLIError values carry their own exit codes; other errors default to 1.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		code := model.ExitGeneralError
		if cliErr, ok := err.(*model.CLIError); ok {
			code = cliErr.Code
		}

		if jsonOutput {
			printErrorJSON(err, code)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}

		os.Exit(int(code))
	}
}

// printErrorJSON emits an error as a JSON object on stderr, matching the
// structured output contract of the --json flag.
func printErrorJSON(err error, code model.ExitCode) {
	payload := struct {
		Error    string `json:"error"`
		ExitCode int    `json:"exitCode"`
	}{
		Error:    err.Error(),
		ExitCode: int(code),
	}
	data, _ := json.MarshalIndent(payload, "", "  ")
	fmt.Fprintln(os.Stderr, string(data))
}

// IsJSONOutput reports whether the global --json flag is set.
func IsJSONOutput() bool {
	return jsonOutput
}

// resolveAndLoad turns an optional path argument into a loaded manifest.
// An empty argument searches the current directory; a directory argument
// searches that directory.
func resolveAndLoad(arg string) (path string, raw *manifest.RawManifest, err error) {
	path, err = manifest.Resolve(arg)
	if err != nil {
		return "", nil, err
	}

	raw, err = manifest.Load(path)
	if err != nil {
		return "", nil, err
	}

	log.WithField("manifest", path).Debug("loaded manifest")
	return path, raw, nil
}

// selectBackend picks the package manager backend for a manifest.
// Precedence: manifest backend key, then tool config, then host
// auto-detection.
func selectBackend(raw *manifest.RawManifest) (*pkgmgr.Backend, error) {
	if raw.Backend != "" {
		return pkgmgr.ByName(raw.Backend)
	}
	if toolConfig.Backend != "" {
		return pkgmgr.ByName(toolConfig.Backend)
	}
	return pkgmgr.Detect()
}

// sandboxName derives the sandbox name for a manifest: the manifest's
// name key when present, otherwise the manifest's directory name.
func sandboxName(raw *manifest.RawManifest, manifestPath string) (string, error) {
	name := raw.Name
	if name == "" {
		abs, err := filepath.Abs(manifestPath)
		if err != nil {
			return "", model.WrapCLIError(model.ExitGeneralError, "failed to resolve manifest path", err)
		}
		dir := filepath.Dir(abs)
		// Manifests under .envbox/ belong to the project one level up.
		if filepath.Base(dir) == ".envbox" {
			dir = filepath.Dir(dir)
		}
		name = filepath.Base(dir)
	}

	if err := model.ValidateName(name); err != nil {
		return "", model.WrapCLIError(model.ExitGeneralError, "invalid sandbox name", err)
	}
	return name, nil
}

// findSandbox locates a named sandbox among the managed containers.
// Returns the reconstructed Sandbox and its containers, or a CLIError
// with ExitSandboxNotFound.
func findSandbox(ctx context.Context, cli *docker.Client, name string) (*model.Sandbox, []model.ContainerInfo, error) {
	containers, err := docker.ListManagedContainers(ctx, cli)
	if err != nil {
		return nil, nil, err
	}

	groups := docker.GroupContainersBySandbox(containers)
	group, ok := groups[name]
	if !ok || len(group) == 0 {
		return nil, nil, model.NewCLIError(
			model.ExitSandboxNotFound,
			fmt.Sprintf("sandbox %q not found", name),
		)
	}

	sb, err := docker.BuildSandbox(name, group)
	if err != nil {
		return nil, nil, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to reconstruct sandbox %q", name), err)
	}

	return sb, group, nil
}
