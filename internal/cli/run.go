// run.go implements the "envbox run" command: execute a command with
// the manifest's environment applied, the way the provisioning tool
// sets variables before process start.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/envbox-dev/envbox/internal/envfile"
	"github.com/envbox-dev/envbox/internal/libpath"
	"github.com/envbox-dev/envbox/internal/model"
)

// runCmdFlags holds the flag values for the run command.
type runCmdFlags struct {
	manifestPath string // --manifest: manifest path or project directory
	strict       bool   // --strict: fail on unresolved library paths
}

// NewRunCommand creates the "run" cobra command.
func NewRunCommand() *cobra.Command {
	flags := &runCmdFlags{}

	cmd := &cobra.Command{
		Use:   "run -- <command> [args...]",
		Short: "Run a command with the manifest environment applied",
		Long: `Resolve the manifest's environment and run a command with it applied
on top of the current process environment. Computed variables override
inherited ones of the same name.

Examples:
  envbox run -- python3 main.py
  envbox run --manifest ./envbox.yaml -- ffprobe -version`,

		Args: cobra.MinimumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), flags, args)
		},
	}

	cmd.Flags().StringVar(&flags.manifestPath, "manifest", "", "Manifest path or project directory (default: search current directory)")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "Fail when a library path package cannot be resolved")

	return cmd
}

// runRun resolves the environment and executes the command, propagating
// its exit code.
func runRun(ctx context.Context, flags *runCmdFlags, argv []string) error {
	_, raw, err := resolveAndLoad(flags.manifestPath)
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

	if len(missing) > 0 {
		msg := fmt.Sprintf("could not locate shared libraries for: %s", strings.Join(missing, ", "))
		if flags.strict {
			return model.NewCLIError(model.ExitGeneralError, msg)
		}
		log.Warn(msg)
	}

	log.WithFields(log.Fields{
		"command": strings.Join(argv, " "),
		"envVars": len(vars),
	}).Debug("running command with sandbox environment")

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = envfile.Apply(os.Environ(), vars)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		// Propagate the child's exit code rather than collapsing every
		// failure to 1.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return model.WrapCLIError(
				childExitCode(exitErr.ExitCode()),
				fmt.Sprintf("command exited with code %d", exitErr.ExitCode()),
				err,
			)
		}
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to run %q", argv[0]), err)
	}

	return nil
}

// childExitCode maps a child process exit code to a CLI exit code.
// A child killed by a signal reports -1, which os.Exit would truncate
// to 255; that case collapses to the general error code instead.
func childExitCode(code int) model.ExitCode {
	if code < 0 {
		return model.ExitGeneralError
	}
	return model.ExitCode(code)
}
