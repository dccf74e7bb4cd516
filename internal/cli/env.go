// env.go implements the "envbox env" command: print the computed
// environment in a chosen representation.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/envbox-dev/envbox/internal/envfile"
	"github.com/envbox-dev/envbox/internal/libpath"
	"github.com/envbox-dev/envbox/internal/model"
)

// envFlags holds the flag values for the env command.
type envFlags struct {
	format string // --format: shell, dotenv, or json
	strict bool   // --strict: fail on unresolved library paths
}

// NewEnvCommand creates the "env" cobra command.
func NewEnvCommand() *cobra.Command {
	flags := &envFlags{}

	cmd := &cobra.Command{
		Use:   "env [path]",
		Short: "Print the manifest's computed environment",
		Long: `Resolve the manifest's env declarations and print them.

The shell format prints export lines suitable for eval:
  eval "$(envbox env)"

Examples:
  envbox env
  envbox env --format dotenv > .env
  envbox env --format json --strict`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			arg := ""
			if len(args) == 1 {
				arg = args[0]
			}
			return runEnv(cmd.Context(), arg, flags)
		},
	}

	cmd.Flags().StringVar(&flags.format, "format", "shell", "Output format: shell, dotenv, json")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "Fail when a library path package cannot be resolved")

	return cmd
}

// runEnv resolves and prints the environment for a manifest.
func runEnv(ctx context.Context, arg string, flags *envFlags) error {
	format, err := envfile.ParseFormat(flags.format)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "invalid --format", err)
	}

	_, raw, err := resolveAndLoad(arg)
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

	if flags.strict && len(missing) > 0 {
		return model.NewCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("could not locate shared libraries for: %s", strings.Join(missing, ", ")),
		)
	}

	rendered, err := envfile.Render(vars, format)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to render environment", err)
	}

	fmt.Print(rendered)
	return nil
}
