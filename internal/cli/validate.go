// validate.go implements the "envbox validate" command: parse a manifest
// and report every well-formedness violation at once.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/envbox-dev/envbox/internal/manifest"
	"github.com/envbox-dev/envbox/internal/model"
)

// NewValidateCommand creates the "validate" cobra command.
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a sandbox manifest",
		Long: `Parse a manifest and check that it is well-formed: the deps sequence
is present and sane, env declarations have valid names and recognized
value shapes, and libraryPath entries reference declared packages.

All violations are reported in one pass.

Examples:
  envbox validate
  envbox validate ./envbox.json
  envbox validate --json path/to/project`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			arg := ""
			if len(args) == 1 {
				arg = args[0]
			}
			return runValidate(arg)
		},
	}

	return cmd
}

// runValidate loads the manifest, runs validation, and prints the result.
// A manifest with violations yields ExitManifestInvalid.
func runValidate(arg string) error {
	path, raw, err := resolveAndLoad(arg)
	if err != nil {
		return err
	}

	errs := manifest.ValidateFile(path, raw)
	printValidateResult(path, errs)

	if len(errs) > 0 {
		return model.NewCLIError(
			model.ExitManifestInvalid,
			fmt.Sprintf("manifest %s has %d validation error(s)", path, len(errs)),
		)
	}
	return nil
}

// validateResultJSON is the JSON output structure for the validate command.
type validateResultJSON struct {
	Manifest string              `json:"manifest"`
	Valid    bool                `json:"valid"`
	Errors   []validateErrorJSON `json:"errors"`
}

// validateErrorJSON is one violation in JSON output.
type validateErrorJSON struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// printValidateResult outputs violations in text or JSON format.
func printValidateResult(path string, errs []manifest.ValidationError) {
	if IsJSONOutput() {
		result := validateResultJSON{
			Manifest: path,
			Valid:    len(errs) == 0,
			Errors:   make([]validateErrorJSON, 0, len(errs)),
		}
		for _, e := range errs {
			result.Errors = append(result.Errors, validateErrorJSON{
				Field:   e.Field,
				Message: e.Message,
			})
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	if len(errs) == 0 {
		fmt.Printf("%s: OK\n", path)
		return
	}

	fmt.Printf("%s: %d validation error(s)\n", path, len(errs))
	for _, e := range errs {
		fmt.Printf("  %s: %s\n", e.Field, e.Message)
	}
}
