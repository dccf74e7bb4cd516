package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/envbox-dev/envbox/internal/model"
)

// Find searches for a manifest in the standard locations within a
// project directory.
//
// The search order:
//  1. <projectPath>/.envbox/envbox.json (preferred, keeps the project root clean)
//  2. <projectPath>/envbox.json
//  3. <projectPath>/envbox.yaml
//  4. <projectPath>/envbox.yml
//
// Returns the path to the first found file, or a CLIError with
// ExitManifestNotFound if no location contains a manifest.
func Find(projectPath string) (string, error) {
	candidates := []string{
		filepath.Join(projectPath, ".envbox", "envbox.json"),
		filepath.Join(projectPath, "envbox.json"),
		filepath.Join(projectPath, "envbox.yaml"),
		filepath.Join(projectPath, "envbox.yml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", model.NewCLIError(
		model.ExitManifestNotFound,
		fmt.Sprintf("no manifest found in %s (searched .envbox/envbox.json, envbox.json, envbox.yaml, envbox.yml)", projectPath),
	)
}

// Resolve turns a user-supplied path argument into a concrete manifest
// path. An empty argument searches the current directory via Find; a
// directory argument searches that directory; a file argument is used
// as-is after an existence check.
func Resolve(arg string) (string, error) {
	if arg == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
		}
		return Find(cwd)
	}

	info, err := os.Stat(arg)
	if err != nil {
		if os.IsNotExist(err) {
			return "", model.WrapCLIError(
				model.ExitManifestNotFound,
				fmt.Sprintf("manifest not found: %s", arg),
				err,
			)
		}
		return "", fmt.Errorf("failed to stat %s: %w", arg, err)
	}

	if info.IsDir() {
		return Find(arg)
	}
	return arg, nil
}
