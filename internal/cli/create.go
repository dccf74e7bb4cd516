// create.go implements the "envbox create" command, the container-mode
// provisioning operation.
//
// Orchestration steps:
//  1. Resolve, load, and validate the manifest
//  2. Derive the sandbox name and refuse duplicates
//  3. Pick the base image and the backend matching that image
//  4. Create the sandbox container with metadata labels and literal env
//  5. Install the deps sequence inside the container (unless --no-install)
//  6. Resolve library-path variables by querying inside the container
//     and write the full environment to /etc/profile.d/envbox.sh
//  7. Output results (text or JSON)
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/envbox-dev/envbox/internal/docker"
	"github.com/envbox-dev/envbox/internal/envfile"
	"github.com/envbox-dev/envbox/internal/libpath"
	"github.com/envbox-dev/envbox/internal/manifest"
	"github.com/envbox-dev/envbox/internal/model"
	"github.com/envbox-dev/envbox/internal/pkgmgr"
)

// createFlags holds the flag values for the create command.
type createFlags struct {
	name      string // --name: sandbox name override
	image     string // --image: base image override
	noInstall bool   // --no-install: create the container without installing deps
}

// NewCreateCommand creates the "create" cobra command.
func NewCreateCommand() *cobra.Command {
	flags := &createFlags{}

	cmd := &cobra.Command{
		Use:   "create [path]",
		Short: "Provision a manifest into a Docker sandbox container",
		Long: `Create an isolated Docker container for the manifest: the declared
packages are installed inside it and the computed environment variables
are set for the container and written to /etc/profile.d/envbox.sh.

All sandbox metadata is stored as container labels, so the sandbox can be
listed, stopped, and removed without any state file.

Examples:
  envbox create
  envbox create ./envbox.json
  envbox create --name bot-sandbox --image debian:bookworm-slim
  envbox create --no-install`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			arg := ""
			if len(args) == 1 {
				arg = args[0]
			}
			return runCreate(cmd.Context(), arg, flags)
		},
	}

	cmd.Flags().StringVar(&flags.name, "name", "", "Sandbox name (default: manifest name or project directory)")
	cmd.Flags().StringVar(&flags.image, "image", "", "Base container image (default: manifest image or config)")
	cmd.Flags().BoolVar(&flags.noInstall, "no-install", false, "Create the container without installing packages")

	return cmd
}

// runCreate is the main orchestration function for the create command.
func runCreate(ctx context.Context, arg string, flags *createFlags) error {
	// Step 1: Load and validate the manifest.
	path, raw, err := resolveAndLoad(arg)
	if err != nil {
		return err
	}
	if errs := manifest.ValidateFile(path, raw); len(errs) > 0 {
		return model.NewCLIError(
			model.ExitManifestInvalid,
			fmt.Sprintf("manifest %s has %d validation error(s); run envbox validate for details", path, len(errs)),
		)
	}

	// Step 2: Derive the sandbox name.
	name := flags.name
	if name == "" {
		name, err = sandboxName(raw, path)
		if err != nil {
			return err
		}
	} else if err := model.ValidateName(name); err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "invalid sandbox name", err)
	}
	log.WithField("sandbox", name).Debug("provisioning sandbox")

	// Step 3: Connect to Docker and refuse duplicate names.
	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}

	if _, _, findErr := findSandbox(ctx, cli, name); findErr == nil {
		return model.NewCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("sandbox %q already exists (remove it first or pick another name)", name),
		)
	}

	// Step 4: Pick the image and a backend that matches it. The host's
	// package manager is irrelevant here — installs run inside the
	// container, so the backend must match the image's distribution.
	image := flags.image
	if image == "" {
		image = raw.Image
	}
	if image == "" {
		image = toolConfig.Image
	}

	backend, err := backendForImage(raw, image)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"image":   image,
		"backend": backend.Name,
	}).Debug("selected image and backend")

	// Step 5: Build the sandbox metadata and create the container.
	// Only literal env values can be injected at creation time;
	// library-path values need the packages installed first.
	hash, err := manifest.Hash(path)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to hash manifest", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to resolve manifest path", err)
	}

	sb := &model.Sandbox{
		Name:         name,
		ManifestPath: absPath,
		ManifestHash: hash,
		Backend:      backend.Name,
		Image:        image,
		Packages:     raw.Deps,
		CreatedAt:    time.Now(),
	}

	literals, err := literalEnvVars(raw)
	if err != nil {
		return model.WrapCLIError(model.ExitManifestInvalid, "failed to parse env declarations", err)
	}

	containerName, err := docker.RunSandboxContainer(ctx, image, name, docker.BuildLabels(sb), envfile.Pairs(literals))
	if err != nil {
		return err
	}
	log.WithField("container", containerName).Debug("sandbox container started")

	// Step 6: Install packages and resolve the full environment inside
	// the container.
	var vars []model.EnvVar
	var missing []string
	if flags.noInstall {
		vars = literals
	} else {
		if update := backend.UpdateArgv(); update != nil {
			if err := docker.ExecInContainer(ctx, containerName, update, backend.ExtraEnv()); err != nil {
				return err
			}
		}
		if err := docker.ExecInContainer(ctx, containerName, backend.InstallArgv(raw.Deps), backend.ExtraEnv()); err != nil {
			return err
		}

		resolver := libpath.NewQueryResolver(&containerQuerier{
			backend:   backend,
			container: containerName,
		})
		vars, missing, err = envfile.Build(ctx, raw, resolver)
		if err != nil {
			return model.WrapCLIError(model.ExitManifestInvalid, "failed to resolve environment", err)
		}
		if len(missing) > 0 {
			log.WithField("packages", strings.Join(missing, ", ")).
				Warn("could not locate shared libraries inside the container")
		}

		rendered, renderErr := envfile.Render(vars, envfile.FormatShell)
		if renderErr != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to render environment", renderErr)
		}
		if err := docker.WriteFileInContainer(ctx, containerName, "/etc/profile.d/envbox.sh", rendered); err != nil {
			return err
		}
	}

	sb.Env = vars

	// Step 7: Report.
	printCreateResult(sb, containerName, flags.noInstall)
	return nil
}

// containerQuerier resolves library directories by running the backend's
// query command inside the sandbox container.
type containerQuerier struct {
	backend   *pkgmgr.Backend
	container string
}

// QueryLibDirs implements libpath.Querier.
func (q *containerQuerier) QueryLibDirs(ctx context.Context, id string) ([]string, error) {
	return q.backend.QueryLibDirsVia(ctx, func(ctx context.Context, argv []string) (string, error) {
		return docker.ExecCapture(ctx, q.container, argv)
	}, id)
}

// backendForImage picks the package manager backend for a container
// image. A manifest backend key wins; otherwise the image name decides.
func backendForImage(raw *manifest.RawManifest, image string) (*pkgmgr.Backend, error) {
	if raw.Backend != "" {
		return pkgmgr.ByName(raw.Backend)
	}

	lower := strings.ToLower(image)
	switch {
	case strings.Contains(lower, "alpine"):
		return pkgmgr.ByName("apk")
	case strings.Contains(lower, "fedora"), strings.Contains(lower, "centos"), strings.Contains(lower, "rocky"), strings.Contains(lower, "almalinux"):
		return pkgmgr.ByName("dnf")
	case strings.Contains(lower, "archlinux"):
		return pkgmgr.ByName("pacman")
	default:
		// Debian and Ubuntu derivatives are the default case.
		return pkgmgr.ByName("apt")
	}
}

// literalEnvVars extracts only the literal env declarations from a
// manifest, in sorted name order.
func literalEnvVars(raw *manifest.RawManifest) ([]model.EnvVar, error) {
	var vars []model.EnvVar
	for _, name := range raw.EnvNames() {
		value, err := manifest.ParseEnvValue(raw.Env[name])
		if err != nil {
			return nil, fmt.Errorf("env.%s: %w", name, err)
		}
		if value.IsLibraryPath {
			continue
		}
		vars = append(vars, model.EnvVar{
			Name:   name,
			Value:  value.Literal,
			Source: model.SourceLiteral,
		})
	}
	return vars, nil
}

// createResultJSON is the JSON output structure for the create command.
type createResultJSON struct {
	Name      string         `json:"name"`
	Container string         `json:"container"`
	Image     string         `json:"image"`
	Backend   string         `json:"backend"`
	Packages  []string       `json:"packages"`
	Env       []model.EnvVar `json:"env"`
}

// printCreateResult outputs the create summary in text or JSON format.
func printCreateResult(sb *model.Sandbox, containerName string, noInstall bool) {
	if IsJSONOutput() {
		result := createResultJSON{
			Name:      sb.Name,
			Container: containerName,
			Image:     sb.Image,
			Backend:   sb.Backend,
			Packages:  sb.Packages,
			Env:       sb.Env,
		}
		if result.Env == nil {
			result.Env = []model.EnvVar{}
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Created sandbox %q (container %s, image %s)\n", sb.Name, containerName, sb.Image)
	if noInstall {
		fmt.Println("Packages were not installed (--no-install).")
	} else {
		fmt.Printf("Installed %d package(s) via %s: %s\n",
			len(sb.Packages), sb.Backend, strings.Join(sb.Packages, ", "))
	}
	fmt.Printf("Enter it with: docker exec -it %s sh -l\n", containerName)
}
