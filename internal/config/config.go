package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/envbox-dev/envbox/internal/pkgmgr"
)

const defaultConfigName = "config"

// Config holds tool-level settings.
type Config struct {
	// Image is the default base image for container-mode sandboxes when
	// the manifest does not specify one.
	Image string

	// Backend, when set, overrides package manager auto-detection for
	// every manifest that does not pick its own backend.
	Backend string

	// LibraryRoots are extra directories probed ahead of the platform
	// defaults when resolving library search paths.
	LibraryRoots []string

	// LogLevel is the logrus level name ("debug", "info", "warn", ...).
	// The --verbose flag forces "debug" regardless of this setting.
	LogLevel string
}

// Load reads the tool configuration. Sources, in increasing precedence:
// built-in defaults, a config.yaml found in ./, ./.envbox/, or
// ~/.config/envbox/, and ENVBOX_* environment variables.
//
// A missing config file is not an error; env-only operation is fine.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName(defaultConfigName)
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	v.AddConfigPath(".envbox")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "envbox"))
	}

	v.SetEnvPrefix("ENVBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("sandbox.image", "debian:bookworm-slim")
	v.SetDefault("sandbox.backend", "")
	v.SetDefault("libpath.roots", []string{})
	v.SetDefault("log.level", "info")

	_ = v.ReadInConfig()

	cfg := Config{
		Image:        strings.TrimSpace(v.GetString("sandbox.image")),
		Backend:      strings.TrimSpace(v.GetString("sandbox.backend")),
		LibraryRoots: v.GetStringSlice("libpath.roots"),
		LogLevel:     strings.TrimSpace(v.GetString("log.level")),
	}

	if cfg.Image == "" {
		return Config{}, fmt.Errorf("sandbox.image must not be empty")
	}
	if cfg.Backend != "" && !pkgmgr.IsKnown(cfg.Backend) {
		return Config{}, fmt.Errorf("invalid sandbox.backend %q (valid: %v)", cfg.Backend, pkgmgr.KnownNames())
	}

	return cfg, nil
}
