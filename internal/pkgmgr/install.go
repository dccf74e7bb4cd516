package pkgmgr

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/envbox-dev/envbox/internal/model"
)

// Install installs the given package identifiers on the host using this
// backend. The identifiers are resolved through the alias table and
// passed to a single install command in their declared order.
//
// If the backend defines an index refresh command (apt-get update), it
// runs first. Both commands inherit the host environment plus the
// backend's extra variables.
//
// Returns a CLIError with ExitInstallFailed when either command fails;
// the message includes the trailing command output for diagnosis.
func (b *Backend) Install(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	if update := b.UpdateArgv(); update != nil {
		log.WithField("backend", b.Name).Debug("refreshing package index")
		if err := b.run(ctx, update); err != nil {
			return err
		}
	}

	argv := b.InstallArgv(ids)
	log.WithFields(log.Fields{
		"backend":  b.Name,
		"packages": strings.Join(b.ResolvePackages(ids), " "),
	}).Info("installing packages")

	return b.run(ctx, argv)
}

// run executes a backend command, capturing combined output for error
// reporting. Long install logs are trimmed to their tail, where package
// managers print the actual failure reason.
func (b *Backend) run(ctx context.Context, argv []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = append(os.Environ(), b.extraEnv...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return model.WrapCLIError(
			model.ExitInstallFailed,
			fmt.Sprintf("%s failed: %s", strings.Join(argv[:2], " "), tailLines(string(output), 10)),
			err,
		)
	}

	log.WithField("command", strings.Join(argv, " ")).Debug("command completed")
	return nil
}

// tailLines returns the last n non-empty lines of s, joined by newlines.
func tailLines(s string, n int) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
