package envfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/envbox-dev/envbox/internal/libpath"
	"github.com/envbox-dev/envbox/internal/manifest"
	"github.com/envbox-dev/envbox/internal/model"
)

// Format selects an output representation for a rendered variable set.
type Format string

const (
	// FormatShell renders `export NAME='value'` lines for sourcing.
	FormatShell Format = "shell"

	// FormatDotenv renders `NAME=value` lines.
	FormatDotenv Format = "dotenv"

	// FormatJSON renders the full EnvVar objects as a JSON array.
	FormatJSON Format = "json"
)

// ParseFormat converts a string to a Format.
// Returns an error if the string does not match any valid format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatShell:
		return FormatShell, nil
	case FormatDotenv:
		return FormatDotenv, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("invalid format %q (valid: shell, dotenv, json)", s)
	}
}

// Build resolves a manifest's env declarations into concrete variables.
// Variables are produced in sorted name order for deterministic output.
//
// Literal declarations pass through verbatim. libraryPath declarations
// are resolved via the Resolver; packages whose libraries could not be
// located are accumulated in missing, and the variable still receives
// the directories that were found.
func Build(ctx context.Context, raw *manifest.RawManifest, resolver *libpath.Resolver) (vars []model.EnvVar, missing []string, err error) {
	for _, name := range raw.EnvNames() {
		value, err := manifest.ParseEnvValue(raw.Env[name])
		if err != nil {
			return nil, nil, fmt.Errorf("env.%s: %w", name, err)
		}

		if !value.IsLibraryPath {
			vars = append(vars, model.EnvVar{
				Name:   name,
				Value:  value.Literal,
				Source: model.SourceLiteral,
			})
			continue
		}

		joined, miss := resolver.Compute(ctx, value.LibraryPath)
		missing = append(missing, miss...)
		vars = append(vars, model.EnvVar{
			Name:     name,
			Value:    joined,
			Source:   model.SourceLibraryPath,
			Packages: value.LibraryPath,
		})
	}

	return vars, missing, nil
}

// Render serializes a variable set in the requested format.
func Render(vars []model.EnvVar, format Format) (string, error) {
	switch format {
	case FormatShell:
		var sb strings.Builder
		for _, v := range vars {
			fmt.Fprintf(&sb, "export %s=%s\n", v.Name, shellQuote(v.Value))
		}
		return sb.String(), nil

	case FormatDotenv:
		var sb strings.Builder
		for _, v := range vars {
			fmt.Fprintf(&sb, "%s=%s\n", v.Name, dotenvQuote(v.Value))
		}
		return sb.String(), nil

	case FormatJSON:
		// Empty slice rather than nil so JSON output shows [] instead
		// of null when the manifest declares no env vars.
		if vars == nil {
			vars = []model.EnvVar{}
		}
		data, err := json.MarshalIndent(vars, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal env vars: %w", err)
		}
		return string(data) + "\n", nil

	default:
		return "", fmt.Errorf("unsupported format %q", format)
	}
}

// WriteScript writes the variable set as a sourceable shell script,
// creating the parent directory if needed. This backs the apply
// command's .envbox/env.sh output.
func WriteScript(path string, vars []model.EnvVar) error {
	rendered, err := Render(vars, FormatShell)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	content := "# Generated by envbox apply. Source this file to load the sandbox environment.\n" + rendered
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Apply overlays a variable set onto a base process environment
// (os.Environ format). Computed variables win over base entries with
// the same name; base order is otherwise preserved.
func Apply(base []string, vars []model.EnvVar) []string {
	override := make(map[string]string, len(vars))
	for _, v := range vars {
		override[v.Name] = v.Value
	}

	result := make([]string, 0, len(base)+len(vars))
	applied := make(map[string]bool, len(vars))

	for _, entry := range base {
		name, _, ok := strings.Cut(entry, "=")
		if ok {
			if value, found := override[name]; found {
				result = append(result, name+"="+value)
				applied[name] = true
				continue
			}
		}
		result = append(result, entry)
	}

	// Variables not present in the base environment are appended in the
	// set's (sorted) order.
	for _, v := range vars {
		if !applied[v.Name] {
			result = append(result, v.Name+"="+v.Value)
		}
	}

	return result
}

// Pairs converts a variable set to NAME=value strings, e.g. for the
// Docker container Env field.
func Pairs(vars []model.EnvVar) []string {
	pairs := make([]string, 0, len(vars))
	for _, v := range vars {
		pairs = append(pairs, v.Name+"="+v.Value)
	}
	return pairs
}

// shellQuote wraps a value in single quotes, escaping embedded single
// quotes with the standard '\'' dance. Single quoting is used because it
// disables every other shell expansion.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// dotenvReplacer escapes the characters that would break a double-quoted
// dotenv value: backslashes, quotes, and line breaks.
var dotenvReplacer = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
)

// dotenvQuote renders a value for a dotenv line. Plain values pass
// through raw; values containing newlines, quotes, or backslashes are
// double-quoted with escapes so the file stays one entry per line.
func dotenvQuote(s string) string {
	if !strings.ContainsAny(s, "\n\r\"\\") {
		return s
	}
	return `"` + dotenvReplacer.Replace(s) + `"`
}
