// Package manifest handles loading and validating envbox manifests.
//
// A manifest declares a sandbox environment with two recognized keys:
//
//	deps — ordered sequence of package identifiers to provision
//	env  — mapping from environment variable name to a value, which is
//	       either a literal string or an object with a "libraryPath" list
//	       naming packages whose shared-library directories are joined
//
// Manifests are written in JSONC (envbox.json, parsed with
// github.com/tidwall/jsonc before encoding/json) or YAML (envbox.yaml,
// parsed with gopkg.in/yaml.v3). The optional name, image, and backend
// keys are tool extensions on top of the core declaration.
package manifest
