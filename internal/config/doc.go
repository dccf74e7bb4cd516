// Package config loads tool-level configuration via viper.
//
// Configuration is distinct from manifests: a manifest declares what one
// sandbox contains, while this config tunes how the tool itself behaves
// (default base image, backend override, extra library roots, log level).
package config
