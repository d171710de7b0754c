// Package config provides the configuration for VibeSense: command-line
// defaults, validation and the optional .vibesense YAML file with per-site
// overrides.
package config
