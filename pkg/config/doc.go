// Package config loads the dispatch server's configuration from
// config.toml, tolerating a missing file by falling back to defaults.
package config
