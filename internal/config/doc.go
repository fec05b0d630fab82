// Package config loads librarian settings from defaults, an optional YAML
// file and LIBRARIAN_-prefixed environment variables, then validates them
// before any store or logger is built from them.
package config
