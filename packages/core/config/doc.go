// Package config handles configuration loading and management for formreq.
//
// It provides functionality for:
//   - Loading configuration from .formreq.json or .formreq.yaml files
//   - Default configuration values
//   - Merging command line overrides on top of a file
package config
