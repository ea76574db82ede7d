// Package cmd implements the formreq CLI commands using Cobra.
//
// Available commands:
//   - send: Issue one GET or POST form request and report its lifecycle
//   - version: Show formreq version information
//   - completion: Generate shell completion scripts
//
// send reads defaults from .formreq.json / .formreq.yaml, lets flags and
// FORMREQ_* environment variables override them, and can re-send whenever
// the attached file changes (--watch).
package cmd
