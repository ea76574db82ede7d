// Package output reports a request's lifecycle.
//
// Supported output formats:
//   - Console: Human-readable colored terminal output, streamed as events happen
//   - JSON: One machine-readable document written when the request ends
//
// A Recorder turns request handlers into Events and feeds them to a Formatter.
package output
