// Package capture inspects the raw body handed to a request's success handler.
//
// It supports:
//   - Selecting a value with a gjson path
//   - Validating the body against a JSON Schema file
package capture
