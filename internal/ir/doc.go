// Package ir serializes HPL trees into a constrained JSON value model and
// derives content IDs from it.
//
// ir imports ast and nothing else internal, so store, harness and the CLI
// can depend on it freely.
//
// Key constraints:
//   - no floats anywhere: numbers that are not integers are strings
//   - all JSON keys use snake_case
//   - content IDs are SHA-256 over RFC 8785 canonical JSON, domain separated
package ir
