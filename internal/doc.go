// Package internal contains the core implementation packages for vpkg.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - catalog: Loading and decoding the catalog document (JSON or YAML)
//   - config: Configuration management with Viper and rule overrides
//   - diagnostics: Thread-safe finding collection and the final verdict
//   - errors: Typed registry errors and process exit codes
//   - logging: Structured logging over log/slog
//   - report: Text, JSON and YAML rendering of a validation report
//   - rules: Rule tables and their compiled form
//   - scanner: Template discovery under a package's templates directory
//   - validator: Package, template and security checks
//   - version: Build information
//   - watcher: File system monitoring with debouncing for watch mode
//
// # Data Flow
//
// A validation run moves in one direction:
//
//	catalog.Load -> validator.Run -> diagnostics.Collector -> report.Render
//
// The validator checks packages concurrently. Every finding carries the
// package index and the template ordinal it was found at, so the report
// is identical whatever the scheduling.
package internal
