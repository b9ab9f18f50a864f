// Package types holds the error taxonomy, parse limits and diagnostics
// shared by the dfxmlkit packages.
//
// Every failure surfaced by the parsers and the extent database belongs to
// one ErrKind. Callers branch with errors.Is against the sentinels declared
// here; the payload-carrying errors (extent.CollisionError,
// regxml.DuplicatePathError, dftime.ParseError, LimitError, ...) match their
// category sentinel through an Is method and expose the kind through Kind().
//
// Limits bound what a single document may claim while it is read. A
// DiagnosticReport collects what the readers tolerated instead of failing on.
//
// This package has no dependencies beyond the standard library.
package types
