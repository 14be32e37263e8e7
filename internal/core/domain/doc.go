// Package domain defines the core business entities for the MARC importer.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawRecord: A parsed MARC record (control and data fields)
//   - ClassifiedRecord: Natural key, timestamp and type derived from control fields
//   - DuplicateDecision: The tri-state answer of a duplicate lookup
//   - FieldRow, SubfieldRow: Normalised rows written to storage
//   - HoldingMarker: A location value that spawns a derived holding record
//   - LoadReport: Counters for one processed file
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
