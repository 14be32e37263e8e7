// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - RecordSourceOpener / RecordReader: Decoded MARC record stream
//   - RecordStore: Record, field and subfield row persistence
//   - DuplicateResolver: Tri-state duplicate lookup
//   - FileStore: Registry of loaded files
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - ListenDirectory: Only needed by the watch daemon.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
