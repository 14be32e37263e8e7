// Package sqlite provides a SQLite-based implementation of the record storage ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements several ports through a
// single database connection:
//
//   - RecordStore: record, field and subfield rows
//   - RecordQuerier: reading stored records back
//   - DuplicateResolver: insert, update or skip decisions
//   - FileStore: loaded files and their counters
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.marcimport/data/marc.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
