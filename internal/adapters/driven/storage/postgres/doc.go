// Package postgres provides a PostgreSQL implementation of the record storage ports
// for shared catalog databases.
//
// It uses a pgx connection pool and mirrors the sqlite adapter: one Store that
// hands out RecordStore, RecordQuerier, DuplicateResolver and FileStore views,
// and versioned migrations embedded from the migrations/ directory.
//
// Tests run only when MARCIMPORT_TEST_DATABASE_URL points at a disposable database.
package postgres
