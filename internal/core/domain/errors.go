package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Load Errors.

	// ErrSourceOpen indicates a MARC source could not be opened.
	// Nothing from the file is processed.
	ErrSourceOpen = errors.New("unable to open MARC source")

	// ErrMissingControlKey indicates a record without a usable 001 field.
	ErrMissingControlKey = errors.New("missing or blank control field [001]")

	// ErrInvalidTimestamp indicates a non-numeric 005 field.
	ErrInvalidTimestamp = errors.New("invalid modification timestamp [005]")

	// ErrMalformedRecord indicates a record that could not be decoded.
	ErrMalformedRecord = errors.New("malformed MARC record")

	// Configuration Errors.

	// ErrUnsupportedDriver indicates an unknown storage driver.
	ErrUnsupportedDriver = errors.New("unsupported storage driver")

	// ErrUnknownSetting indicates a settings key that does not exist.
	ErrUnknownSetting = errors.New("unknown setting")
)
