// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The record pipeline is:
//
//	Classify -> DuplicateResolver -> FieldDecomposer -> HoldingSynthesizer
//
// and is driven one record at a time by MarcLoader.
//
// Services are pure Go with no CGO. Storage, decoding and watching are
// reached only through the driven ports.
package services
