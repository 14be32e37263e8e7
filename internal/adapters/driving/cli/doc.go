// Package cli implements the marcimport command line.
//
// Commands reach the core through the App interface, which main builds
// from the configuration directory once flags have been parsed.
package cli
