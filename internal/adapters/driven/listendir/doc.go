// Package listendir watches a drop directory for MARC files.
//
// Files already present are reported first, then new files are reported
// once writes to them have been quiet for the debounce period. Hidden files
// and subdirectories, including the archive directory, are ignored.
package listendir
