// Package libpath computes library search path values.
//
// A manifest env entry declared as a libraryPath object names packages
// whose shared-library directories are joined into one path-list value
// (the LD_LIBRARY_PATH idiom: directories the dynamic loader searches
// at process start). This package resolves those directories, first by
// asking the package manager backend for the package's file list, then
// by probing well-known library roots, and joins them with the OS
// path-list separator while deduplicating.
package libpath
