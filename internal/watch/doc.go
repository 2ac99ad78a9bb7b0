// Package watch re-runs a callback when HPL files change on disk.
package watch
