// Package store provides a SQLite-backed catalog of compiled HPL
// properties.
//
// A run records one compilation of a specification source. Each run holds
// its properties in source order, keyed by content ID, and the canonical
// forms of every property are stored once per content ID.
//
// # Ordering
//
// Runs are ordered by a logical sequence number, never by wall time.
// Queries order by seq, then by source index, so results are identical
// across machines.
//
// # Compatibility
//
// The catalog records the serialization format version it was created
// with. Open refuses a catalog whose major version differs from
// ir.FormatVersion.
package store
