// Package ast implements the HPL abstract syntax tree.
//
// The tree has three layers:
//   - Expressions (Expr): a sealed set of node kinds, each carrying a
//     narrowed DataType from the types lattice.
//   - Predicates and events: a boolean condition attached to a channel,
//     optionally aliased so later events can refer to its message.
//   - Scopes, patterns and properties: the temporal shape of a property,
//     with alias scoping enforced by Property.SanityCheck.
//
// IMMUTABILITY:
//
// Nodes are never mutated after construction. Every update goes through the
// validating constructors (WithChildren, Reshape, Replace) and returns a new
// node, or the original node when nothing changed. Callers may rely on
// pointer identity to detect no-op rewrites.
//
// ERRORS:
//
// Construction is all-or-nothing. Invariant violations return *SanityError
// (E2xx) and lattice or schema failures return *TypeError (E3xx).
package ast
