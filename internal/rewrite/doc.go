// Package rewrite implements the pure transformations over HPL trees:
// substitution of the enclosing message by an alias and back, reference
// refactoring, canonical forms, conjunct splitting and simplification.
//
// Every function returns new nodes and leaves its input untouched. When a
// transformation has nothing to do, the input node itself is returned.
//
// ORDER:
//
// Conjunct and disjunct lists are produced left to right, and duplicate
// removal keeps the first occurrence. Results are therefore stable across
// runs, which the store relies on when it hashes canonical forms.
package rewrite
