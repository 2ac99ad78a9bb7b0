// Package types provides the HPL type lattice and external type tokens.
//
// DataType is a seven-bit flag set. Types combine with Union and narrow with
// Cast; a cast that leaves no categories fails. Cast, Union and CanBe are the
// only lattice operations, everything else in the module builds on them.
//
// Type tokens (MessageType, ArrayType, RangedType, ...) describe external
// message schemas and are consumed by schema-aware reference checking.
package types
