// Package schema loads external message schemas written in CUE.
//
// A schema directory declares message types under `message` and binds
// channels to them under `channel`. The result feeds schema-aware type
// checking in package ast, where every field access is resolved against
// the message type of its event.
package schema
