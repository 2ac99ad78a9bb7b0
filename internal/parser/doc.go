// Package parser reads the HPL surface syntax into ast trees.
//
// The lexer is hand-written. Channel names such as /robot/odom collide
// with division and field access, so the parser rewinds and asks the
// lexer for a channel wherever the grammar expects an event.
//
// Every AST constructor error is reported with the position of the
// construct that failed, wrapped in a PositionError. Grammar violations
// are SyntaxErrors with code E101, and repeated metadata keys use E102.
package parser
