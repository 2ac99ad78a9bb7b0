package parser

import (
	"errors"
	"fmt"
)

// Syntax error codes (E100-E199)
const (
	ErrSyntax            = "E101" // unexpected token or malformed literal
	ErrDuplicateMetadata = "E102" // metadata key repeated for one property
)

// SyntaxError reports input that does not match the HPL grammar.
type SyntaxError struct {
	Pos     Pos
	Code    string
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("[%s] line %d, column %d: %s", e.Code, e.Pos.Line, e.Pos.Col, e.Message)
}

func (e *SyntaxError) ErrorCode() string { return e.Code }

// IsSyntaxError reports whether err is or wraps a *SyntaxError.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}

// PositionError attaches the source position of the construct that
// failed to build to an AST error.
type PositionError struct {
	Pos Pos
	Err error
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("line %d, column %d: %v", e.Pos.Line, e.Pos.Col, e.Err)
}

func (e *PositionError) Unwrap() error { return e.Err }
