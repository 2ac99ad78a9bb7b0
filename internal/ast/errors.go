package ast

import (
	"errors"
	"fmt"

	"github.com/roach88/hpl/internal/types"
)

// Sanity error codes (E200-E299)
const (
	ErrDuplicateAlias      = "E201" // alias introduced twice in a property
	ErrUndefinedAlias      = "E202" // reference to an alias not yet in scope
	ErrNoSelfReference     = "E203" // predicate never refers to its own message
	ErrUnusedVariable      = "E204" // quantified variable never used
	ErrRedeclaredVariable  = "E205" // nested quantifier redeclares a variable
	ErrVariableInDomain    = "E206" // quantified variable used in its own domain
	ErrDuplicateChannel    = "E207" // channel repeated within an event disjunction
	ErrInvalidShape        = "E208" // scope/pattern fields do not match the kind
	ErrInvalidTimeBounds   = "E209" // negative or inverted time bounds
	ErrUndefinedTypeToken  = "E210" // no type token for a variable
)

// Type error codes (E300-E399)
const (
	ErrTypeCast          = "E301" // empty intersection during narrowing
	ErrFunctionArguments = "E302" // no overload accepts the arguments
	ErrMissingField      = "E303" // schema has no such field or constant
	ErrNotAnArray        = "E304" // indexing something that is not an array
	ErrIndexOutOfRange   = "E305" // literal index beyond a fixed-length array
	ErrUnknownChannel    = "E306" // no message type for a channel
)

// SanityError reports a structurally valid AST that violates an invariant.
type SanityError struct {
	Code    string
	Message string
}

func (e *SanityError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *SanityError) ErrorCode() string { return e.Code }

// TypeError reports a failed narrowing or a schema mismatch.
type TypeError struct {
	Code    string
	Message string
	Err     error // underlying cast error, if any
}

func (e *TypeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *TypeError) Unwrap() error {
	return e.Err
}

func (e *TypeError) ErrorCode() string { return e.Code }

// Coded is an error that carries an E-code.
type Coded interface {
	error
	ErrorCode() string
}

// CodeOf returns the code of the outermost Coded error in err's chain,
// or "" when there is none.
func CodeOf(err error) string {
	var c Coded
	if errors.As(err, &c) {
		return c.ErrorCode()
	}
	return ""
}

func sanityErrorf(code, format string, args ...any) *SanityError {
	return &SanityError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func typeErrorf(code, format string, args ...any) *TypeError {
	return &TypeError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// typeErrorInExpr wraps a lattice failure with the offending expression.
func typeErrorInExpr(err error, e Expr) *TypeError {
	var castErr *types.CastError
	if errors.As(err, &castErr) {
		return &TypeError{
			Code:    ErrTypeCast,
			Message: fmt.Sprintf("type error in expression {%s}", e),
			Err:     err,
		}
	}
	var typeErr *TypeError
	if errors.As(err, &typeErr) {
		return typeErr
	}
	return &TypeError{Code: ErrTypeCast, Message: fmt.Sprintf("type error in expression {%s}", e), Err: err}
}

// IsSanityError reports whether err is or wraps a *SanityError.
func IsSanityError(err error) bool {
	var e *SanityError
	return errors.As(err, &e)
}

// IsTypeError reports whether err is or wraps a *TypeError.
func IsTypeError(err error) bool {
	var e *TypeError
	return errors.As(err, &e)
}
