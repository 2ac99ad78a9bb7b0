package schema

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Schema error codes (E400-E499)
const (
	ErrNotFound        = "E401" // directory missing or holds no .cue files
	ErrLoadFailed      = "E402" // CUE load or build failed
	ErrUnknownType     = "E403" // field or channel names an undefined type
	ErrInvalidArray    = "E404" // malformed array type
	ErrInvalidConstant = "E405" // constant value does not fit its type
	ErrRecursive       = "E406" // message contains itself
)

// LoadError is a schema error with the CUE position, when known.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) ErrorCode() string { return e.Code }

func errorf(code string, pos token.Pos, format string, args ...any) *LoadError {
	return &LoadError{Code: code, Message: fmt.Sprintf(format, args...), Pos: pos}
}

// fromCUE keeps the first CUE error and its position.
func fromCUE(code string, err error) *LoadError {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}
	first := errs[0]
	le := &LoadError{Code: code, Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
