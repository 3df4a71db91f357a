package schemeerr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType defines the category of the error.
type ErrorType string

const (
	TypeSyntax          ErrorType = "SyntaxError"
	TypeParse           ErrorType = "ParseError"
	TypeUnboundVariable ErrorType = "UnboundVariable"
	TypeType            ErrorType = "TypeError"
	TypeShape           ErrorType = "ShapeError"
	TypeUnification     ErrorType = "UnificationError"
	TypeBadProcedure    ErrorType = "BadProcedure"
	TypeRecursionLimit  ErrorType = "RecursionLimit"
	TypeUninitialized   ErrorType = "UninitializedBinding"
)

// SchemeError is the interface for all interpreter errors.
type SchemeError interface {
	error
	Type() ErrorType
}

// BaseError provides common fields for interpreter errors.
type BaseError struct {
	Msg     string
	ErrType ErrorType
}

func (e *BaseError) Error() string {
	return fmt.Sprintf("[%s] %s", e.ErrType, e.Msg)
}

func (e *BaseError) Type() ErrorType {
	return e.ErrType
}

// SyntaxError represents an error while reading source text.
type SyntaxError struct {
	BaseError
	Line   int
	Column int
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d:%d %s", e.ErrType, e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("[%s] %s", e.ErrType, e.Msg)
}

// UnboundVariableError is returned when a name is absent from the whole environment chain.
type UnboundVariableError struct {
	BaseError
	Name string
}

// MultiError collects multiple errors, e.g. all failing operands of one application.
type MultiError struct {
	Errors []error
}

func (m *MultiError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d error(s) occurred:\n", len(m.Errors)))
	for _, err := range m.Errors {
		sb.WriteString(fmt.Sprintf("- %v\n", err))
	}
	return sb.String()
}

func (m *MultiError) Type() ErrorType {
	if len(m.Errors) > 0 {
		var se SchemeError
		if errors.As(m.Errors[0], &se) {
			return se.Type()
		}
	}
	return "MultiError"
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Combine returns nil for no errors, the error itself for one, and a MultiError otherwise.
func Combine(errs []error) error {
	var kept []error
	for _, err := range errs {
		if err != nil {
			kept = append(kept, err)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return &MultiError{Errors: kept}
}

// TypeOf reports the ErrorType of err, or "" if err carries none.
func TypeOf(err error) ErrorType {
	var se SchemeError
	if errors.As(err, &se) {
		return se.Type()
	}
	return ""
}

// Is reports whether err (or the first error it wraps) is of the given type.
func Is(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

func newError(t ErrorType, format string, args ...any) *BaseError {
	return &BaseError{Msg: fmt.Sprintf(format, args...), ErrType: t}
}

// NewSyntaxError creates a new SyntaxError.
func NewSyntaxError(line, column int, msg string) *SyntaxError {
	return &SyntaxError{
		BaseError: BaseError{
			Msg:     msg,
			ErrType: TypeSyntax,
		},
		Line:   line,
		Column: column,
	}
}

// NewParseError reports a form that reads fine but is not a valid expression.
func NewParseError(format string, args ...any) *BaseError {
	return newError(TypeParse, format, args...)
}

// NewUnboundVariable creates an UnboundVariableError for name.
func NewUnboundVariable(name string) *UnboundVariableError {
	return &UnboundVariableError{
		BaseError: BaseError{
			Msg:     "var not found: " + name,
			ErrType: TypeUnboundVariable,
		},
		Name: name,
	}
}

// NewTypeError reports a primitive applied to wrong-shaped arguments or an ill-typed expression.
func NewTypeError(format string, args ...any) *BaseError {
	return newError(TypeType, format, args...)
}

// NewShapeError reports a malformed special form or a wrong argument count.
func NewShapeError(format string, args ...any) *BaseError {
	return newError(TypeShape, format, args...)
}

// NewUnificationError reports incompatible or circular type expressions.
func NewUnificationError(format string, args ...any) *BaseError {
	return newError(TypeUnification, format, args...)
}

// NewBadProcedure reports the application of a value that is not a procedure.
func NewBadProcedure(format string, args ...any) *BaseError {
	return newError(TypeBadProcedure, format, args...)
}

// NewRecursionLimit reports that evaluation went deeper than the configured limit.
func NewRecursionLimit(limit int) *BaseError {
	return newError(TypeRecursionLimit, "maximum recursion depth %d exceeded", limit)
}

// NewUninitialized reports a read of a letrec binding before its value was assigned.
func NewUninitialized(name string) *BaseError {
	return newError(TypeUninitialized, "uninitialized binding: %s", name)
}
