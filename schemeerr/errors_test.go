package schemeerr_test

import (
	"errors"
	"fmt"
	"martianoff/lscheme/schemeerr"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyntaxError(t *testing.T) {
	err := schemeerr.NewSyntaxError(10, 5, "unexpected )")
	assert.Equal(t, schemeerr.TypeSyntax, err.Type())
	assert.Equal(t, 10, err.Line)
	assert.Equal(t, 5, err.Column)
	assert.Equal(t, "[SyntaxError] line 10:5 unexpected )", err.Error())
}

func TestSyntaxErrorNoPosition(t *testing.T) {
	err := schemeerr.NewSyntaxError(0, 0, "unexpected end of input")
	assert.Equal(t, "[SyntaxError] unexpected end of input", err.Error())
}

func TestUnboundVariable(t *testing.T) {
	err := schemeerr.NewUnboundVariable("x")
	assert.Equal(t, schemeerr.TypeUnboundVariable, err.Type())
	assert.Equal(t, "x", err.Name)
	assert.Equal(t, "[UnboundVariable] var not found: x", err.Error())
}

func TestTypedConstructors(t *testing.T) {
	tests := []struct {
		err  *schemeerr.BaseError
		want schemeerr.ErrorType
	}{
		{schemeerr.NewParseError("bad %s", "form"), schemeerr.TypeParse},
		{schemeerr.NewTypeError("+ expects numbers only"), schemeerr.TypeType},
		{schemeerr.NewShapeError("let needs bindings"), schemeerr.TypeShape},
		{schemeerr.NewUnificationError("circular"), schemeerr.TypeUnification},
		{schemeerr.NewBadProcedure("1"), schemeerr.TypeBadProcedure},
		{schemeerr.NewRecursionLimit(10), schemeerr.TypeRecursionLimit},
		{schemeerr.NewUninitialized("f"), schemeerr.TypeUninitialized},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Type())
			assert.True(t, strings.HasPrefix(tt.err.Error(), "["+string(tt.want)+"]"))
		})
	}
}

func TestMultiError(t *testing.T) {
	e1 := schemeerr.NewUnboundVariable("a")
	e2 := schemeerr.NewTypeError("car: param is not compound 1")
	multi := &schemeerr.MultiError{Errors: []error{e1, e2}}

	assert.Equal(t, schemeerr.TypeUnboundVariable, multi.Type())
	errMsg := multi.Error()
	assert.Contains(t, errMsg, "2 error(s) occurred:")
	assert.Contains(t, errMsg, "- [UnboundVariable] var not found: a")
	assert.Contains(t, errMsg, "- [TypeError] car: param is not compound 1")
}

func TestMultiErrorEmpty(t *testing.T) {
	multi := &schemeerr.MultiError{Errors: []error{}}
	assert.Equal(t, schemeerr.ErrorType("MultiError"), multi.Type())
	assert.True(t, strings.HasPrefix(multi.Error(), "0 error(s) occurred:"))
}

func TestMultiErrorUnwrap(t *testing.T) {
	inner := schemeerr.NewUnboundVariable("y")
	multi := &schemeerr.MultiError{Errors: []error{schemeerr.NewTypeError("x"), inner}}

	var ub *schemeerr.UnboundVariableError
	assert.True(t, errors.As(multi, &ub))
	assert.Equal(t, "y", ub.Name)
}

func TestCombine(t *testing.T) {
	assert.NoError(t, schemeerr.Combine(nil))
	assert.NoError(t, schemeerr.Combine([]error{nil, nil}))

	one := schemeerr.NewTypeError("only")
	assert.Same(t, one, schemeerr.Combine([]error{nil, one}))

	two := schemeerr.Combine([]error{one, schemeerr.NewShapeError("other")})
	var multi *schemeerr.MultiError
	assert.True(t, errors.As(two, &multi))
	assert.Len(t, multi.Errors, 2)
}

func TestIsAndTypeOf(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", schemeerr.NewBadProcedure("5"))
	assert.True(t, schemeerr.Is(err, schemeerr.TypeBadProcedure))
	assert.False(t, schemeerr.Is(err, schemeerr.TypeType))
	assert.False(t, schemeerr.Is(nil, schemeerr.TypeType))
	assert.Equal(t, schemeerr.ErrorType(""), schemeerr.TypeOf(errors.New("plain")))
}
