// Package value defines the runtime values produced by the evaluators.
//
// Closures live in package eval because they capture environments and
// expression bodies; everything else a program can compute is here.
package value

import (
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Value is the result of evaluating an expression.
type Value interface {
	String() string
	isValue()
}

// SExp marks the values that can appear inside a quoted literal.
type SExp interface {
	Value
	isSExp()
}

type Number float64

func (Number) isValue() {}
func (Number) isSExp()  {}

func (n Number) String() string {
	return strconv.FormatFloat(float64(n), 'g', -1, 64)
}

type Bool bool

func (Bool) isValue() {}
func (Bool) isSExp()  {}

func (b Bool) String() string {
	if b {
		return "#t"
	}
	return "#f"
}

type String string

func (String) isValue() {}
func (String) isSExp()  {}

func (s String) String() string {
	return strconv.Quote(string(s))
}

// PrimOp is a primitive procedure referenced by name.
type PrimOp struct {
	Op string
}

func (*PrimOp) isValue() {}
func (*PrimOp) isSExp()  {}

func (p *PrimOp) String() string {
	return p.Op
}

type Symbol struct {
	Name string
}

func (*Symbol) isValue() {}
func (*Symbol) isSExp()  {}

func (s *Symbol) String() string {
	return s.Name
}

// Empty is the empty list '().
type Empty struct{}

func (*Empty) isValue() {}
func (*Empty) isSExp()  {}

func (*Empty) String() string {
	return "()"
}

// Compound is a non-empty proper list. Its slice is never mutated after construction.
type Compound struct {
	Items []Value
}

func (*Compound) isValue() {}
func (*Compound) isSExp()  {}

func (c *Compound) String() string {
	return "(" + strings.Join(lo.Map(c.Items, func(v Value, _ int) string { return v.String() }), " ") + ")"
}

// Proc is embedded by procedure values defined outside this package.
type Proc struct{}

func (Proc) isValue() {}

// Void is the result of expressions evaluated only for effect (set!, define, display).
type Void struct{}

func (*Void) isValue() {}

func (*Void) String() string {
	return "#<void>"
}

// Undefined is the placeholder held by a letrec binding before it is initialized.
type Undefined struct{}

func (*Undefined) isValue() {}

func (*Undefined) String() string {
	return "#<undefined>"
}

var (
	theEmpty     = &Empty{}
	theVoid      = &Void{}
	theUndefined = &Undefined{}
)

func MakeEmpty() *Empty { return theEmpty }

func MakeVoid() *Void { return theVoid }

func MakeUndefined() *Undefined { return theUndefined }

func MakeSymbol(name string) *Symbol { return &Symbol{Name: name} }

// MakeCompound builds a list value; an empty item slice yields '().
func MakeCompound(items []Value) Value {
	if len(items) == 0 {
		return theEmpty
	}
	return &Compound{Items: items}
}

func IsTrue(v Value) bool {
	b, ok := v.(Bool)
	return !ok || bool(b)
}

func IsVoid(v Value) bool {
	_, ok := v.(*Void)
	return ok
}

func IsUndefined(v Value) bool {
	_, ok := v.(*Undefined)
	return ok
}

func IsList(v Value) bool {
	switch v.(type) {
	case *Empty, *Compound:
		return true
	}
	return false
}
