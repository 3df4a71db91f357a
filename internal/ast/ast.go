// Package ast defines the expression tree shared by the evaluators and the
// type system. Every node is immutable once built; String unparses it back
// to concrete syntax.
package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"martianoff/lscheme/internal/texp"
	"martianoff/lscheme/internal/value"
)

// Parsed is a parser result: a single expression or a program.
type Parsed interface {
	fmt.Stringer
	isParsed()
}

// Exp is a define or a CExp.
type Exp interface {
	Parsed
	isExp()
}

// CExp is any expression except define.
type CExp interface {
	Exp
	isCExp()
}

type cexp struct{}

func (cexp) isParsed() {}
func (cexp) isExp()    {}
func (cexp) isCExp()   {}

type NumExp struct {
	cexp
	Val float64
}

func (e *NumExp) String() string {
	return strconv.FormatFloat(e.Val, 'g', -1, 64)
}

type BoolExp struct {
	cexp
	Val bool
}

func (e *BoolExp) String() string {
	if e.Val {
		return "#t"
	}
	return "#f"
}

type StrExp struct {
	cexp
	Val string
}

func (e *StrExp) String() string {
	return strconv.Quote(e.Val)
}

// PrimOp references a primitive procedure by name.
type PrimOp struct {
	cexp
	Op string
}

func (e *PrimOp) String() string {
	return e.Op
}

type VarRef struct {
	cexp
	Var string
}

func (e *VarRef) String() string {
	return e.Var
}

// VarDecl declares a variable with its type. Unannotated declarations carry a generated type variable.
type VarDecl struct {
	Var  string
	TExp texp.TExp
}

func (d *VarDecl) String() string {
	if isImplicit(d.TExp) {
		return d.Var
	}
	return fmt.Sprintf("(%s : %s)", d.Var, d.TExp)
}

type AppExp struct {
	cexp
	Rator CExp
	Rands []CExp
}

func (e *AppExp) String() string {
	if len(e.Rands) == 0 {
		return fmt.Sprintf("(%s)", e.Rator)
	}
	return fmt.Sprintf("(%s %s)", e.Rator, joinExps(e.Rands))
}

type IfExp struct {
	cexp
	Test CExp
	Then CExp
	Alt  CExp
}

func (e *IfExp) String() string {
	return fmt.Sprintf("(if %s %s %s)", e.Test, e.Then, e.Alt)
}

// ProcExp is a lambda. ReturnTE is a generated type variable when not annotated.
type ProcExp struct {
	cexp
	Args     []*VarDecl
	Body     []Exp
	ReturnTE texp.TExp
}

func (e *ProcExp) String() string {
	ret := ""
	if !isImplicit(e.ReturnTE) {
		ret = " : " + e.ReturnTE.String()
	}
	args := strings.Join(lo.Map(e.Args, func(d *VarDecl, _ int) string { return d.String() }), " ")
	return fmt.Sprintf("(lambda (%s)%s %s)", args, ret, joinExps(e.Body))
}

type Binding struct {
	Var *VarDecl
	Val CExp
}

func (b *Binding) String() string {
	return fmt.Sprintf("(%s %s)", b.Var, b.Val)
}

type LetExp struct {
	cexp
	Bindings []*Binding
	Body     []Exp
}

func (e *LetExp) String() string {
	return fmt.Sprintf("(let (%s) %s)", joinBindings(e.Bindings), joinExps(e.Body))
}

type LetrecExp struct {
	cexp
	Bindings []*Binding
	Body     []Exp
}

func (e *LetrecExp) String() string {
	return fmt.Sprintf("(letrec (%s) %s)", joinBindings(e.Bindings), joinExps(e.Body))
}

type SetExp struct {
	cexp
	Var *VarRef
	Val CExp
}

func (e *SetExp) String() string {
	return fmt.Sprintf("(set! %s %s)", e.Var, e.Val)
}

// LitExp is a quoted literal.
type LitExp struct {
	cexp
	Val value.SExp
}

func (e *LitExp) String() string {
	return "'" + e.Val.String()
}

type DefineExp struct {
	Var *VarDecl
	Val CExp
}

func (*DefineExp) isParsed() {}
func (*DefineExp) isExp()    {}

func (e *DefineExp) String() string {
	return fmt.Sprintf("(define %s %s)", e.Var, e.Val)
}

type Program struct {
	Exps []Exp
}

func (*Program) isParsed() {}

func (p *Program) String() string {
	return fmt.Sprintf("(L5 %s)", joinExps(p.Exps))
}

func isImplicit(te texp.TExp) bool {
	tv, ok := te.(*texp.TVar)
	return te == nil || (ok && tv.Generated())
}

func joinExps[E fmt.Stringer](exps []E) string {
	return strings.Join(lo.Map(exps, func(e E, _ int) string { return e.String() }), " ")
}

func joinBindings(bindings []*Binding) string {
	return strings.Join(lo.Map(bindings, func(b *Binding, _ int) string { return b.String() }), " ")
}
