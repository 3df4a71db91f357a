package ast

import (
	"github.com/samber/lo"

	"martianoff/lscheme/internal/texp"
)

// PrimitiveOps lists the names the parser turns into PrimOp nodes.
var PrimitiveOps = []string{
	"+", "-", "*", "/", ">", "<", "=", "not", "eq?", "string=?",
	"cons", "car", "cdr", "list?", "number?", "boolean?", "symbol?", "string?",
	"display", "newline",
}

func IsPrimitiveOp(name string) bool {
	return lo.Contains(PrimitiveOps, name)
}

// MakeVarDecl returns an unannotated declaration with a fresh type variable.
func MakeVarDecl(name string) *VarDecl {
	return &VarDecl{Var: name, TExp: texp.MakeFreshTVar()}
}

// IsAtomic reports whether e has no sub-expressions.
func IsAtomic(e Exp) bool {
	switch e.(type) {
	case *NumExp, *BoolExp, *StrExp, *PrimOp, *VarRef, *LitExp:
		return true
	}
	return false
}

// Components returns the direct sub-expressions of e in source order.
func Components(e Exp) []Exp {
	switch e := e.(type) {
	case *IfExp:
		return []Exp{e.Test, e.Then, e.Alt}
	case *ProcExp:
		return e.Body
	case *AppExp:
		return append([]Exp{e.Rator}, lo.Map(e.Rands, func(r CExp, _ int) Exp { return r })...)
	case *LetExp:
		return append(bindingVals(e.Bindings), e.Body...)
	case *LetrecExp:
		return append(bindingVals(e.Bindings), e.Body...)
	case *SetExp:
		return []Exp{e.Val}
	case *DefineExp:
		return []Exp{e.Val}
	}
	return nil
}

// Walk visits e and its sub-expressions in pre-order.
func Walk(e Exp, visit func(Exp)) {
	visit(e)
	for _, c := range Components(e) {
		Walk(c, visit)
	}
}

func bindingVals(bindings []*Binding) []Exp {
	return lo.Map(bindings, func(b *Binding, _ int) Exp { return b.Val })
}

// LastExp returns the final expression of a body.
func LastExp(body []Exp) Exp {
	if len(body) == 0 {
		return nil
	}
	return body[len(body)-1]
}
