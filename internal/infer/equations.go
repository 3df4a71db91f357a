package infer

import (
	"fmt"

	"go.uber.org/zap"

	"martianoff/lscheme/internal/ast"
	"martianoff/lscheme/internal/texp"
	"martianoff/lscheme/schemeerr"
)

// Equation asserts that two type expressions are equal.
type Equation struct {
	Left  texp.TExp
	Right texp.TExp
}

func (e Equation) String() string {
	return fmt.Sprintf("%s = %s", e.Left, e.Right)
}

// PoolToEquations derives the equations of every composite pooled expression.
// Variable references add none beyond their declaration.
func PoolToEquations(pool *Pool) ([]Equation, error) {
	var eqs []Equation
	for _, it := range pool.Items {
		more, err := pool.equationsOf(it.Exp, it.TE)
		if err != nil {
			return nil, err
		}
		eqs = append(eqs, more...)
	}
	return eqs, nil
}

func (p *Pool) typeOf(e ast.Exp) texp.TExp {
	te, _ := p.Lookup(e)
	return te
}

func (p *Pool) equationsOf(e ast.Exp, te texp.TExp) ([]Equation, error) {
	switch e := e.(type) {
	case *ast.NumExp:
		return []Equation{{te, texp.MakeNumTExp()}}, nil
	case *ast.BoolExp:
		return []Equation{{te, texp.MakeBoolTExp()}}, nil
	case *ast.StrExp:
		return []Equation{{te, texp.MakeStrTExp()}}, nil
	case *ast.PrimOp:
		sig, err := TypeofPrim(e.Op)
		if err != nil {
			return nil, err
		}
		return []Equation{{te, sig}}, nil
	case *ast.ProcExp:
		params := make([]texp.TExp, len(e.Args))
		for i, d := range e.Args {
			params[i] = d.TExp
		}
		ret := p.typeOf(ast.LastExp(e.Body))
		return []Equation{
			{te, texp.MakeProcTExp(params, ret)},
			{e.ReturnTE, ret},
		}, nil
	case *ast.AppExp:
		rands := make([]texp.TExp, len(e.Rands))
		for i, r := range e.Rands {
			rands[i] = p.typeOf(r)
		}
		return []Equation{{p.typeOf(e.Rator), texp.MakeProcTExp(rands, te)}}, nil
	case *ast.IfExp:
		return []Equation{
			{p.typeOf(e.Test), texp.MakeBoolTExp()},
			{te, p.typeOf(e.Then)},
			{te, p.typeOf(e.Alt)},
		}, nil
	case *ast.LetExp:
		return append(bindingEquations(p, e.Bindings), Equation{te, p.typeOf(ast.LastExp(e.Body))}), nil
	case *ast.LetrecExp:
		return append(bindingEquations(p, e.Bindings), Equation{te, p.typeOf(ast.LastExp(e.Body))}), nil
	case *ast.DefineExp:
		return []Equation{{e.Var.TExp, p.typeOf(e.Val)}, {te, texp.MakeVoidTExp()}}, nil
	case *ast.SetExp:
		return []Equation{{p.typeOf(e.Var), p.typeOf(e.Val)}, {te, texp.MakeVoidTExp()}}, nil
	}
	return nil, nil
}

func bindingEquations(p *Pool, bindings []*ast.Binding) []Equation {
	eqs := make([]Equation, len(bindings))
	for i, b := range bindings {
		eqs[i] = Equation{b.Var.TExp, p.typeOf(b.Val)}
	}
	return eqs
}

// SolveEquations unifies the equations in order into one substitution.
func SolveEquations(eqs []Equation) (*Sub, error) {
	sub := EmptySub()
	queue := append([]Equation(nil), eqs...)
	for len(queue) > 0 {
		eq := Equation{ApplySub(sub, queue[0].Left), ApplySub(sub, queue[0].Right)}
		queue = queue[1:]

		var err error
		switch l, r := eq.Left, eq.Right; {
		case texp.Equal(l, r):
		case texp.IsTVar(l):
			sub, err = ExtendSub(sub, l.(*texp.TVar), r)
		case texp.IsTVar(r):
			sub, err = ExtendSub(sub, r.(*texp.TVar), l)
		case texp.IsAtomic(l) && texp.IsAtomic(r):
			err = schemeerr.NewUnificationError("equation with non-equal atomic types %s", eq)
		case canUnify(l, r):
			queue = append(queue, splitEquation(l.(*texp.ProcTExp), r.(*texp.ProcTExp))...)
		default:
			err = schemeerr.NewUnificationError("equation contains incompatible types %s", eq)
		}
		if err != nil {
			return nil, err
		}
	}
	return sub, nil
}

func canUnify(l, r texp.TExp) bool {
	lp, ok1 := l.(*texp.ProcTExp)
	rp, ok2 := r.(*texp.ProcTExp)
	return ok1 && ok2 && len(lp.Params) == len(rp.Params)
}

// splitEquation pairs the return types first, then the parameters.
func splitEquation(l, r *texp.ProcTExp) []Equation {
	eqs := []Equation{{l.Return, r.Return}}
	for i := range l.Params {
		eqs = append(eqs, Equation{l.Params[i], r.Params[i]})
	}
	return eqs
}

// Infer computes the type of exp by the equations method. When the equations
// cannot be solved it returns the expression's unresolved type variable along
// with the error.
func Infer(exp ast.Exp) (texp.TExp, error) {
	pool := ExpToPool(exp)
	return solvePool(pool, pool.typeOf(exp))
}

// InferProgram is Infer over the forms of a program; the result is the type of the last form.
func InferProgram(prog *ast.Program) (texp.TExp, error) {
	pool := ProgramToPool(prog)
	return solvePool(pool, pool.typeOf(ast.LastExp(prog.Exps)))
}

func solvePool(pool *Pool, te texp.TExp) (texp.TExp, error) {
	eqs, err := PoolToEquations(pool)
	if err != nil {
		return te, err
	}
	zap.L().Debug("solving type equations", zap.Int("pool", len(pool.Items)), zap.Int("equations", len(eqs)))
	sub, err := SolveEquations(eqs)
	if err != nil {
		return te, err
	}
	return ApplySub(sub, te), nil
}

// InferType is Infer without the error: an expression whose type cannot be
// determined reports an unconstrained type variable.
func InferType(exp ast.Exp) texp.TExp {
	te, _ := Infer(exp)
	return te
}
