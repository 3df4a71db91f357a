package eval

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"martianoff/lscheme/internal/ast"
	"martianoff/lscheme/internal/texp"
	"martianoff/lscheme/internal/value"
	"martianoff/lscheme/schemeerr"
)

// SubstClosure is a procedure of the substitution evaluator. It captures no
// environment; free variables are replaced by values when it is applied.
type SubstClosure struct {
	value.Proc
	Params []*ast.VarDecl
	Body   []ast.Exp
}

func (c *SubstClosure) String() string {
	params := lo.Map(c.Params, func(d *ast.VarDecl, _ int) string { return d.Var })
	body := strings.Join(lo.Map(c.Body, func(e ast.Exp, _ int) string { return e.String() }), " ")
	return fmt.Sprintf("<Closure (%s) %s>", strings.Join(params, " "), body)
}

// substEnv is an immutable chain of definitions.
type substEnv struct {
	name string
	val  value.Value
	next *substEnv
}

func (e *substEnv) lookup(name string) (value.Value, error) {
	for ; e != nil; e = e.next {
		if e.name == name {
			return e.val, nil
		}
	}
	return nil, schemeerr.NewUnboundVariable(name)
}

// SubstEvaluator applies procedures by renaming the bound variables of the
// body and substituting the argument values for the parameters.
type SubstEvaluator struct {
	defs *substEnv
	opts options
}

func NewSubst(opts ...Option) *SubstEvaluator {
	return &SubstEvaluator{opts: buildOptions(opts)}
}

// EvaluateProgram evaluates the program's forms in sequence. Definitions made
// by the program remain visible to later calls.
func (s *SubstEvaluator) EvaluateProgram(p *ast.Program) (value.Value, error) {
	return s.evalSequence(p.Exps, &s.defs)
}

func (s *SubstEvaluator) EvaluateTopLevel(exp ast.Exp) (value.Value, error) {
	return s.evalSequence([]ast.Exp{exp}, &s.defs)
}

// Names lists the defined names, most recent first.
func (s *SubstEvaluator) Names() []string {
	var names []string
	for e := s.defs; e != nil; e = e.next {
		names = append(names, e.name)
	}
	return lo.Uniq(names)
}

func (s *SubstEvaluator) evalSequence(exps []ast.Exp, defs **substEnv) (value.Value, error) {
	if len(exps) == 0 {
		return nil, schemeerr.NewShapeError("Empty program")
	}
	var res value.Value
	for _, exp := range exps {
		switch exp := exp.(type) {
		case *ast.DefineExp:
			rhs, err := s.eval(exp.Val, *defs)
			if err != nil {
				return nil, err
			}
			s.opts.logger.Debug("define", zap.String("name", exp.Var.Var), zap.Stringer("value", rhs))
			*defs = &substEnv{name: exp.Var.Var, val: rhs, next: *defs}
			res = value.MakeVoid()
		case ast.CExp:
			v, err := s.eval(exp, *defs)
			if err != nil {
				return nil, err
			}
			res = v
		}
	}
	return res, nil
}

func (s *SubstEvaluator) eval(exp ast.CExp, defs *substEnv) (value.Value, error) {
	switch exp := exp.(type) {
	case *ast.NumExp:
		return value.Number(exp.Val), nil
	case *ast.BoolExp:
		return value.Bool(exp.Val), nil
	case *ast.StrExp:
		return value.String(exp.Val), nil
	case *ast.PrimOp:
		return &value.PrimOp{Op: exp.Op}, nil
	case *ast.VarRef:
		return defs.lookup(exp.Var)
	case *ast.LitExp:
		return exp.Val, nil
	case *ast.IfExp:
		test, err := s.eval(exp.Test, defs)
		if err != nil {
			return nil, err
		}
		if value.IsTrue(test) {
			return s.eval(exp.Then, defs)
		}
		return s.eval(exp.Alt, defs)
	case *ast.ProcExp:
		return &SubstClosure{Params: exp.Args, Body: exp.Body}, nil
	case *ast.AppExp:
		return s.evalApp(exp.Rator, exp.Rands, defs)
	case *ast.LetExp:
		// (let ((x v) ...) body) is ((lambda (x ...) body) v ...)
		proc := &ast.ProcExp{
			Args:     lo.Map(exp.Bindings, func(b *ast.Binding, _ int) *ast.VarDecl { return b.Var }),
			Body:     exp.Body,
			ReturnTE: texp.MakeFreshTVar(),
		}
		return s.evalApp(proc, lo.Map(exp.Bindings, func(b *ast.Binding, _ int) ast.CExp { return b.Val }), defs)
	}
	return nil, schemeerr.NewShapeError("%s is not supported by the substitution evaluator", exp)
}

func (s *SubstEvaluator) evalApp(rator ast.CExp, rands []ast.CExp, defs *substEnv) (value.Value, error) {
	proc, err := s.eval(rator, defs)
	if err != nil {
		return nil, err
	}
	args := make([]value.Value, len(rands))
	var errs []error
	for i, r := range rands {
		if args[i], err = s.eval(r, defs); err != nil {
			errs = append(errs, err)
		}
	}
	if err := schemeerr.Combine(errs); err != nil {
		return nil, err
	}
	switch p := proc.(type) {
	case *value.PrimOp:
		prim, ok := primitives[p.Op]
		if !ok {
			return nil, schemeerr.NewBadProcedure("Bad primitive op %s", p.Op)
		}
		return prim(s.opts.out, args)
	case *SubstClosure:
		if len(args) != len(p.Params) {
			return nil, schemeerr.NewShapeError("%s expects %d arguments, got %d", p, len(p.Params), len(args))
		}
		vars := lo.Map(p.Params, func(d *ast.VarDecl, _ int) string { return d.Var })
		lits := make([]ast.CExp, len(args))
		for i, a := range args {
			if lits[i], err = valueToLitExp(a); err != nil {
				return nil, err
			}
		}
		s.opts.logger.Debug("apply closure", zap.Strings("params", vars))
		body := Substitute(RenameExps(p.Body), vars, lits)
		local := defs
		return s.evalSequence(body, &local)
	}
	return nil, schemeerr.NewBadProcedure("Bad procedure %s", proc)
}

// valueToLitExp turns an argument value back into an expression that evaluates to it.
func valueToLitExp(v value.Value) (ast.CExp, error) {
	switch v := v.(type) {
	case value.Number:
		return &ast.NumExp{Val: float64(v)}, nil
	case value.Bool:
		return &ast.BoolExp{Val: bool(v)}, nil
	case value.String:
		return &ast.StrExp{Val: string(v)}, nil
	case *value.PrimOp:
		return &ast.PrimOp{Op: v.Op}, nil
	case *SubstClosure:
		return &ast.ProcExp{Args: v.Params, Body: v.Body, ReturnTE: texp.MakeFreshTVar()}, nil
	case value.SExp:
		return &ast.LitExp{Val: v}, nil
	}
	return nil, schemeerr.NewTypeError("%s cannot be passed as an argument", v)
}

// Substitute replaces free occurrences of vars in body with the matching exps.
// Parameters of nested procedures shadow the substitution.
func Substitute(body []ast.Exp, vars []string, exps []ast.CExp) []ast.Exp {
	return lo.Map(body, func(e ast.Exp, _ int) ast.Exp { return substituteExp(e, vars, exps) })
}

func substituteExp(e ast.Exp, vars []string, exps []ast.CExp) ast.Exp {
	if d, ok := e.(*ast.DefineExp); ok {
		return &ast.DefineExp{Var: d.Var, Val: substituteCExp(d.Val, vars, exps)}
	}
	return substituteCExp(e.(ast.CExp), vars, exps)
}

func substituteCExp(e ast.CExp, vars []string, exps []ast.CExp) ast.CExp {
	sub := func(x ast.CExp) ast.CExp { return substituteCExp(x, vars, exps) }
	switch e := e.(type) {
	case *ast.VarRef:
		if i := lo.IndexOf(vars, e.Var); i >= 0 {
			return exps[i]
		}
		return e
	case *ast.IfExp:
		return &ast.IfExp{Test: sub(e.Test), Then: sub(e.Then), Alt: sub(e.Alt)}
	case *ast.AppExp:
		return &ast.AppExp{Rator: sub(e.Rator), Rands: lo.Map(e.Rands, func(r ast.CExp, _ int) ast.CExp { return sub(r) })}
	case *ast.ProcExp:
		freeVars, freeExps := unshadowed(vars, exps, e.Args)
		return &ast.ProcExp{Args: e.Args, Body: Substitute(e.Body, freeVars, freeExps), ReturnTE: e.ReturnTE}
	case *ast.LetExp:
		freeVars, freeExps := unshadowed(vars, exps, lo.Map(e.Bindings, func(b *ast.Binding, _ int) *ast.VarDecl { return b.Var }))
		return &ast.LetExp{
			Bindings: lo.Map(e.Bindings, func(b *ast.Binding, _ int) *ast.Binding { return &ast.Binding{Var: b.Var, Val: sub(b.Val)} }),
			Body:     Substitute(e.Body, freeVars, freeExps),
		}
	}
	return e
}

func unshadowed(vars []string, exps []ast.CExp, decls []*ast.VarDecl) ([]string, []ast.CExp) {
	names := lo.Map(decls, func(d *ast.VarDecl, _ int) string { return d.Var })
	var freeVars []string
	var freeExps []ast.CExp
	for i, v := range vars {
		if !lo.Contains(names, v) {
			freeVars = append(freeVars, v)
			freeExps = append(freeExps, exps[i])
		}
	}
	return freeVars, freeExps
}

// RenameExps gives the parameters of every procedure and the variables of
// every let in exps a fresh name of the form name__n, with n counting up from
// 1 within one call.
func RenameExps(exps []ast.Exp) []ast.Exp {
	count := 0
	fresh := func(name string) string {
		count++
		return fmt.Sprintf("%s__%d", name, count)
	}
	var rename func(e ast.CExp) ast.CExp
	renameBody := func(body []ast.Exp) []ast.Exp {
		return lo.Map(body, func(e ast.Exp, _ int) ast.Exp {
			if d, ok := e.(*ast.DefineExp); ok {
				return &ast.DefineExp{Var: d.Var, Val: rename(d.Val)}
			}
			return rename(e.(ast.CExp))
		})
	}
	rename = func(e ast.CExp) ast.CExp {
		switch e := e.(type) {
		case *ast.IfExp:
			return &ast.IfExp{Test: rename(e.Test), Then: rename(e.Then), Alt: rename(e.Alt)}
		case *ast.AppExp:
			return &ast.AppExp{Rator: rename(e.Rator), Rands: lo.Map(e.Rands, func(r ast.CExp, _ int) ast.CExp { return rename(r) })}
		case *ast.ProcExp:
			oldArgs := lo.Map(e.Args, func(d *ast.VarDecl, _ int) string { return d.Var })
			newArgs := lo.Map(e.Args, func(d *ast.VarDecl, _ int) *ast.VarDecl { return &ast.VarDecl{Var: fresh(d.Var), TExp: d.TExp} })
			refs := lo.Map(newArgs, func(d *ast.VarDecl, _ int) ast.CExp { return &ast.VarRef{Var: d.Var} })
			return &ast.ProcExp{Args: newArgs, Body: Substitute(renameBody(e.Body), oldArgs, refs), ReturnTE: e.ReturnTE}
		case *ast.LetExp:
			oldVars := lo.Map(e.Bindings, func(b *ast.Binding, _ int) string { return b.Var.Var })
			bindings := lo.Map(e.Bindings, func(b *ast.Binding, _ int) *ast.Binding {
				return &ast.Binding{Var: &ast.VarDecl{Var: fresh(b.Var.Var), TExp: b.Var.TExp}, Val: rename(b.Val)}
			})
			refs := lo.Map(bindings, func(b *ast.Binding, _ int) ast.CExp { return &ast.VarRef{Var: b.Var.Var} })
			return &ast.LetExp{Bindings: bindings, Body: Substitute(renameBody(e.Body), oldVars, refs)}
		}
		return e
	}
	return renameBody(exps)
}
