package infer

import (
	"github.com/samber/lo"

	"martianoff/lscheme/internal/ast"
	"martianoff/lscheme/internal/parser"
	"martianoff/lscheme/internal/texp"
	"martianoff/lscheme/schemeerr"
)

// Inferer infers types by structural recursion, threading one substitution
// through the whole expression.
type Inferer struct {
	sub *Sub
}

func NewInferer() *Inferer {
	return &Inferer{sub: EmptySub()}
}

// Sub returns the substitution accumulated so far.
func (inf *Inferer) Sub() *Sub {
	return inf.sub
}

// TypeofExp infers the type of exp in tenv. Free variables are errors.
func TypeofExp(exp ast.Exp, tenv *TEnv) (texp.TExp, error) {
	inf := NewInferer()
	te, err := inf.Infer(exp, tenv)
	if err != nil {
		return nil, err
	}
	return ApplySub(inf.sub, te), nil
}

// TypeofProgram infers the type of the last form of prog. Each define extends
// the type environment of the forms after it.
func TypeofProgram(prog *ast.Program, tenv *TEnv) (texp.TExp, error) {
	inf := NewInferer()
	te, err := inf.inferBody(prog.Exps, tenv)
	if err != nil {
		return nil, err
	}
	return ApplySub(inf.sub, te), nil
}

// InferTypeOf parses src and returns its inferred type in concrete syntax.
func InferTypeOf(src string) (string, error) {
	parsed, err := parser.ParseExpression(src)
	if err != nil {
		return "", err
	}
	var te texp.TExp
	switch p := parsed.(type) {
	case *ast.Program:
		te, err = TypeofProgram(p, EmptyTEnv())
	case ast.Exp:
		te, err = TypeofExp(p, EmptyTEnv())
	}
	if err != nil {
		return "", err
	}
	return te.String(), nil
}

func (inf *Inferer) Infer(exp ast.Exp, tenv *TEnv) (texp.TExp, error) {
	switch e := exp.(type) {
	case *ast.NumExp:
		return texp.MakeNumTExp(), nil
	case *ast.BoolExp:
		return texp.MakeBoolTExp(), nil
	case *ast.StrExp:
		return texp.MakeStrTExp(), nil
	case *ast.PrimOp:
		return TypeofPrim(e.Op)
	case *ast.VarRef:
		return ApplyTEnv(tenv, e.Var)
	case *ast.LitExp:
		return texp.MakeFreshTVar(), nil
	case *ast.IfExp:
		return inf.inferIf(e, tenv)
	case *ast.ProcExp:
		return inf.inferProc(e, tenv)
	case *ast.AppExp:
		return inf.inferApp(e, tenv)
	case *ast.LetExp:
		return inf.inferLet(e, tenv)
	case *ast.LetrecExp:
		return inf.inferLetrec(e, tenv)
	case *ast.DefineExp:
		return inf.inferDefine(e, tenv)
	case *ast.SetExp:
		varTE, err := ApplyTEnv(tenv, e.Var.Var)
		if err != nil {
			return nil, err
		}
		if err := inf.check(e.Val, varTE, tenv); err != nil {
			return nil, err
		}
		return texp.MakeVoidTExp(), nil
	}
	return nil, schemeerr.NewTypeError("unknown expression %s", exp)
}

// check infers the type of exp and unifies it with expected.
func (inf *Inferer) check(exp ast.Exp, expected texp.TExp, tenv *TEnv) error {
	te, err := inf.Infer(exp, tenv)
	if err != nil {
		return err
	}
	return inf.unify(expected, te, exp)
}

func (inf *Inferer) inferIf(e *ast.IfExp, tenv *TEnv) (texp.TExp, error) {
	if err := inf.check(e.Test, texp.MakeBoolTExp(), tenv); err != nil {
		return nil, err
	}
	thenTE, err := inf.Infer(e.Then, tenv)
	if err != nil {
		return nil, err
	}
	if err := inf.check(e.Alt, thenTE, tenv); err != nil {
		return nil, err
	}
	return thenTE, nil
}

func (inf *Inferer) inferProc(e *ast.ProcExp, tenv *TEnv) (texp.TExp, error) {
	params := lo.Map(e.Args, func(d *ast.VarDecl, _ int) texp.TExp { return d.TExp })
	bodyTE, err := inf.inferBody(e.Body, ExtendTEnv(tenv, declNames(e.Args), params))
	if err != nil {
		return nil, err
	}
	if err := inf.unify(e.ReturnTE, bodyTE, e); err != nil {
		return nil, err
	}
	return texp.MakeProcTExp(params, e.ReturnTE), nil
}

// inferBody types a sequence; the result is the type of the last expression.
func (inf *Inferer) inferBody(body []ast.Exp, tenv *TEnv) (texp.TExp, error) {
	if len(body) == 0 {
		return nil, schemeerr.NewShapeError("Empty program")
	}
	var te texp.TExp
	for _, e := range body {
		if d, ok := e.(*ast.DefineExp); ok {
			tenv = ExtendTEnv(tenv, []string{d.Var.Var}, []texp.TExp{d.Var.TExp})
		}
		var err error
		if te, err = inf.Infer(e, tenv); err != nil {
			return nil, err
		}
	}
	return te, nil
}

func (inf *Inferer) inferApp(e *ast.AppExp, tenv *TEnv) (texp.TExp, error) {
	ratorTE, err := inf.Infer(e.Rator, tenv)
	if err != nil {
		return nil, err
	}
	randTEs := make([]texp.TExp, len(e.Rands))
	for i, r := range e.Rands {
		if randTEs[i], err = inf.Infer(r, tenv); err != nil {
			return nil, err
		}
	}
	ret := texp.MakeFreshTVar()
	if err := inf.unify(ratorTE, texp.MakeProcTExp(randTEs, ret), e); err != nil {
		return nil, err
	}
	return ret, nil
}

func (inf *Inferer) inferLet(e *ast.LetExp, tenv *TEnv) (texp.TExp, error) {
	decls := bindingDecls(e.Bindings)
	for _, b := range e.Bindings {
		if err := inf.check(b.Val, b.Var.TExp, tenv); err != nil {
			return nil, err
		}
	}
	return inf.inferBody(e.Body, ExtendTEnv(tenv, declNames(decls), declTypes(decls)))
}

func (inf *Inferer) inferLetrec(e *ast.LetrecExp, tenv *TEnv) (texp.TExp, error) {
	decls := bindingDecls(e.Bindings)
	inner := ExtendTEnv(tenv, declNames(decls), declTypes(decls))
	for _, b := range e.Bindings {
		if err := inf.check(b.Val, b.Var.TExp, inner); err != nil {
			return nil, err
		}
	}
	return inf.inferBody(e.Body, inner)
}

// inferDefine checks the value against the declared type; a define has type void.
// The declared name is visible in its own value so recursive procedures can be typed.
func (inf *Inferer) inferDefine(e *ast.DefineExp, tenv *TEnv) (texp.TExp, error) {
	inner := ExtendTEnv(tenv, []string{e.Var.Var}, []texp.TExp{e.Var.TExp})
	if err := inf.check(e.Val, e.Var.TExp, inner); err != nil {
		return nil, err
	}
	return texp.MakeVoidTExp(), nil
}

// unify makes a and b equal under the substitution, extending it as needed.
func (inf *Inferer) unify(a, b texp.TExp, at ast.Exp) error {
	a, b = ApplySub(inf.sub, a), ApplySub(inf.sub, b)
	if texp.Equal(a, b) {
		return nil
	}
	if v, ok := a.(*texp.TVar); ok {
		return inf.bind(v, b)
	}
	if v, ok := b.(*texp.TVar); ok {
		return inf.bind(v, a)
	}
	pa, okA := a.(*texp.ProcTExp)
	pb, okB := b.(*texp.ProcTExp)
	if !okA || !okB || len(pa.Params) != len(pb.Params) {
		return schemeerr.NewUnificationError("type mismatch in %s: %s vs %s", at, a, b)
	}
	for i := range pa.Params {
		if err := inf.unify(pa.Params[i], pb.Params[i], at); err != nil {
			return err
		}
	}
	return inf.unify(pa.Return, pb.Return, at)
}

func (inf *Inferer) bind(v *texp.TVar, te texp.TExp) error {
	sub, err := ExtendSub(inf.sub, v, te)
	if err != nil {
		return err
	}
	inf.sub = sub
	return nil
}

func declNames(decls []*ast.VarDecl) []string {
	return lo.Map(decls, func(d *ast.VarDecl, _ int) string { return d.Var })
}

func declTypes(decls []*ast.VarDecl) []texp.TExp {
	return lo.Map(decls, func(d *ast.VarDecl, _ int) texp.TExp { return d.TExp })
}
