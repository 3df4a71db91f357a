package infer

import (
	"martianoff/lscheme/internal/ast"
	"martianoff/lscheme/internal/parser"
	"martianoff/lscheme/internal/texp"
	"martianoff/lscheme/schemeerr"
)

// Check type checks a fully annotated expression: every parameter, binding,
// define and procedure return must carry a declared type. Type variables in
// annotations stand for themselves and only match the same variable.
func Check(exp ast.Exp) (texp.TExp, error) {
	return typeofCheck(exp, EmptyTEnv())
}

// CheckProgram checks every form of prog and returns the type of the last one.
func CheckProgram(prog *ast.Program) (texp.TExp, error) {
	return checkBody(prog.Exps, EmptyTEnv())
}

// CheckTypeOf parses and checks src, returning the type in concrete syntax.
func CheckTypeOf(src string) (string, error) {
	parsed, err := parser.ParseExpression(src)
	if err != nil {
		return "", err
	}
	var te texp.TExp
	switch p := parsed.(type) {
	case *ast.Program:
		te, err = CheckProgram(p)
	case ast.Exp:
		te, err = Check(p)
	}
	if err != nil {
		return "", err
	}
	return te.String(), nil
}

func typeofCheck(exp ast.Exp, tenv *TEnv) (texp.TExp, error) {
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
		return nil, schemeerr.NewTypeError("quoted literal %s has no checked type", e)
	case *ast.IfExp:
		return checkIf(e, tenv)
	case *ast.ProcExp:
		return checkProc(e, tenv)
	case *ast.AppExp:
		return checkApp(e, tenv)
	case *ast.LetExp:
		if err := checkBindings(e.Bindings, tenv); err != nil {
			return nil, err
		}
		decls := bindingDecls(e.Bindings)
		return checkBody(e.Body, ExtendTEnv(tenv, declNames(decls), declTypes(decls)))
	case *ast.LetrecExp:
		decls := bindingDecls(e.Bindings)
		if err := annotated(decls...); err != nil {
			return nil, err
		}
		inner := ExtendTEnv(tenv, declNames(decls), declTypes(decls))
		if err := checkBindings(e.Bindings, inner); err != nil {
			return nil, err
		}
		return checkBody(e.Body, inner)
	case *ast.DefineExp:
		if err := annotated(e.Var); err != nil {
			return nil, err
		}
		inner := ExtendTEnv(tenv, []string{e.Var.Var}, []texp.TExp{e.Var.TExp})
		if err := checkExp(e.Val, e.Var.TExp, inner); err != nil {
			return nil, err
		}
		return texp.MakeVoidTExp(), nil
	case *ast.SetExp:
		varTE, err := ApplyTEnv(tenv, e.Var.Var)
		if err != nil {
			return nil, err
		}
		if err := checkExp(e.Val, varTE, tenv); err != nil {
			return nil, err
		}
		return texp.MakeVoidTExp(), nil
	}
	return nil, schemeerr.NewTypeError("unknown expression %s", exp)
}

// checkExp computes the type of exp and requires it to match expected.
func checkExp(exp ast.Exp, expected texp.TExp, tenv *TEnv) error {
	te, err := typeofCheck(exp, tenv)
	if err != nil {
		return err
	}
	return checkEqualType(expected, te, exp)
}

func checkEqualType(expected, actual texp.TExp, at ast.Exp) error {
	if matchType(expected, actual) {
		return nil
	}
	return schemeerr.NewTypeError("incompatible types: %s and %s in %s", expected, actual, at)
}

// matchType is structural equality, except that a generated variable (from a
// polymorphic primitive signature) matches any type.
func matchType(expected, actual texp.TExp) bool {
	if v, ok := expected.(*texp.TVar); ok && v.Generated() {
		return true
	}
	pe, okE := expected.(*texp.ProcTExp)
	pa, okA := actual.(*texp.ProcTExp)
	if okE && okA {
		if len(pe.Params) != len(pa.Params) {
			return false
		}
		for i := range pe.Params {
			if !matchType(pe.Params[i], pa.Params[i]) {
				return false
			}
		}
		return matchType(pe.Return, pa.Return)
	}
	return texp.Equal(expected, actual)
}

func annotated(decls ...*ast.VarDecl) error {
	for _, d := range decls {
		if v, ok := d.TExp.(*texp.TVar); ok && v.Generated() {
			return schemeerr.NewTypeError("missing type annotation for %s", d.Var)
		}
	}
	return nil
}

func checkIf(e *ast.IfExp, tenv *TEnv) (texp.TExp, error) {
	if err := checkExp(e.Test, texp.MakeBoolTExp(), tenv); err != nil {
		return nil, err
	}
	thenTE, err := typeofCheck(e.Then, tenv)
	if err != nil {
		return nil, err
	}
	if err := checkExp(e.Alt, thenTE, tenv); err != nil {
		return nil, err
	}
	return thenTE, nil
}

func checkProc(e *ast.ProcExp, tenv *TEnv) (texp.TExp, error) {
	if err := annotated(e.Args...); err != nil {
		return nil, err
	}
	if v, ok := e.ReturnTE.(*texp.TVar); ok && v.Generated() {
		return nil, schemeerr.NewTypeError("missing return type annotation in %s", e)
	}
	bodyTE, err := checkBody(e.Body, ExtendTEnv(tenv, declNames(e.Args), declTypes(e.Args)))
	if err != nil {
		return nil, err
	}
	if err := checkEqualType(e.ReturnTE, bodyTE, e); err != nil {
		return nil, err
	}
	return texp.MakeProcTExp(declTypes(e.Args), e.ReturnTE), nil
}

func checkApp(e *ast.AppExp, tenv *TEnv) (texp.TExp, error) {
	ratorTE, err := typeofCheck(e.Rator, tenv)
	if err != nil {
		return nil, err
	}
	proc, ok := ratorTE.(*texp.ProcTExp)
	if !ok {
		return nil, schemeerr.NewTypeError("application of non-procedure %s of type %s", e.Rator, ratorTE)
	}
	if len(proc.Params) != len(e.Rands) {
		return nil, schemeerr.NewTypeError("%s expects %d arguments, got %d", e.Rator, len(proc.Params), len(e.Rands))
	}
	for i, r := range e.Rands {
		if err := checkExp(r, proc.Params[i], tenv); err != nil {
			return nil, err
		}
	}
	return proc.Return, nil
}

func checkBindings(bindings []*ast.Binding, tenv *TEnv) error {
	for _, b := range bindings {
		if err := annotated(b.Var); err != nil {
			return err
		}
		if err := checkExp(b.Val, b.Var.TExp, tenv); err != nil {
			return err
		}
	}
	return nil
}

func checkBody(body []ast.Exp, tenv *TEnv) (texp.TExp, error) {
	if len(body) == 0 {
		return nil, schemeerr.NewShapeError("Empty program")
	}
	var te texp.TExp
	for _, e := range body {
		if d, ok := e.(*ast.DefineExp); ok {
			tenv = ExtendTEnv(tenv, []string{d.Var.Var}, []texp.TExp{d.Var.TExp})
		}
		var err error
		if te, err = typeofCheck(e, tenv); err != nil {
			return nil, err
		}
	}
	return te, nil
}
