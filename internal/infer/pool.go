package infer

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"martianoff/lscheme/internal/ast"
	"martianoff/lscheme/internal/texp"
)

// PoolItem pairs a sub-expression with its type variable.
type PoolItem struct {
	Exp ast.Exp
	TE  texp.TExp
}

// Pool assigns a type to every sub-expression of one expression. Entries are
// keyed by node identity, so two equal-looking sub-expressions are pooled
// separately. A variable reference shares the type of its declaration, and
// all free references to one name share a single fresh variable.
type Pool struct {
	Items []PoolItem
	index map[ast.Exp]texp.TExp
	free  map[string]texp.TExp
}

func (p *Pool) Lookup(e ast.Exp) (texp.TExp, bool) {
	te, ok := p.index[e]
	return te, ok
}

func (p *Pool) add(e ast.Exp, te texp.TExp) texp.TExp {
	p.Items = append(p.Items, PoolItem{Exp: e, TE: te})
	p.index[e] = te
	return te
}

// scope resolves variable names to the types of their declarations.
type scope struct {
	vars  map[string]texp.TExp
	outer *scope
}

func (s *scope) resolve(name string) (texp.TExp, bool) {
	for ; s != nil; s = s.outer {
		if te, ok := s.vars[name]; ok {
			return te, true
		}
	}
	return nil, false
}

func (s *scope) extend(decls []*ast.VarDecl) *scope {
	vars := make(map[string]texp.TExp, len(decls))
	// the first declaration of a name wins, like environment frames
	for i := len(decls) - 1; i >= 0; i-- {
		vars[decls[i].Var] = decls[i].TExp
	}
	return &scope{vars: vars, outer: s}
}

// ExpToPool walks exp and pools every sub-expression.
func ExpToPool(exp ast.Exp) *Pool {
	p := newPool()
	p.visit(exp, &scope{vars: map[string]texp.TExp{}})
	return p
}

// ProgramToPool pools the forms of a program; each define is visible to the forms after it.
func ProgramToPool(prog *ast.Program) *Pool {
	p := newPool()
	p.visitBody(prog.Exps, &scope{vars: map[string]texp.TExp{}})
	return p
}

func newPool() *Pool {
	return &Pool{index: map[ast.Exp]texp.TExp{}, free: map[string]texp.TExp{}}
}

func (p *Pool) visit(e ast.Exp, sc *scope) {
	if _, seen := p.index[e]; seen {
		return
	}
	switch e := e.(type) {
	case *ast.VarRef:
		p.add(e, p.varType(e.Var, sc))
		return
	case *ast.ProcExp:
		p.visitBody(e.Body, sc.extend(e.Args))
	case *ast.LetExp:
		for _, b := range e.Bindings {
			p.visit(b.Val, sc)
		}
		p.visitBody(e.Body, sc.extend(bindingDecls(e.Bindings)))
	case *ast.LetrecExp:
		inner := sc.extend(bindingDecls(e.Bindings))
		for _, b := range e.Bindings {
			p.visit(b.Val, inner)
		}
		p.visitBody(e.Body, inner)
	case *ast.SetExp:
		p.visit(e.Var, sc)
		p.visit(e.Val, sc)
	case *ast.DefineExp:
		p.visit(e.Val, sc.extend([]*ast.VarDecl{e.Var}))
	default:
		for _, c := range ast.Components(e) {
			p.visit(c, sc)
		}
	}
	p.add(e, texp.MakeFreshTVar())
}

// visitBody pools a body sequence. A define makes its name visible to the rest of the body.
func (p *Pool) visitBody(body []ast.Exp, sc *scope) {
	for _, e := range body {
		if d, ok := e.(*ast.DefineExp); ok {
			sc = sc.extend([]*ast.VarDecl{d.Var})
		}
		p.visit(e, sc)
	}
}

func (p *Pool) varType(name string, sc *scope) texp.TExp {
	if te, ok := sc.resolve(name); ok {
		return te
	}
	if te, ok := p.free[name]; ok {
		return te
	}
	te := texp.MakeFreshTVar()
	p.free[name] = te
	return te
}

func (p *Pool) String() string {
	return "[" + strings.Join(lo.Map(p.Items, func(it PoolItem, _ int) string {
		return fmt.Sprintf("(%s %s)", it.Exp, it.TE)
	}), ", ") + "]"
}

func bindingDecls(bindings []*ast.Binding) []*ast.VarDecl {
	decls := make([]*ast.VarDecl, len(bindings))
	for i, b := range bindings {
		decls[i] = b.Var
	}
	return decls
}
