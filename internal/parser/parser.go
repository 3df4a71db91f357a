// Package parser reads fully-parenthesized prefix source text into the
// expression and type-expression trees.
package parser

import (
	"fmt"
	"strconv"
	"unicode"

	"github.com/samber/lo"

	"martianoff/lscheme/internal/ast"
	"martianoff/lscheme/internal/texp"
	"martianoff/lscheme/internal/value"
	"martianoff/lscheme/schemeerr"
)

// programTags are the heads that wrap a sequence of top-level forms.
var programTags = []string{"L3", "L4", "L5"}

// ParseExpression parses src into a single expression, or into a program when
// src holds several top-level forms or one (L5 ...) wrapper.
func ParseExpression(src string) (ast.Parsed, error) {
	forms, err := readAll(src)
	if err != nil {
		return nil, err
	}
	switch len(forms) {
	case 0:
		return nil, schemeerr.NewParseError("empty input")
	case 1:
		if lo.Contains(programTags, forms[0].head()) {
			return parseProgram(forms[0].list[1:])
		}
		return parseExp(forms[0])
	}
	return parseProgram(forms)
}

// ParseProgram parses src as a program. A bare sequence of forms and an
// (L5 ...) wrapper are both accepted.
func ParseProgram(src string) (*ast.Program, error) {
	parsed, err := ParseExpression(src)
	if err != nil {
		return nil, err
	}
	switch p := parsed.(type) {
	case *ast.Program:
		return p, nil
	case ast.Exp:
		return &ast.Program{Exps: []ast.Exp{p}}, nil
	}
	return nil, schemeerr.NewParseError("unexpected parse result %s", parsed)
}

func parseProgram(forms []*sexp) (*ast.Program, error) {
	if len(forms) == 0 {
		return nil, schemeerr.NewParseError("Empty program")
	}
	exps := make([]ast.Exp, 0, len(forms))
	var errs []error
	for _, f := range forms {
		if lo.Contains(programTags, f.head()) {
			errs = append(errs, shapeError(f, "program cannot be embedded in another program"))
			continue
		}
		e, err := parseExp(f)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		exps = append(exps, e)
	}
	if err := schemeerr.Combine(errs); err != nil {
		return nil, err
	}
	return &ast.Program{Exps: exps}, nil
}

// parseExp parses a define or any other expression.
func parseExp(s *sexp) (ast.Exp, error) {
	if s.head() == "define" {
		return parseDefine(s)
	}
	return parseCExp(s)
}

func parseCExp(s *sexp) (ast.CExp, error) {
	if !s.isList {
		return parseAtomic(s), nil
	}
	if len(s.list) == 0 {
		return nil, shapeError(s, "unexpected empty form ()")
	}
	switch s.head() {
	case "if":
		return parseIf(s)
	case "lambda":
		return parseProc(s)
	case "let":
		bindings, body, err := parseLetParts(s)
		if err != nil {
			return nil, err
		}
		return &ast.LetExp{Bindings: bindings, Body: body}, nil
	case "letrec":
		bindings, body, err := parseLetParts(s)
		if err != nil {
			return nil, err
		}
		return &ast.LetrecExp{Bindings: bindings, Body: body}, nil
	case "set!":
		return parseSet(s)
	case "quote":
		return parseQuote(s)
	case "define":
		return nil, shapeError(s, "define is not allowed in expression position")
	}
	return parseApp(s)
}

func parseAtomic(s *sexp) ast.CExp {
	switch {
	case s.str:
		return &ast.StrExp{Val: s.text}
	case s.text == "#t":
		return &ast.BoolExp{Val: true}
	case s.text == "#f":
		return &ast.BoolExp{Val: false}
	}
	if n, ok := parseNumber(s.text); ok {
		return &ast.NumExp{Val: n}
	}
	if ast.IsPrimitiveOp(s.text) {
		return &ast.PrimOp{Op: s.text}
	}
	return &ast.VarRef{Var: s.text}
}

// parseNumber accepts decimal literals only, so names like inf and nan stay identifiers.
func parseNumber(text string) (float64, bool) {
	digits := text
	if len(digits) > 0 && (digits[0] == '+' || digits[0] == '-') {
		digits = digits[1:]
	}
	if len(digits) > 0 && digits[0] == '.' {
		digits = digits[1:]
	}
	if len(digits) == 0 || !unicode.IsDigit(rune(digits[0])) {
		return 0, false
	}
	n, err := strconv.ParseFloat(text, 64)
	return n, err == nil
}

func parseCExps(forms []*sexp) ([]ast.CExp, error) {
	res := make([]ast.CExp, 0, len(forms))
	var errs []error
	for _, f := range forms {
		e, err := parseCExp(f)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		res = append(res, e)
	}
	return res, schemeerr.Combine(errs)
}

// parseBody parses a body sequence. Body sequences may contain define forms.
func parseBody(owner *sexp, forms []*sexp) ([]ast.Exp, error) {
	if len(forms) == 0 {
		return nil, shapeError(owner, "%s requires a body", owner.head())
	}
	res := make([]ast.Exp, 0, len(forms))
	var errs []error
	for _, f := range forms {
		e, err := parseExp(f)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		res = append(res, e)
	}
	return res, schemeerr.Combine(errs)
}

func parseApp(s *sexp) (*ast.AppExp, error) {
	cexps, err := parseCExps(s.list)
	if err != nil {
		return nil, err
	}
	return &ast.AppExp{Rator: cexps[0], Rands: cexps[1:]}, nil
}

// (if test then alt)
func parseIf(s *sexp) (*ast.IfExp, error) {
	if len(s.list) != 4 {
		return nil, shapeError(s, "if should be (if test then alt) - %s", s)
	}
	parts, err := parseCExps(s.list[1:])
	if err != nil {
		return nil, err
	}
	return &ast.IfExp{Test: parts[0], Then: parts[1], Alt: parts[2]}, nil
}

// (lambda (decl ...) [: TE] body ...)
func parseProc(s *sexp) (*ast.ProcExp, error) {
	if len(s.list) < 3 || !s.list[1].isList {
		return nil, shapeError(s, "lambda should be (lambda (<var-decl>*) <exp>+) - %s", s)
	}
	args, err := parseVarDecls(s.list[1].list)
	if err != nil {
		return nil, err
	}
	var returnTE texp.TExp = texp.MakeFreshTVar()
	rest := s.list[2:]
	if rest[0].isAtom(":") {
		if len(rest) < 2 {
			return nil, shapeError(s, "missing return type after : - %s", s)
		}
		if returnTE, err = parseTExp(rest[1]); err != nil {
			return nil, err
		}
		rest = rest[2:]
	}
	body, err := parseBody(s, rest)
	if err != nil {
		return nil, err
	}
	return &ast.ProcExp{Args: args, Body: body, ReturnTE: returnTE}, nil
}

// parseVarDecl accepts x or (x : TE).
func parseVarDecl(s *sexp) (*ast.VarDecl, error) {
	if !s.isList {
		if s.str {
			return nil, shapeError(s, "expected a variable name, got %s", s)
		}
		return ast.MakeVarDecl(s.text), nil
	}
	if len(s.list) != 3 || s.list[0].isList || s.list[0].str || !s.list[1].isAtom(":") {
		return nil, shapeError(s, "expected (<var> : <texp>) - %s", s)
	}
	te, err := parseTExp(s.list[2])
	if err != nil {
		return nil, err
	}
	return &ast.VarDecl{Var: s.list[0].text, TExp: te}, nil
}

func parseVarDecls(forms []*sexp) ([]*ast.VarDecl, error) {
	res := make([]*ast.VarDecl, 0, len(forms))
	var errs []error
	for _, f := range forms {
		d, err := parseVarDecl(f)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		res = append(res, d)
	}
	return res, schemeerr.Combine(errs)
}

// (let|letrec ((decl val) ...) body ...)
func parseLetParts(s *sexp) ([]*ast.Binding, []ast.Exp, error) {
	if len(s.list) < 3 || !s.list[1].isList {
		return nil, nil, shapeError(s, "expected (%s (<binding>*) <exp>+) - %s", s.head(), s)
	}
	bindings := make([]*ast.Binding, 0, len(s.list[1].list))
	for _, b := range s.list[1].list {
		if !b.isList || len(b.list) != 2 {
			return nil, nil, shapeError(b, "binding should be (<var-decl> <exp>) - %s", b)
		}
		decl, err := parseVarDecl(b.list[0])
		if err != nil {
			return nil, nil, err
		}
		val, err := parseCExp(b.list[1])
		if err != nil {
			return nil, nil, err
		}
		bindings = append(bindings, &ast.Binding{Var: decl, Val: val})
	}
	body, err := parseBody(s, s.list[2:])
	if err != nil {
		return nil, nil, err
	}
	return bindings, body, nil
}

// (set! var val)
func parseSet(s *sexp) (*ast.SetExp, error) {
	if len(s.list) != 3 || s.list[1].isList || s.list[1].str {
		return nil, shapeError(s, "set! should be (set! var val) - %s", s)
	}
	val, err := parseCExp(s.list[2])
	if err != nil {
		return nil, err
	}
	return &ast.SetExp{Var: &ast.VarRef{Var: s.list[1].text}, Val: val}, nil
}

// (define decl val)
func parseDefine(s *sexp) (*ast.DefineExp, error) {
	if len(s.list) != 3 {
		return nil, shapeError(s, "define should be (define var val) - %s", s)
	}
	decl, err := parseVarDecl(s.list[1])
	if err != nil {
		return nil, err
	}
	val, err := parseCExp(s.list[2])
	if err != nil {
		return nil, err
	}
	return &ast.DefineExp{Var: decl, Val: val}, nil
}

func parseQuote(s *sexp) (*ast.LitExp, error) {
	if len(s.list) != 2 {
		return nil, shapeError(s, "quote takes exactly one datum - %s", s)
	}
	return &ast.LitExp{Val: parseSExp(s.list[1])}, nil
}

// parseSExp converts a quoted datum into a value.
func parseSExp(s *sexp) value.SExp {
	switch {
	case s.isList && len(s.list) == 0:
		return value.MakeEmpty()
	case s.isList:
		return &value.Compound{Items: lo.Map(s.list, func(x *sexp, _ int) value.Value { return parseSExp(x) })}
	case s.str:
		return value.String(s.text)
	case s.text == "#t":
		return value.Bool(true)
	case s.text == "#f":
		return value.Bool(false)
	}
	if n, ok := parseNumber(s.text); ok {
		return value.Number(n)
	}
	return value.MakeSymbol(s.text)
}

func shapeError(s *sexp, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return schemeerr.NewShapeError("line %d:%d: %s", s.pos.Line, s.pos.Column, msg)
}
