package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"martianoff/lscheme/internal/ast"
	"martianoff/lscheme/internal/texp"
	"martianoff/lscheme/internal/value"
	"martianoff/lscheme/schemeerr"
)

func TestTokenize(t *testing.T) {
	tokens, err := tokenize("(define x 'a) ; comment\n\"s t\"")
	require.NoError(t, err)
	texts := make([]string, len(tokens))
	for i, tok := range tokens {
		texts[i] = tok.text
	}
	assert.Equal(t, []string{"(", "define", "x", "'", "a", ")", "s t"}, texts)
	assert.Equal(t, 2, tokens[len(tokens)-1].pos.Line)
}

func TestParseRoundTrip(t *testing.T) {
	tests := []string{
		"1",
		"#t",
		`"hello"`,
		"x",
		"(+ 1 2)",
		"(if (> x 0) x (- 0 x))",
		"(lambda (x y) (* x y))",
		"(lambda ((x : number)) : number (* x x))",
		"(let ((a 1) (b 2)) (+ a b))",
		"(letrec ((f (lambda (n) (f n)))) (f 1))",
		"(set! x 3)",
		"(define (n : number) 5)",
		"'(1 (a #t) \"s\")",
		"'()",
		"(lambda () (define y 1) y)",
		"((lambda ((f : (number * number -> boolean))) f) <)",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			parsed, err := ParseExpression(src)
			require.NoError(t, err)
			assert.Equal(t, src, parsed.String())
		})
	}
}

func TestParseAtoms(t *testing.T) {
	parsed, err := ParseExpression("(f -2.5 + inf)")
	require.NoError(t, err)
	app := parsed.(*ast.AppExp)
	assert.IsType(t, &ast.VarRef{}, app.Rator)
	assert.Equal(t, -2.5, app.Rands[0].(*ast.NumExp).Val)
	assert.Equal(t, "+", app.Rands[1].(*ast.PrimOp).Op)
	assert.Equal(t, "inf", app.Rands[2].(*ast.VarRef).Var)
}

func TestParseQuoteValue(t *testing.T) {
	parsed, err := ParseExpression("'(1 b (\"c\"))")
	require.NoError(t, err)
	lit := parsed.(*ast.LitExp)
	want := &value.Compound{Items: []value.Value{
		value.Number(1),
		value.MakeSymbol("b"),
		&value.Compound{Items: []value.Value{value.String("c")}},
	}}
	if diff := cmp.Diff(want, lit.Val); diff != "" {
		t.Errorf("literal mismatch (-want +got):\n%s", diff)
	}
}

func TestParseProgram(t *testing.T) {
	t.Run("bare forms", func(t *testing.T) {
		parsed, err := ParseExpression("(define x 1) (+ x x)")
		require.NoError(t, err)
		prog, ok := parsed.(*ast.Program)
		require.True(t, ok)
		assert.Len(t, prog.Exps, 2)
		assert.IsType(t, &ast.DefineExp{}, prog.Exps[0])
	})

	t.Run("wrapper", func(t *testing.T) {
		for _, tag := range []string{"L3", "L4", "L5"} {
			prog, err := ParseProgram("(" + tag + " (define x 1) x)")
			require.NoError(t, err)
			assert.Equal(t, "(L5 (define x 1) x)", prog.String())
		}
	})

	t.Run("single expression", func(t *testing.T) {
		prog, err := ParseProgram("(+ 1 2)")
		require.NoError(t, err)
		assert.Len(t, prog.Exps, 1)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ParseProgram("(L5)")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Empty program")
	})

	t.Run("nested", func(t *testing.T) {
		_, err := ParseProgram("(L5 (L5 1))")
		require.Error(t, err)
	})
}

func TestParseVarDecls(t *testing.T) {
	parsed, err := ParseExpression("(lambda ((x : number) y) : boolean #t)")
	require.NoError(t, err)
	proc := parsed.(*ast.ProcExp)
	assert.Equal(t, "number", proc.Args[0].TExp.String())
	tv, ok := proc.Args[1].TExp.(*texp.TVar)
	require.True(t, ok)
	assert.True(t, tv.Generated())
	assert.Equal(t, "boolean", proc.ReturnTE.String())

	_, err = ParseExpression("(lambda ((x : T_1)) : T_1 x)")
	require.Error(t, err)
	assert.True(t, schemeerr.Is(err, schemeerr.TypeShape))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		errType schemeerr.ErrorType
	}{
		{"unbalanced", "(+ 1 2", schemeerr.TypeSyntax},
		{"stray close", ")", schemeerr.TypeSyntax},
		{"empty input", "   ; nothing", schemeerr.TypeParse},
		{"empty form", "()", schemeerr.TypeShape},
		{"bad if", "(if 1 2)", schemeerr.TypeShape},
		{"bad lambda", "(lambda x x)", schemeerr.TypeShape},
		{"lambda without body", "(lambda (x))", schemeerr.TypeShape},
		{"bad define", "(define x)", schemeerr.TypeShape},
		{"define operand", "(f (define x 1))", schemeerr.TypeShape},
		{"bad set", "(set! 1 2)", schemeerr.TypeShape},
		{"bad binding", "(let (x) x)", schemeerr.TypeShape},
		{"bad decl", "(lambda ((x number)) x)", schemeerr.TypeShape},
		{"bad quote", "(quote a b)", schemeerr.TypeShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExpression(tt.src)
			require.Error(t, err)
			assert.Equal(t, tt.errType, schemeerr.TypeOf(err))
		})
	}
}

func TestParseTypeExpression(t *testing.T) {
	tests := []struct {
		src      string
		expected string
	}{
		{"number", "number"},
		{"T1", "T1"},
		{"(number * number -> boolean)", "(number * number -> boolean)"},
		{"(Empty -> void)", "(Empty -> void)"},
		{"((T1 -> T2) * T1 -> T2)", "((T1 -> T2) * T1 -> T2)"},
		{"(string -> (number -> number))", "(string -> (number -> number))"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			te, err := ParseTypeExpression(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, te.String())
		})
	}

	for _, bad := range []string{"(number number -> boolean)", "(-> number)", "(number *)", "(number -> )", "Empty", `"number"`, "number boolean", "T_1", "(T_3 -> number)"} {
		t.Run("bad "+bad, func(t *testing.T) {
			_, err := ParseTypeExpression(bad)
			assert.Error(t, err)
		})
	}
}
