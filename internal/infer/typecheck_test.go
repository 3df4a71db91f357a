package infer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"martianoff/lscheme/internal/parser"
	"martianoff/lscheme/internal/texp"
)

func TestCheckTypeOf(t *testing.T) {
	tests := []struct {
		src      string
		expected string
	}{
		{"5", "number"},
		{"#t", "boolean"},
		{`"hello"`, "string"},
		{"+", "(number * number -> number)"},
		{"not", "(boolean -> boolean)"},
		{">", "(number * number -> boolean)"},
		{"(if (> 1 2) 1 2)", "number"},
		{"(if (= 1 2) #t #f)", "boolean"},
		{"(lambda ((x : number)) : number x)", "(number -> number)"},
		{"(lambda ((x : number)) : boolean (> x 1))", "(number -> boolean)"},
		{"(lambda((x : number)) : (number -> number) (lambda((y : number)) : number (* y x)))", "(number -> (number -> number))"},
		{"(lambda((f : (number -> number))) : number (f 2))", "((number -> number) -> number)"},
		{"(lambda((x : number)) : number (let (((y : number) x)) (+ x y)))", "(number -> number)"},
		{"(let (((x : number) 1)) (* x 2))", "number"},
		{"(let (((x : number) 1) ((y : number) 2)) (lambda((a : number)) : number (+ (* x a) y)))", "(number -> number)"},
		{"(letrec (((p1 : (number -> number)) (lambda((x : number)) : number (* x x)))) p1)", "(number -> number)"},
		{"(letrec (((p1 : (number -> number)) (lambda((x : number)) : number (* x x)))) (p1 2))", "number"},
		{
			`(letrec (((odd? : (number -> boolean)) (lambda((n : number)) : boolean (if (= n 0) #f (even? (- n 1)))))
			          ((even? : (number -> boolean)) (lambda((n : number)) : boolean (if (= n 0) #t (odd? (- n 1))))))
			   (odd? 12))`,
			"boolean",
		},
		{"(define (foo : number) 5)", "void"},
		{"(define (foo : (number * number -> number)) (lambda((x : number) (y : number)) : number (+ x y)))", "void"},
		{"(define (x : (Empty -> number)) (lambda () : number 1))", "void"},
		{"(lambda((x : T1)) : T1 x)", "(T1 -> T1)"},
		{"(let (((x : number) 1)) (lambda((y : T) (z : T)) : T (if (> x 2) y z)))", "(T * T -> T)"},
		{"(lambda () : number 1)", "(Empty -> number)"},
		{"(define (x : (T1 -> (T1 -> number))) (lambda ((x : T1)) : (T1 -> number) (lambda((y : T1)) : number 5)))", "void"},
		{"(lambda ((x : number)) : boolean (eq? x #t))", "(number -> boolean)"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := CheckTypeOf(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCheckErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing parameter annotation", "(lambda (x) : number 1)"},
		{"missing return annotation", "(lambda ((x : number)) x)"},
		{"missing let annotation", "(let ((x 1)) x)"},
		{"missing define annotation", "(define x 1)"},
		{"wrong return type", "(lambda ((x : number)) : boolean x)"},
		{"non boolean test", "(if 1 2 3)"},
		{"branch mismatch", "(if #t 1 #f)"},
		{"wrong argument type", "(+ 1 #t)"},
		{"arity", "((lambda ((x : number)) : number x) 1 2)"},
		{"non procedure", "(1 2)"},
		{"type variables are opaque", "(lambda ((x : T1)) : number x)"},
		{"free variable", "(+ y 1)"},
		{"literal", "'(1 2)"},
		{"wrong binding type", "(let (((x : boolean) 1)) x)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CheckTypeOf(tt.src)
			assert.Error(t, err)
		})
	}
}

func TestCheckVarRefInTEnv(t *testing.T) {
	tenv := ExtendTEnv(EmptyTEnv(), []string{"x"}, []texp.TExp{texp.MakeNumTExp()})
	got, err := typeofCheck(parseExp(t, "x"), tenv)
	require.NoError(t, err)
	assert.True(t, texp.Equal(texp.MakeNumTExp(), got))
}

func TestCheckProgram(t *testing.T) {
	prog, err := parser.ParseProgram(`
		(define (sq : (number -> number)) (lambda ((x : number)) : number (* x x)))
		(sq 4)`)
	require.NoError(t, err)
	got, err := CheckProgram(prog)
	require.NoError(t, err)
	assert.Equal(t, "number", got.String())

	prog, err = parser.ParseProgram(`
		(define (sq : (number -> number)) (lambda ((x : number)) : number (* x x)))
		(sq #t)`)
	require.NoError(t, err)
	_, err = CheckProgram(prog)
	assert.Error(t, err)
}
