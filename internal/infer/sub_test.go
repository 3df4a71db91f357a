package infer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"martianoff/lscheme/internal/parser"
	"martianoff/lscheme/internal/texp"
	"martianoff/lscheme/schemeerr"
)

func te(t *testing.T, src string) texp.TExp {
	t.Helper()
	res, err := parser.ParseTypeExpression(src)
	require.NoError(t, err)
	return res
}

func tvars(names ...string) []*texp.TVar {
	vars := make([]*texp.TVar, len(names))
	for i, n := range names {
		vars[i] = texp.MakeTVar(n)
	}
	return vars
}

func mkSub(t *testing.T, vars []string, tes []string) *Sub {
	t.Helper()
	parsed := make([]texp.TExp, len(tes))
	for i, s := range tes {
		parsed[i] = te(t, s)
	}
	sub, err := MakeSub(tvars(vars...), parsed)
	require.NoError(t, err)
	return sub
}

func TestMakeSub(t *testing.T) {
	sub := mkSub(t, []string{"T2", "T1"}, []string{"(T4 -> number)", "number"})
	assert.Equal(t, "{T1:number, T2:(T4 -> number)}", sub.String())
	assert.False(t, sub.IsEmpty())
	assert.True(t, EmptySub().IsEmpty())

	got, ok := sub.Get(texp.MakeTVar("T1"))
	require.True(t, ok)
	assert.Equal(t, "number", got.String())
	_, ok = sub.Get(texp.MakeTVar("T9"))
	assert.False(t, ok)
}

func TestMakeSubErrors(t *testing.T) {
	t.Run("circular", func(t *testing.T) {
		_, err := MakeSub(tvars("T1"), []texp.TExp{te(t, "(number -> T1)")})
		require.Error(t, err)
		assert.True(t, schemeerr.Is(err, schemeerr.TypeUnification))
	})
	t.Run("duplicate variable", func(t *testing.T) {
		_, err := MakeSub(tvars("T1", "T1"), []texp.TExp{texp.MakeNumTExp(), texp.MakeBoolTExp()})
		assert.Error(t, err)
	})
	t.Run("length mismatch", func(t *testing.T) {
		_, err := MakeSub(tvars("T1", "T2"), []texp.TExp{texp.MakeNumTExp()})
		assert.Error(t, err)
	})
}

func TestApplySub(t *testing.T) {
	sub := mkSub(t, []string{"T1", "T2"}, []string{"number", "boolean"})
	assert.Equal(t, "(number * boolean -> number)", ApplySub(sub, te(t, "(T1 * T2 -> T1)")).String())
	assert.Equal(t, "T3", ApplySub(sub, te(t, "T3")).String())
	assert.Equal(t, "string", ApplySub(EmptySub(), te(t, "string")).String())

	// one pass only
	chained := mkSub(t, []string{"T1", "T2"}, []string{"T2", "number"})
	assert.Equal(t, "(T2 -> number)", ApplySub(chained, te(t, "(T1 -> T2)")).String())
}

func TestCombineSub(t *testing.T) {
	tests := []struct {
		name     string
		vars1    []string
		tes1     []string
		vars2    []string
		tes2     []string
		expected string
	}{
		{
			"disjoint",
			[]string{"T1", "T2"}, []string{"(number -> S1)", "(number -> S4)"},
			[]string{"T3"}, []string{"(number -> S2)"},
			"{T1:(number -> S1), T2:(number -> S4), T3:(number -> S2)}",
		},
		{
			"later binding updates earlier range",
			[]string{"T1", "T2"}, []string{"(number -> S1)", "(number -> T5)"},
			[]string{"T3", "T4", "T5"}, []string{"(number -> S2)", "(number -> S1)", "boolean"},
			"{T1:(number -> S1), T2:(number -> boolean), T3:(number -> S2), T4:(number -> S1), T5:boolean}",
		},
		{
			"bindings resolved through earlier ones",
			[]string{"T1", "T2"}, []string{"(number -> S1)", "(T5 -> T4)"},
			[]string{"S1", "T3", "T4", "T5"}, []string{"boolean", "(number -> S2)", "boolean", "(number -> S1)"},
			"{S1:boolean, T1:(number -> boolean), T2:((number -> boolean) -> boolean), T3:(number -> S2), T4:boolean, T5:(number -> boolean)}",
		},
		{
			"nested procedure types",
			[]string{"T1", "T2", "T3"}, []string{"S1", "(S2 -> number)", "boolean"},
			[]string{"S1", "S2"}, []string{"(T5 -> (number * T2 -> T2))", "T3"},
			"{S1:(T5 -> (number * (boolean -> number) -> (boolean -> number))), S2:boolean, " +
				"T1:(T5 -> (number * (boolean -> number) -> (boolean -> number))), T2:(boolean -> number), T3:boolean}",
		},
		{
			"variable chain",
			[]string{"T1", "T2", "T3"}, []string{"number", "(T4 -> number)", "T9"},
			[]string{"T4", "T5", "T6"}, []string{"(T1 -> number)", "boolean", "T7"},
			"{T1:number, T2:((number -> number) -> number), T3:T9, T4:(number -> number), T5:boolean, T6:T7}",
		},
		{
			"overlapping variable takes later binding",
			[]string{"T7", "T8"}, []string{"number", "(T5 * number -> T3)"},
			[]string{"T5", "T8"}, []string{"T7", "boolean"},
			"{T5:number, T7:number, T8:boolean}",
		},
		{
			"same variable in both",
			[]string{"T1"}, []string{"number"},
			[]string{"T1"}, []string{"boolean"},
			"{T1:boolean}",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := CombineSub(mkSub(t, tt.vars1, tt.tes1), mkSub(t, tt.vars2, tt.tes2))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, res.String())
		})
	}
}

func TestCombineSubCircular(t *testing.T) {
	sub1 := mkSub(t, []string{"T3", "T4", "T5", "S1"}, []string{"boolean", "(number -> S1)", "boolean", "(number -> T2)"})
	sub2 := mkSub(t, []string{"T1", "T2"}, []string{"(number -> S1)", "(T3 -> S1)"})
	_, err := CombineSub(sub1, sub2)
	require.Error(t, err)
	assert.True(t, schemeerr.Is(err, schemeerr.TypeUnification))
}

func TestCombineSubAppliesInOrder(t *testing.T) {
	sub1 := mkSub(t, []string{"T1", "T3"}, []string{"number", "T9"})
	sub2 := mkSub(t, []string{"T4", "T5"}, []string{"(T1 -> number)", "boolean"})
	combined, err := CombineSub(sub1, sub2)
	require.NoError(t, err)

	for _, src := range []string{"(T1 * T4 -> T3)", "(T5 -> (T4 -> T1))", "T2"} {
		x := te(t, src)
		assert.True(t, texp.Equal(ApplySub(sub1, ApplySub(sub2, x)), ApplySub(combined, x)), src)
	}
}

func TestCombineSubOverlappingDomains(t *testing.T) {
	sub1 := mkSub(t, []string{"T1", "T2"}, []string{"number", "(T4 -> string)"})
	sub2 := mkSub(t, []string{"T1", "T3"}, []string{"boolean", "(T2 -> T5)"})
	combined, err := CombineSub(sub1, sub2)
	require.NoError(t, err)
	assert.Equal(t, "{T1:boolean, T2:(T4 -> string), T3:((T4 -> string) -> T5)}", combined.String())

	for _, src := range []string{"T1", "(T1 -> T2)", "(T3 * T1 -> T3)"} {
		x := te(t, src)
		assert.Equal(t, ApplySub(sub1, ApplySub(sub2, x)).String(), ApplySub(combined, x).String(), src)
	}
}

func TestExtendSubRebinds(t *testing.T) {
	sub := mkSub(t, []string{"T1", "T2"}, []string{"number", "(T4 -> T4)"})
	res, err := ExtendSub(sub, texp.MakeTVar("T1"), texp.MakeBoolTExp())
	require.NoError(t, err)
	assert.Equal(t, "{T1:boolean, T2:(T4 -> T4)}", res.String())
}

func TestExtendSub(t *testing.T) {
	sub := mkSub(t, []string{"T1", "T2", "T3"}, []string{"S1", "(S1 -> number)", "boolean"})
	res, err := ExtendSub(sub, texp.MakeTVar("S1"), te(t, "(T21 -> (number * T23 -> T22))"))
	require.NoError(t, err)
	assert.Equal(t,
		"{S1:(T21 -> (number * T23 -> T22)), T1:(T21 -> (number * T23 -> T22)), "+
			"T2:((T21 -> (number * T23 -> T22)) -> number), T3:boolean}",
		res.String())
	// sub itself is unchanged
	assert.Equal(t, "{T1:S1, T2:(S1 -> number), T3:boolean}", sub.String())

	_, err = ExtendSub(sub, texp.MakeTVar("S1"), te(t, "(T1 -> number)"))
	assert.Error(t, err, "S1 would occur in its own binding through T1")
}
