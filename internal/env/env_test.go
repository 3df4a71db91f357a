package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"martianoff/lscheme/internal/value"
	"martianoff/lscheme/schemeerr"
)

func TestLookupChain(t *testing.T) {
	g := NewGlobal()
	g.Define("x", value.Number(1))
	g.Define("y", value.Number(2))
	inner := Extend(Extend(g, []string{"x"}, []value.Value{value.Number(10)}), []string{"z"}, []value.Value{value.Number(3)})

	tests := []struct {
		name     string
		expected value.Value
	}{
		{"x", value.Number(10)},
		{"y", value.Number(2)},
		{"z", value.Number(3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Lookup(inner, tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}

	_, err := Lookup(inner, "w")
	require.Error(t, err)
	assert.Equal(t, schemeerr.TypeUnboundVariable, schemeerr.TypeOf(err))
	assert.Contains(t, err.Error(), "var not found: w")
}

func TestExtendDuplicateNamesFirstWins(t *testing.T) {
	e := Extend(NewGlobal(), []string{"a", "a"}, []value.Value{value.Number(1), value.Number(2)})
	v, err := Lookup(e, "a")
	require.NoError(t, err)
	assert.Equal(t, value.Number(1), v)
}

func TestDefineShadowsWithNewBox(t *testing.T) {
	g := NewGlobal()
	g.Define("x", value.Number(1))
	old, err := LookupBinding(g, "x")
	require.NoError(t, err)

	g.Define("x", value.Number(2))
	cur, err := LookupBinding(g, "x")
	require.NoError(t, err)

	assert.NotSame(t, old, cur)
	v, _ := old.Get()
	assert.Equal(t, value.Number(1), v)
	v, _ = cur.Get()
	assert.Equal(t, value.Number(2), v)
	assert.Equal(t, []string{"x"}, g.Names())
}

func TestSetIsSharedThroughBox(t *testing.T) {
	g := NewGlobal()
	shared := Extend(g, []string{"n"}, []value.Value{value.Number(0)})
	a := Extend(shared, []string{"p"}, []value.Value{value.Number(1)})
	b := Extend(shared, []string{"q"}, []value.Value{value.Number(2)})

	box, err := LookupBinding(a, "n")
	require.NoError(t, err)
	box.Set(value.Number(5))

	v, err := Lookup(b, "n")
	require.NoError(t, err)
	assert.Equal(t, value.Number(5), v)
}

func TestUninitializedBinding(t *testing.T) {
	e := Extend(NewGlobal(), []string{"f"}, []value.Value{value.MakeUndefined()})
	_, err := Lookup(e, "f")
	require.Error(t, err)
	assert.Equal(t, schemeerr.TypeUninitialized, schemeerr.TypeOf(err))

	box, err := LookupBinding(e, "f")
	require.NoError(t, err)
	box.Set(value.Bool(true))
	v, err := Lookup(e, "f")
	require.NoError(t, err)
	assert.Equal(t, value.Bool(true), v)
}

func TestGlobal(t *testing.T) {
	g := NewGlobal()
	e := Extend(Extend(g, nil, nil), nil, nil)
	assert.Same(t, g, Global(e))
	assert.Same(t, g, Global(g))
}
