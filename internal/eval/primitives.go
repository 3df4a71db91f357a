package eval

import (
	"fmt"
	"io"

	"github.com/samber/lo"

	"martianoff/lscheme/internal/value"
	"martianoff/lscheme/schemeerr"
)

type primitive func(out io.Writer, args []value.Value) (value.Value, error)

var primitives map[string]primitive

func init() {
	primitives = map[string]primitive{
		"+":        arith("+", 0, func(a, b float64) float64 { return a + b }),
		"*":        arith("*", 1, func(a, b float64) float64 { return a * b }),
		"-":        binaryArith("-", func(a, b float64) float64 { return a - b }),
		"/":        binaryArith("/", func(a, b float64) float64 { return a / b }),
		"<":        compare("<", func(c int) bool { return c < 0 }),
		">":        compare(">", func(c int) bool { return c > 0 }),
		"=":        equal("="),
		"not":      unary("not", func(v value.Value) (value.Value, error) { return value.Bool(!value.IsTrue(v)), nil }),
		"eq?":      binary("eq?", func(a, b value.Value) (value.Value, error) { return value.Bool(eqValues(a, b)), nil }),
		"string=?": equal("string=?"),
		"cons":     binary("cons", cons),
		"car":      unary("car", car),
		"cdr":      unary("cdr", cdr),
		"list?":    predicate("list?", value.IsList),
		"number?":  predicate("number?", isA[value.Number]),
		"boolean?": predicate("boolean?", isA[value.Bool]),
		"symbol?":  predicate("symbol?", isA[*value.Symbol]),
		"string?":  predicate("string?", isA[value.String]),
		"display":  display,
		"newline":  newline,
	}
}

func (ev *Evaluator) applyPrimitive(op string, args []value.Value) (value.Value, error) {
	prim, ok := primitives[op]
	if !ok {
		return nil, schemeerr.NewBadProcedure("Bad primitive op %s", op)
	}
	return prim(ev.opts.out, args)
}

func arith(name string, unit float64, f func(a, b float64) float64) primitive {
	return func(_ io.Writer, args []value.Value) (value.Value, error) {
		nums, err := numbers(name, args)
		if err != nil {
			return nil, err
		}
		return value.Number(lo.Reduce(nums, func(acc float64, n float64, _ int) float64 { return f(acc, n) }, unit)), nil
	}
}

func binaryArith(name string, f func(a, b float64) float64) primitive {
	return func(_ io.Writer, args []value.Value) (value.Value, error) {
		if err := arity(name, args, 2); err != nil {
			return nil, err
		}
		nums, err := numbers(name, args)
		if err != nil {
			return nil, err
		}
		return value.Number(f(nums[0], nums[1])), nil
	}
}

func numbers(name string, args []value.Value) ([]float64, error) {
	nums := make([]float64, len(args))
	for i, a := range args {
		n, ok := a.(value.Number)
		if !ok {
			return nil, schemeerr.NewTypeError("%s expects numbers only", name)
		}
		nums[i] = float64(n)
	}
	return nums, nil
}

// compare orders two numbers or two strings.
func compare(name string, test func(int) bool) primitive {
	return binary(name, func(a, b value.Value) (value.Value, error) {
		switch x := a.(type) {
		case value.Number:
			if y, ok := b.(value.Number); ok {
				return value.Bool(test(cmp3(x, y))), nil
			}
		case value.String:
			if y, ok := b.(value.String); ok {
				return value.Bool(test(cmp3(x, y))), nil
			}
		}
		return nil, schemeerr.NewTypeError("%s expects two numbers or two strings, got %s and %s", name, a, b)
	})
}

// equal is atom equality on operands of any kind. Operands of different kinds are unequal.
func equal(name string) primitive {
	return binary(name, func(a, b value.Value) (value.Value, error) {
		return value.Bool(eqValues(a, b)), nil
	})
}

func cmp3[T value.Number | value.String](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func unary(name string, f func(value.Value) (value.Value, error)) primitive {
	return func(_ io.Writer, args []value.Value) (value.Value, error) {
		if err := arity(name, args, 1); err != nil {
			return nil, err
		}
		return f(args[0])
	}
}

func binary(name string, f func(a, b value.Value) (value.Value, error)) primitive {
	return func(_ io.Writer, args []value.Value) (value.Value, error) {
		if err := arity(name, args, 2); err != nil {
			return nil, err
		}
		return f(args[0], args[1])
	}
}

func predicate(name string, test func(value.Value) bool) primitive {
	return unary(name, func(v value.Value) (value.Value, error) { return value.Bool(test(v)), nil })
}

func isA[T value.Value](v value.Value) bool {
	_, ok := v.(T)
	return ok
}

func arity(name string, args []value.Value, n int) error {
	if len(args) != n {
		return schemeerr.NewShapeError("%s expects %d arguments, got %d", name, n, len(args))
	}
	return nil
}

// eqValues compares atoms only. Two compound lists are never eq?, even with equal items.
func eqValues(a, b value.Value) bool {
	switch x := a.(type) {
	case *value.Symbol:
		y, ok := b.(*value.Symbol)
		return ok && x.Name == y.Name
	case *value.Empty:
		_, ok := b.(*value.Empty)
		return ok
	case value.Number:
		y, ok := b.(value.Number)
		return ok && x == y
	case value.String:
		y, ok := b.(value.String)
		return ok && x == y
	case value.Bool:
		y, ok := b.(value.Bool)
		return ok && x == y
	}
	return false
}

func cons(v, lst value.Value) (value.Value, error) {
	switch l := lst.(type) {
	case *value.Empty:
		return &value.Compound{Items: []value.Value{v}}, nil
	case *value.Compound:
		return &value.Compound{Items: append([]value.Value{v}, l.Items...)}, nil
	}
	return nil, schemeerr.NewTypeError("cons: 2nd param is not empty or compound %s", lst)
}

func car(v value.Value) (value.Value, error) {
	c, ok := v.(*value.Compound)
	if !ok {
		return nil, schemeerr.NewTypeError("car: param is not compound %s", v)
	}
	return c.Items[0], nil
}

// cdr of a singleton is the empty list.
func cdr(v value.Value) (value.Value, error) {
	c, ok := v.(*value.Compound)
	if !ok {
		return nil, schemeerr.NewTypeError("cdr: param is not compound %s", v)
	}
	return value.MakeCompound(c.Items[1:]), nil
}

func display(out io.Writer, args []value.Value) (value.Value, error) {
	if err := arity("display", args, 1); err != nil {
		return nil, err
	}
	if s, ok := args[0].(value.String); ok {
		fmt.Fprint(out, string(s))
	} else {
		fmt.Fprint(out, args[0])
	}
	return value.MakeVoid(), nil
}

func newline(out io.Writer, args []value.Value) (value.Value, error) {
	if err := arity("newline", args, 0); err != nil {
		return nil, err
	}
	fmt.Fprintln(out)
	return value.MakeVoid(), nil
}
