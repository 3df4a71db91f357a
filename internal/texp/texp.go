// Package texp defines type expressions: atomic types, type variables and
// procedure types.
package texp

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/go-set/v2"
	"github.com/samber/lo"
)

// TExp is a type expression.
type TExp interface {
	fmt.Stringer
	isTExp()
}

// AtomicTExp is one of number, boolean, string or void.
type AtomicTExp struct {
	Name string
}

func (*AtomicTExp) isTExp() {}

func (t *AtomicTExp) String() string {
	return t.Name
}

// TVar is a type variable. Two type variables are the same variable iff their names match.
type TVar struct {
	Name string
	// generated marks variables allocated for missing annotations, which unparse omits.
	generated bool
}

func (*TVar) isTExp() {}

func (t *TVar) String() string {
	return t.Name
}

// Generated reports whether t was allocated by a Gen rather than written in source.
func (t *TVar) Generated() bool {
	return t.generated
}

// ProcTExp is the type of a procedure. No parameters unparse as Empty.
type ProcTExp struct {
	Params []TExp
	Return TExp
}

func (*ProcTExp) isTExp() {}

func (t *ProcTExp) String() string {
	params := "Empty"
	if len(t.Params) > 0 {
		params = strings.Join(lo.Map(t.Params, func(p TExp, _ int) string { return p.String() }), " * ")
	}
	return fmt.Sprintf("(%s -> %s)", params, t.Return)
}

const (
	NumberName  = "number"
	BooleanName = "boolean"
	StringName  = "string"
	VoidName    = "void"
)

func MakeNumTExp() *AtomicTExp  { return &AtomicTExp{Name: NumberName} }
func MakeBoolTExp() *AtomicTExp { return &AtomicTExp{Name: BooleanName} }
func MakeStrTExp() *AtomicTExp  { return &AtomicTExp{Name: StringName} }
func MakeVoidTExp() *AtomicTExp { return &AtomicTExp{Name: VoidName} }

func MakeTVar(name string) *TVar { return &TVar{Name: name} }

func MakeProcTExp(params []TExp, ret TExp) *ProcTExp {
	return &ProcTExp{Params: params, Return: ret}
}

// IsAtomicName reports whether name denotes an atomic type.
func IsAtomicName(name string) bool {
	switch name {
	case NumberName, BooleanName, StringName, VoidName:
		return true
	}
	return false
}

// FreshPrefix starts the name of every generated type variable. Annotations
// cannot use it.
const FreshPrefix = "T_"

// Gen allocates fresh type variables T_1, T_2, ...
type Gen struct {
	mu   sync.Mutex
	next int
}

func (g *Gen) Fresh() *TVar {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return &TVar{Name: fmt.Sprintf("%s%d", FreshPrefix, g.next), generated: true}
}

var defaultGen Gen

// MakeFreshTVar allocates a type variable from the process-wide generator.
func MakeFreshTVar() *TVar {
	return defaultGen.Fresh()
}

func IsTVar(t TExp) bool {
	_, ok := t.(*TVar)
	return ok
}

func IsAtomic(t TExp) bool {
	_, ok := t.(*AtomicTExp)
	return ok
}

func IsProc(t TExp) bool {
	_, ok := t.(*ProcTExp)
	return ok
}

// EqAtomic reports whether two atomic types name the same type.
func EqAtomic(a, b *AtomicTExp) bool {
	return a.Name == b.Name
}

// Equal is structural equality.
func Equal(a, b TExp) bool {
	switch x := a.(type) {
	case *AtomicTExp:
		y, ok := b.(*AtomicTExp)
		return ok && x.Name == y.Name
	case *TVar:
		y, ok := b.(*TVar)
		return ok && x.Name == y.Name
	case *ProcTExp:
		y, ok := b.(*ProcTExp)
		if !ok || len(x.Params) != len(y.Params) {
			return false
		}
		for i := range x.Params {
			if !Equal(x.Params[i], y.Params[i]) {
				return false
			}
		}
		return Equal(x.Return, y.Return)
	}
	return false
}

// FreeVars returns the names of the type variables occurring in t.
func FreeVars(t TExp) *set.Set[string] {
	res := set.New[string](0)
	var walk func(TExp)
	walk = func(t TExp) {
		switch x := t.(type) {
		case *TVar:
			res.Insert(x.Name)
		case *ProcTExp:
			for _, p := range x.Params {
				walk(p)
			}
			walk(x.Return)
		}
	}
	walk(t)
	return res
}

// Occurs reports whether the variable v appears inside t.
func Occurs(v *TVar, t TExp) bool {
	return FreeVars(t).Contains(v.Name)
}

// Equivalent reports whether a and b are equal up to a consistent renaming of type variables.
func Equivalent(a, b TExp) bool {
	fwd := map[string]string{}
	bwd := map[string]string{}
	var eq func(a, b TExp) bool
	eq = func(a, b TExp) bool {
		switch x := a.(type) {
		case *AtomicTExp:
			y, ok := b.(*AtomicTExp)
			return ok && x.Name == y.Name
		case *TVar:
			y, ok := b.(*TVar)
			if !ok {
				return false
			}
			if m, seen := fwd[x.Name]; seen {
				return m == y.Name
			}
			if m, seen := bwd[y.Name]; seen {
				return m == x.Name
			}
			fwd[x.Name] = y.Name
			bwd[y.Name] = x.Name
			return true
		case *ProcTExp:
			y, ok := b.(*ProcTExp)
			if !ok || len(x.Params) != len(y.Params) {
				return false
			}
			for i := range x.Params {
				if !eq(x.Params[i], y.Params[i]) {
					return false
				}
			}
			return eq(x.Return, y.Return)
		}
		return false
	}
	return eq(a, b)
}
