// Package infer implements the substitution ADT and three type engines over
// the shared expression tree: equation solving, direct inference threading a
// substitution, and checking of fully annotated programs.
package infer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-set/v2"
	"github.com/samber/lo"

	"martianoff/lscheme/internal/texp"
	"martianoff/lscheme/schemeerr"
)

// Sub maps type variables to type expressions. Vars and TEs are aligned and
// Vars holds each variable name at most once.
type Sub struct {
	Vars []*texp.TVar
	TEs  []texp.TExp
}

func EmptySub() *Sub {
	return &Sub{}
}

func (s *Sub) IsEmpty() bool {
	return len(s.Vars) == 0
}

// MakeSub builds a substitution from aligned slices. A pair whose variable
// occurs in its own type expression is rejected.
func MakeSub(vars []*texp.TVar, tes []texp.TExp) (*Sub, error) {
	if len(vars) != len(tes) {
		return nil, schemeerr.NewShapeError("substitution needs as many type expressions as variables: %d vs %d", len(vars), len(tes))
	}
	seen := set.New[string](len(vars))
	for i, v := range vars {
		if !seen.Insert(v.Name) {
			return nil, schemeerr.NewUnificationError("variable %s bound twice in substitution", v)
		}
		if texp.Occurs(v, tes[i]) {
			return nil, circularity(v, tes[i])
		}
	}
	return &Sub{Vars: append([]*texp.TVar(nil), vars...), TEs: append([]texp.TExp(nil), tes...)}, nil
}

// Get returns the type expression bound to v, if any.
func (s *Sub) Get(v *texp.TVar) (texp.TExp, bool) {
	i := s.index(v.Name)
	if i < 0 {
		return nil, false
	}
	return s.TEs[i], true
}

func (s *Sub) index(name string) int {
	return lo.IndexOf(lo.Map(s.Vars, func(v *texp.TVar, _ int) string { return v.Name }), name)
}

// String renders the bindings sorted by variable, e.g. {T1:number, T2:(T1 -> boolean)}.
func (s *Sub) String() string {
	pairs := lo.Map(s.Vars, func(v *texp.TVar, i int) string { return fmt.Sprintf("%s:%s", v, s.TEs[i]) })
	sort.Strings(pairs)
	return "{" + strings.Join(pairs, ", ") + "}"
}

// ApplySub replaces each type variable of te bound in sub by its binding,
// once, without resolving the result again.
func ApplySub(sub *Sub, te texp.TExp) texp.TExp {
	if sub.IsEmpty() {
		return te
	}
	switch t := te.(type) {
	case *texp.TVar:
		if b, ok := sub.Get(t); ok {
			return b
		}
		return t
	case *texp.ProcTExp:
		return texp.MakeProcTExp(
			lo.Map(t.Params, func(p texp.TExp, _ int) texp.TExp { return ApplySub(sub, p) }),
			ApplySub(sub, t.Return),
		)
	}
	return te
}

// ExtendSub adds v -> te to sub. te is first resolved through sub, then the
// new binding is applied to every existing binding. Binding v to a type that
// contains v is a circularity error. A variable already bound in sub is
// rebound to the new type.
func ExtendSub(sub *Sub, v *texp.TVar, te texp.TExp) (*Sub, error) {
	resolved := ApplySub(sub, te)
	if texp.Occurs(v, resolved) {
		return nil, circularity(v, resolved)
	}
	single := &Sub{Vars: []*texp.TVar{v}, TEs: []texp.TExp{resolved}}
	updated := lo.Map(sub.TEs, func(t texp.TExp, _ int) texp.TExp { return ApplySub(single, t) })
	for i, t := range updated {
		if texp.Occurs(sub.Vars[i], t) {
			return nil, circularity(sub.Vars[i], t)
		}
	}
	if i := sub.index(v.Name); i >= 0 {
		updated[i] = resolved
		return &Sub{Vars: append([]*texp.TVar(nil), sub.Vars...), TEs: updated}, nil
	}
	return &Sub{
		Vars: append([]*texp.TVar{v}, sub.Vars...),
		TEs:  append([]texp.TExp{resolved}, updated...),
	}, nil
}

// CombineSub folds the bindings of sub2, in order, into sub1 with ExtendSub.
// Two valid substitutions can combine into a circular one, which is an error.
func CombineSub(sub1, sub2 *Sub) (*Sub, error) {
	res := sub1
	for i, v := range sub2.Vars {
		var err error
		if res, err = ExtendSub(res, v, sub2.TEs[i]); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func circularity(v *texp.TVar, te texp.TExp) error {
	return schemeerr.NewUnificationError("circular substitution: %s occurs in %s", v, te)
}
