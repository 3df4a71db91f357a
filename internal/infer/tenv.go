package infer

import (
	"martianoff/lscheme/internal/texp"
	"martianoff/lscheme/schemeerr"
)

// TEnv maps variable names to their types. The zero value of *TEnv (nil) is the empty environment.
type TEnv struct {
	names []string
	tes   []texp.TExp
	outer *TEnv
}

func EmptyTEnv() *TEnv {
	return nil
}

// ExtendTEnv returns a new frame in front of outer.
func ExtendTEnv(outer *TEnv, names []string, tes []texp.TExp) *TEnv {
	return &TEnv{names: names, tes: tes, outer: outer}
}

// ApplyTEnv looks name up, innermost frame first.
func ApplyTEnv(env *TEnv, name string) (texp.TExp, error) {
	for e := env; e != nil; e = e.outer {
		for i, n := range e.names {
			if n == name {
				return e.tes[i], nil
			}
		}
	}
	return nil, schemeerr.NewTypeError("type of variable %s is not known", name)
}
