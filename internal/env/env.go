// Package env implements environments as chains of frames of mutable bindings.
package env

import (
	"github.com/samber/lo"

	"martianoff/lscheme/internal/value"
	"martianoff/lscheme/schemeerr"
)

// Binding pairs a name with a box holding its current value.
// Every environment or closure that reaches a binding observes Set.
type Binding struct {
	Name string
	val  value.Value
}

// Get returns the bound value. A letrec binding that has not been
// initialized yet cannot be read.
func (b *Binding) Get() (value.Value, error) {
	if value.IsUndefined(b.val) {
		return nil, schemeerr.NewUninitialized(b.Name)
	}
	return b.val, nil
}

func (b *Binding) Set(v value.Value) {
	b.val = v
}

// Frame is an ordered list of bindings. Lookup returns the first binding with a given name.
type Frame struct {
	bindings []*Binding
}

func newFrame(names []string, vals []value.Value) *Frame {
	return &Frame{bindings: lo.Map(names, func(name string, i int) *Binding {
		return &Binding{Name: name, val: vals[i]}
	})}
}

func (f *Frame) lookup(name string) (*Binding, bool) {
	return lo.Find(f.bindings, func(b *Binding) bool { return b.Name == name })
}

func (f *Frame) Names() []string {
	return lo.Map(f.bindings, func(b *Binding, _ int) string { return b.Name })
}

// Env is either the global environment or an extension of another environment.
type Env interface {
	// binding searches this environment and its ancestors.
	binding(name string) (*Binding, bool)
}

// GlobalEnv holds the single mutable frame extended by define.
type GlobalEnv struct {
	frame *Frame
}

func NewGlobal() *GlobalEnv {
	return &GlobalEnv{frame: &Frame{}}
}

func (g *GlobalEnv) binding(name string) (*Binding, bool) {
	return g.frame.lookup(name)
}

// Define prepends a new binding. An existing binding with the same name is
// shadowed, not overwritten.
func (g *GlobalEnv) Define(name string, v value.Value) {
	g.frame.bindings = append([]*Binding{{Name: name, val: v}}, g.frame.bindings...)
}

// Names lists the visible global names, most recent first.
func (g *GlobalEnv) Names() []string {
	return lo.Uniq(g.frame.Names())
}

// ExtEnv is a frame in front of an enclosing environment.
type ExtEnv struct {
	frame *Frame
	outer Env
}

func (e *ExtEnv) binding(name string) (*Binding, bool) {
	if b, ok := e.frame.lookup(name); ok {
		return b, true
	}
	return e.outer.binding(name)
}

func (e *ExtEnv) Frame() *Frame {
	return e.frame
}

func (e *ExtEnv) Outer() Env {
	return e.outer
}

// Extend builds a new frame binding names to vals in front of outer. With
// duplicate names the first one listed is the visible one.
func Extend(outer Env, names []string, vals []value.Value) *ExtEnv {
	return &ExtEnv{frame: newFrame(names, vals), outer: outer}
}

// LookupBinding returns the innermost binding of name.
func LookupBinding(e Env, name string) (*Binding, error) {
	if b, ok := e.binding(name); ok {
		return b, nil
	}
	return nil, schemeerr.NewUnboundVariable(name)
}

// Lookup returns the value of the innermost binding of name.
func Lookup(e Env, name string) (value.Value, error) {
	b, err := LookupBinding(e, name)
	if err != nil {
		return nil, err
	}
	return b.Get()
}

// Global walks outward to the global environment.
func Global(e Env) *GlobalEnv {
	for {
		switch x := e.(type) {
		case *GlobalEnv:
			return x
		case *ExtEnv:
			e = x.outer
		default:
			return nil
		}
	}
}
