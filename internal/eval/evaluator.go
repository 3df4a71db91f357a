// Package eval implements the frame-based evaluator and the earlier
// renaming-substitution evaluator.
package eval

import (
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"martianoff/lscheme/internal/ast"
	"martianoff/lscheme/internal/env"
	"martianoff/lscheme/internal/value"
	"martianoff/lscheme/schemeerr"
)

// Closure is a procedure value: parameters, body and the environment it was created in.
type Closure struct {
	value.Proc
	Params []string
	Body   []ast.Exp
	Env    env.Env
}

func (c *Closure) String() string {
	body := strings.Join(lo.Map(c.Body, func(e ast.Exp, _ int) string { return e.String() }), " ")
	return fmt.Sprintf("<Closure (%s) %s>", strings.Join(c.Params, " "), body)
}

// Option configures an Evaluator.
type Option func(*options)

type options struct {
	logger   *zap.Logger
	out      io.Writer
	maxDepth int
}

// WithLogger sets the logger used for debug tracing.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithOutput sets where display and newline write.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithMaxDepth bounds nested procedure applications. Zero means unbounded.
func WithMaxDepth(n int) Option {
	return func(o *options) { o.maxDepth = n }
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop(), out: io.Discard}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Evaluator evaluates expressions against one global environment.
type Evaluator struct {
	global *env.GlobalEnv
	opts   options
	depth  int
}

func New(global *env.GlobalEnv, opts ...Option) *Evaluator {
	return &Evaluator{global: global, opts: buildOptions(opts)}
}

func (ev *Evaluator) Global() *env.GlobalEnv {
	return ev.global
}

// Names lists the globally defined names, most recent first.
func (ev *Evaluator) Names() []string {
	return ev.global.Names()
}

// EvaluateProgram evaluates the program's forms as one sequence in the global environment.
func (ev *Evaluator) EvaluateProgram(p *ast.Program) (value.Value, error) {
	ev.depth = 0
	return ev.evalSequence(p.Exps, ev.global)
}

// EvaluateTopLevel evaluates a single form in the global environment.
func (ev *Evaluator) EvaluateTopLevel(exp ast.Exp) (value.Value, error) {
	ev.depth = 0
	return ev.evalSequence([]ast.Exp{exp}, ev.global)
}

// Eval evaluates exp in e.
func (ev *Evaluator) Eval(exp ast.CExp, e env.Env) (value.Value, error) {
	switch exp := exp.(type) {
	case *ast.NumExp:
		return value.Number(exp.Val), nil
	case *ast.BoolExp:
		return value.Bool(exp.Val), nil
	case *ast.StrExp:
		return value.String(exp.Val), nil
	case *ast.PrimOp:
		return &value.PrimOp{Op: exp.Op}, nil
	case *ast.VarRef:
		return env.Lookup(e, exp.Var)
	case *ast.LitExp:
		return exp.Val, nil
	case *ast.IfExp:
		return ev.evalIf(exp, e)
	case *ast.ProcExp:
		return ev.evalProc(exp, e), nil
	case *ast.AppExp:
		return ev.evalApp(exp, e)
	case *ast.LetExp:
		return ev.evalLet(exp, e)
	case *ast.LetrecExp:
		return ev.evalLetrec(exp, e)
	case *ast.SetExp:
		return ev.evalSet(exp, e)
	}
	return nil, schemeerr.NewShapeError("bad expression %v", exp)
}

func (ev *Evaluator) evalIf(exp *ast.IfExp, e env.Env) (value.Value, error) {
	test, err := ev.Eval(exp.Test, e)
	if err != nil {
		return nil, err
	}
	if value.IsTrue(test) {
		return ev.Eval(exp.Then, e)
	}
	return ev.Eval(exp.Alt, e)
}

func (ev *Evaluator) evalProc(exp *ast.ProcExp, e env.Env) *Closure {
	return &Closure{
		Params: lo.Map(exp.Args, func(d *ast.VarDecl, _ int) string { return d.Var }),
		Body:   exp.Body,
		Env:    e,
	}
}

func (ev *Evaluator) evalApp(exp *ast.AppExp, e env.Env) (value.Value, error) {
	rator, err := ev.Eval(exp.Rator, e)
	if err != nil {
		return nil, err
	}
	args, err := ev.evalAll(exp.Rands, e)
	if err != nil {
		return nil, err
	}
	return ev.Apply(rator, args)
}

// evalAll evaluates every expression, even after a failure, and reports all failures together.
func (ev *Evaluator) evalAll(exps []ast.CExp, e env.Env) ([]value.Value, error) {
	vals := make([]value.Value, len(exps))
	var errs []error
	for i, x := range exps {
		v, err := ev.Eval(x, e)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		vals[i] = v
	}
	if err := schemeerr.Combine(errs); err != nil {
		return nil, err
	}
	return vals, nil
}

// Apply applies a procedure value to evaluated arguments.
func (ev *Evaluator) Apply(proc value.Value, args []value.Value) (value.Value, error) {
	switch p := proc.(type) {
	case *value.PrimOp:
		return ev.applyPrimitive(p.Op, args)
	case *Closure:
		return ev.applyClosure(p, args)
	}
	return nil, schemeerr.NewBadProcedure("Bad procedure %s", proc)
}

func (ev *Evaluator) applyClosure(c *Closure, args []value.Value) (value.Value, error) {
	if len(args) != len(c.Params) {
		return nil, schemeerr.NewShapeError("%s expects %d arguments, got %d", c, len(c.Params), len(args))
	}
	if ev.opts.maxDepth > 0 && ev.depth >= ev.opts.maxDepth {
		return nil, schemeerr.NewRecursionLimit(ev.opts.maxDepth)
	}
	ev.depth++
	defer func() { ev.depth-- }()
	if ce := ev.opts.logger.Check(zap.DebugLevel, "apply closure"); ce != nil {
		ce.Write(zap.Strings("params", c.Params), zap.Int("depth", ev.depth))
	}
	return ev.evalSequence(c.Body, env.Extend(c.Env, c.Params, args))
}

// evalSequence evaluates a body. A define evaluates its value in the global
// environment, extends it, and the rest of the body continues there.
func (ev *Evaluator) evalSequence(exps []ast.Exp, e env.Env) (value.Value, error) {
	if len(exps) == 0 {
		return nil, schemeerr.NewShapeError("Empty program")
	}
	var (
		res value.Value
		err error
	)
	for _, exp := range exps {
		switch exp := exp.(type) {
		case *ast.DefineExp:
			if err = ev.evalDefine(exp); err != nil {
				return nil, err
			}
			res, e = value.MakeVoid(), ev.global
		case ast.CExp:
			if res, err = ev.Eval(exp, e); err != nil {
				return nil, err
			}
		default:
			return nil, schemeerr.NewShapeError("bad expression %v", exp)
		}
	}
	return res, nil
}

func (ev *Evaluator) evalDefine(def *ast.DefineExp) error {
	rhs, err := ev.Eval(def.Val, ev.global)
	if err != nil {
		return err
	}
	ev.opts.logger.Debug("define", zap.String("name", def.Var.Var), zap.Stringer("value", rhs))
	ev.global.Define(def.Var.Var, rhs)
	return nil
}

func (ev *Evaluator) evalLet(exp *ast.LetExp, e env.Env) (value.Value, error) {
	vals, err := ev.evalAll(bindingVals(exp.Bindings), e)
	if err != nil {
		return nil, err
	}
	return ev.evalSequence(exp.Body, env.Extend(e, bindingNames(exp.Bindings), vals))
}

// evalLetrec binds every name to a placeholder first so the right-hand sides
// capture an environment where all siblings exist.
func (ev *Evaluator) evalLetrec(exp *ast.LetrecExp, e env.Env) (value.Value, error) {
	names := bindingNames(exp.Bindings)
	placeholders := lo.Map(names, func(string, int) value.Value { return value.MakeUndefined() })
	ext := env.Extend(e, names, placeholders)
	vals, err := ev.evalAll(bindingVals(exp.Bindings), ext)
	if err != nil {
		return nil, err
	}
	for i, name := range names {
		b, err := env.LookupBinding(ext, name)
		if err != nil {
			return nil, err
		}
		b.Set(vals[i])
	}
	return ev.evalSequence(exp.Body, ext)
}

func (ev *Evaluator) evalSet(exp *ast.SetExp, e env.Env) (value.Value, error) {
	v, err := ev.Eval(exp.Val, e)
	if err != nil {
		return nil, err
	}
	b, err := env.LookupBinding(e, exp.Var.Var)
	if err != nil {
		return nil, err
	}
	ev.opts.logger.Debug("set!", zap.String("name", exp.Var.Var), zap.Stringer("value", v))
	b.Set(v)
	return value.MakeVoid(), nil
}

func bindingNames(bindings []*ast.Binding) []string {
	return lo.Map(bindings, func(b *ast.Binding, _ int) string { return b.Var.Var })
}

func bindingVals(bindings []*ast.Binding) []ast.CExp {
	return lo.Map(bindings, func(b *ast.Binding, _ int) ast.CExp { return b.Val })
}
