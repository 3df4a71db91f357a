// Package interp ties the parser, evaluators and type engines together
// behind one configured interpreter.
package interp

import (
	"io"

	"go.uber.org/zap"

	"martianoff/lscheme/internal/ast"
	"martianoff/lscheme/internal/config"
	"martianoff/lscheme/internal/env"
	"martianoff/lscheme/internal/eval"
	"martianoff/lscheme/internal/infer"
	"martianoff/lscheme/internal/parser"
	"martianoff/lscheme/internal/texp"
	"martianoff/lscheme/internal/value"
	"martianoff/lscheme/schemeerr"
)

// evaluator is implemented by both evaluator variants.
type evaluator interface {
	EvaluateProgram(p *ast.Program) (value.Value, error)
	EvaluateTopLevel(exp ast.Exp) (value.Value, error)
	Names() []string
}

// Option configures an Interpreter.
type Option func(*Interpreter)

func WithLogger(l *zap.Logger) Option {
	return func(in *Interpreter) { in.logger = l }
}

// WithOutput sets where display and newline write.
func WithOutput(w io.Writer) Option {
	return func(in *Interpreter) { in.out = w }
}

// Interpreter owns one global environment and evaluates source against it.
type Interpreter struct {
	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
	ev     evaluator
}

// New builds an interpreter for cfg. A nil cfg means config.DefaultConfig().
func New(cfg *config.Config, opts ...Option) (*Interpreter, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	in := &Interpreter{cfg: cfg, logger: zap.NewNop(), out: io.Discard}
	for _, opt := range opts {
		opt(in)
	}
	in.Reset()
	return in, nil
}

func (in *Interpreter) Config() *config.Config {
	return in.cfg
}

// Reset discards every definition by starting over with an empty global environment.
func (in *Interpreter) Reset() {
	evalOpts := []eval.Option{
		eval.WithLogger(in.logger),
		eval.WithOutput(in.out),
		eval.WithMaxDepth(in.cfg.MaxDepth),
	}
	if in.cfg.Variant == config.VariantSubst {
		in.ev = eval.NewSubst(evalOpts...)
	} else {
		in.ev = eval.New(env.NewGlobal(), evalOpts...)
	}
	in.logger.Debug("interpreter reset", zap.String("variant", in.cfg.Variant), zap.Int("max_depth", in.cfg.MaxDepth))
}

// Names lists the names defined so far, most recent first.
func (in *Interpreter) Names() []string {
	return in.ev.Names()
}

// EvaluateProgram evaluates the forms of p in order and returns the last value.
// Evaluation stops at the first failing form.
func (in *Interpreter) EvaluateProgram(p *ast.Program) (value.Value, error) {
	return in.ev.EvaluateProgram(p)
}

// EvaluateTopLevel evaluates one form in the global environment.
func (in *Interpreter) EvaluateTopLevel(exp ast.Exp) (value.Value, error) {
	return in.ev.EvaluateTopLevel(exp)
}

// EvalString parses src as one expression or a program and evaluates it.
func (in *Interpreter) EvalString(src string) (value.Value, error) {
	parsed, err := parser.ParseExpression(src)
	if err != nil {
		return nil, err
	}
	switch p := parsed.(type) {
	case *ast.Program:
		return in.EvaluateProgram(p)
	case ast.Exp:
		return in.EvaluateTopLevel(p)
	}
	return nil, schemeerr.NewParseError("cannot evaluate %s", parsed)
}

// Result is the outcome of one top-level form.
type Result struct {
	Exp   ast.Exp
	Value value.Value
	Err   error
}

// EvaluateEach evaluates every top-level form of src on its own: a failing
// form is reported and the next one still runs. Only a parse failure of the
// whole source is returned as an error.
func (in *Interpreter) EvaluateEach(src string) ([]Result, error) {
	prog, err := parser.ParseProgram(src)
	if err != nil {
		return nil, err
	}
	results := make([]Result, len(prog.Exps))
	for i, exp := range prog.Exps {
		v, err := in.EvaluateTopLevel(exp)
		results[i] = Result{Exp: exp, Value: v, Err: err}
	}
	return results, nil
}

// InferType infers the type of src with the configured engine. The equations
// engine reports an unresolved type variable when unification fails; the
// unify engine returns the error.
func (in *Interpreter) InferType(src string) (texp.TExp, error) {
	parsed, err := parser.ParseExpression(src)
	if err != nil {
		return nil, err
	}
	in.logger.Debug("inferring type", zap.String("engine", in.cfg.Engine))
	prog, isProg := parsed.(*ast.Program)
	if in.cfg.Engine == config.EngineEquations {
		var te texp.TExp
		if isProg {
			te, err = infer.InferProgram(prog)
		} else {
			te, err = infer.Infer(parsed.(ast.Exp))
		}
		if schemeerr.Is(err, schemeerr.TypeUnification) {
			in.logger.Debug("equations unsolvable", zap.Error(err), zap.Stringer("type", te))
			return te, nil
		}
		return te, err
	}
	if isProg {
		return infer.TypeofProgram(prog, infer.EmptyTEnv())
	}
	return infer.TypeofExp(parsed.(ast.Exp), infer.EmptyTEnv())
}

// Check runs the annotated type checker on src.
func (in *Interpreter) Check(src string) (texp.TExp, error) {
	parsed, err := parser.ParseExpression(src)
	if err != nil {
		return nil, err
	}
	if prog, ok := parsed.(*ast.Program); ok {
		return infer.CheckProgram(prog)
	}
	return infer.Check(parsed.(ast.Exp))
}
