package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"martianoff/lscheme/internal/config"
)

var (
	inferFile   string
	inferEngine string
	checkFile   string
)

var inferCmd = &cobra.Command{
	Use:   "infer [EXPR]",
	Short: "Infer the type of an expression",
	Long: `Infer prints the type of an expression or program. Missing annotations are
inferred; type variables in the result are unconstrained. With the default
equations engine an expression that cannot be typed reports an unconstrained
variable; the unify engine reports the error instead.

Examples:
  lscheme infer '(lambda (f) (f 2))'
  lscheme infer --engine unify '(lambda (x) (+ x 1))'
  lscheme infer -f program.scm`,
	Run: func(cmd *cobra.Command, args []string) {
		src, err := sourceArg(inferFile, args)
		exitOnError(err)
		if cmd.Flags().Changed("engine") {
			cfg.Engine = inferEngine
			exitOnError(cfg.Validate())
		}
		in, err := newInterpreter()
		exitOnError(err)
		te, err := in.InferType(src)
		exitOnError(err)
		fmt.Fprintln(cmd.OutOrStdout(), te)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check [EXPR]",
	Short: "Type check a fully annotated expression",
	Example: `  lscheme check '(lambda ((x : number)) : number (* x x))'`,
	Run: func(cmd *cobra.Command, args []string) {
		src, err := sourceArg(checkFile, args)
		exitOnError(err)
		in, err := newInterpreter()
		exitOnError(err)
		te, err := in.Check(src)
		exitOnError(err)
		fmt.Fprintln(cmd.OutOrStdout(), te)
	},
}

func init() {
	inferCmd.Flags().StringVarP(&inferFile, "file", "f", "", "Read the program from a file")
	inferCmd.Flags().StringVar(&inferEngine, "engine", config.EngineEquations, "Inference engine: equations or unify")
	checkCmd.Flags().StringVarP(&checkFile, "file", "f", "", "Read the program from a file")
}
