package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"martianoff/lscheme/internal/value"
)

var runCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "Evaluate a program file",
	Long: `Run evaluates the forms of a program file in order and prints the value of
the last one. Evaluation stops at the first error.

Examples:
  lscheme run fact.scm
  lscheme run --variant subst fact.scm`,
	Args: cobra.ExactArgs(1),
	Run:  runRun,
}

func runRun(cmd *cobra.Command, args []string) {
	src, err := os.ReadFile(args[0])
	exitOnError(err)
	evalAndPrint(cmd, string(src))
}

var evalCmd = &cobra.Command{
	Use:   "eval EXPR",
	Short: "Evaluate source text given on the command line",
	Example: `  lscheme eval '(+ 1 2)'
  lscheme eval '(define sq (lambda (x) (* x x))) (sq 7)'`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		src, err := sourceArg("", args)
		exitOnError(err)
		evalAndPrint(cmd, src)
	},
}

func evalAndPrint(cmd *cobra.Command, src string) {
	in, err := newInterpreter()
	exitOnError(err)
	v, err := in.EvalString(src)
	exitOnError(err)
	if !value.IsVoid(v) {
		fmt.Fprintln(cmd.OutOrStdout(), v)
	}
}
