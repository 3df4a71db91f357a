// Package commands provides the CLI commands for the lscheme tool.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"martianoff/lscheme/internal/config"
	"martianoff/lscheme/internal/interp"
	"martianoff/lscheme/schemeerr"
)

var (
	configPath string
	verbose    bool
	variant    string
	maxDepth   int

	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "lscheme",
	Short: "Small Scheme interpreters with type inference",
	Long: `lscheme evaluates programs in a small Scheme dialect and infers or checks
their types.

Usage:
  lscheme run file.scm          Evaluate a program file
  lscheme eval '(+ 1 2)'        Evaluate source given on the command line
  lscheme infer '(lambda (x) x)' Infer a type
  lscheme check EXPR            Type check a fully annotated expression
  lscheme repl                  Start an interactive session
  lscheme version               Print version`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
		if cmd.Flags().Changed("variant") {
			cfg.Variant = variant
		}
		if cmd.Flags().Changed("max-depth") {
			cfg.MaxDepth = maxDepth
		}
		if verbose {
			if logger, err = zap.NewDevelopment(); err != nil {
				return err
			}
			zap.ReplaceGlobals(logger)
		}
		return cfg.Validate()
	},
}

// Execute runs the root command.
func Execute() {
	defer func() { _ = logger.Sync() }()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(inferCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (default $LSCHEME_HOME/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging to stderr")
	rootCmd.PersistentFlags().StringVar(&variant, "variant", config.VariantBox, "Evaluator variant: box or subst")
	rootCmd.PersistentFlags().IntVar(&maxDepth, "max-depth", 0, "Maximum nested procedure applications (0 = unlimited)")
}

// newInterpreter builds an interpreter writing program output to stdout.
func newInterpreter() (*interp.Interpreter, error) {
	return interp.New(cfg, interp.WithLogger(logger), interp.WithOutput(os.Stdout))
}

// exitOnError prints err like Execute does and exits.
func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// sourceArg returns the source text named by a -f file flag or given as the
// command arguments.
func sourceArg(file string, args []string) (string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	if len(args) == 0 {
		return "", schemeerr.NewShapeError("no source given; pass an expression or -f FILE")
	}
	src := args[0]
	for _, a := range args[1:] {
		src += " " + a
	}
	return src, nil
}
