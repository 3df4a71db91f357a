package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"martianoff/lscheme/internal/interp"
	"martianoff/lscheme/internal/value"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive session",
	Long: `Repl reads forms line by line and evaluates each one on its own; an error in
one form does not stop the session. A form may span several lines.

Commands:
  :quit         Leave the session
  :env          List the defined names
  :type EXPR    Infer the type of EXPR
  :reset        Forget every definition

When standard input is not a terminal, the whole input is evaluated form by
form without prompts.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		in, err := newInterpreter()
		exitOnError(err)
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			src, err := io.ReadAll(os.Stdin)
			exitOnError(err)
			evalForms(in, string(src), cmd.OutOrStdout(), cmd.ErrOrStderr())
			return
		}
		exitOnError(repl(in, cmd.OutOrStdout(), cmd.ErrOrStderr()))
	},
}

func repl(in *interp.Interpreter, out, errOut io.Writer) error {
	if err := in.Config().EnsureDirs(); err != nil {
		logger.Sugar().Debugw("cannot create home directory", "error", err)
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      in.Config().Prompt,
		HistoryFile: in.Config().HistoryFile,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	var pending strings.Builder
	for {
		if pending.Len() == 0 {
			rl.SetPrompt(in.Config().Prompt)
		} else {
			rl.SetPrompt("... ")
		}
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			pending.Reset()
			continue
		}
		if err != nil {
			fmt.Fprintln(out)
			return nil
		}

		if pending.Len() == 0 && strings.HasPrefix(strings.TrimSpace(line), ":") {
			if quit := replCommand(in, strings.TrimSpace(line), out, errOut); quit {
				return nil
			}
			continue
		}

		pending.WriteString(line)
		pending.WriteString("\n")
		if !balanced(pending.String()) {
			continue
		}
		evalForms(in, pending.String(), out, errOut)
		pending.Reset()
	}
}

// replCommand runs a colon command and reports whether the session should end.
func replCommand(in *interp.Interpreter, line string, out, errOut io.Writer) bool {
	name, arg, _ := strings.Cut(line, " ")
	switch name {
	case ":quit", ":q":
		return true
	case ":env":
		for _, n := range in.Names() {
			fmt.Fprintln(out, n)
		}
	case ":reset":
		in.Reset()
	case ":type":
		te, err := in.InferType(arg)
		if err != nil {
			fmt.Fprintln(errOut, "Error:", err)
			return false
		}
		fmt.Fprintln(out, te)
	default:
		fmt.Fprintf(errOut, "Error: unknown command %s\n", name)
	}
	return false
}

// evalForms evaluates each form of src independently and prints its value or error.
func evalForms(in *interp.Interpreter, src string, out, errOut io.Writer) {
	if strings.TrimSpace(src) == "" {
		return
	}
	results, err := in.EvaluateEach(src)
	if err != nil {
		fmt.Fprintln(errOut, "Error:", err)
		return
	}
	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Fprintln(errOut, "Error:", r.Err)
		case !value.IsVoid(r.Value):
			fmt.Fprintln(out, r.Value)
		}
	}
}

// balanced reports whether src has no unclosed parenthesis outside strings
// and comments.
func balanced(src string) bool {
	depth := 0
	inString, escaped, inComment := false, false, false
	for _, r := range src {
		switch {
		case inComment:
			inComment = r != '\n'
		case inString:
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
		case r == ';':
			inComment = true
		case r == '"':
			inString = true
		case r == '(':
			depth++
		case r == ')':
			depth--
		}
	}
	return depth <= 0 && !inString
}
