package evaluator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/muesli/cancelreader"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"lcl/internal/diag"
	"lcl/internal/lexer"
)

// Shell reads lines from In and evaluates each on the shared Machine.
type Shell struct {
	Machine *Machine
	In      io.Reader
	Out     io.Writer
	Err     *termenv.Output
	Prompt  string
	Banner  string
	Logger  zerolog.Logger

	// Interactive shows the banner and prompt. NewShell sets it when In is
	// a terminal.
	Interactive bool
}

func NewShell(m *Machine, in io.Reader, out io.Writer, errOut *termenv.Output) *Shell {
	return &Shell{
		Machine:     m,
		In:          in,
		Out:         out,
		Err:         errOut,
		Logger:      zerolog.Nop(),
		Interactive: IsTerminal(in),
	}
}

// IsTerminal reports whether r is a file attached to a terminal.
func IsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Run evaluates lines until the input ends or ctx is cancelled. Errors on a
// line are reported and do not stop the shell.
func (s *Shell) Run(ctx context.Context) error {
	cr, err := cancelreader.NewReader(s.In)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer cr.Close()

	stop := context.AfterFunc(ctx, func() { cr.Cancel() })
	defer stop()

	if s.Interactive && s.Banner != "" {
		fmt.Fprintln(s.Out, s.Banner)
	}

	scanner := bufio.NewScanner(cr)
	line := 0
	for {
		if s.Interactive {
			fmt.Fprint(s.Out, s.Prompt)
		}
		if !scanner.Scan() {
			break
		}
		line++
		s.evalLine(line, scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, cancelreader.ErrCanceled) {
			s.Logger.Debug().Msg("shell input cancelled")
			return nil
		}
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

func (s *Shell) evalLine(n int, src string) {
	tokens, err := lexer.Tokenize(src, "<stdin>")
	if err == nil {
		err = s.Machine.Eval(tokens)
	}
	if err != nil {
		s.Logger.Debug().Int("line", n).Err(err).Msg("line failed")
		diag.Render(s.Err, src, err)
		return
	}
	fmt.Fprintln(s.Out, "ok")
}
