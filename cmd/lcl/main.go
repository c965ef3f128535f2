package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"lcl/internal/codegen"
	"lcl/internal/config"
	"lcl/internal/diag"
	"lcl/internal/evaluator"
	"lcl/internal/lexer"
)

const version = "0.1.0"

var (
	compileFn = func(ctx context.Context, tc codegen.Toolchain, assembly, out string) error {
		return tc.Build(ctx, assembly, out)
	}
	execCmdFn = exec.Command
	exitFn    = os.Exit
)

func main() {
	exitFn(runCLI(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func usage(w io.Writer, fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprintln(w, "Usage: lcl [flags] [input]")
		fmt.Fprintln(w, "Compiles input to a native executable. Without input, starts the interactive shell.")
		fs.PrintDefaults()
	}
}

func runCLI(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("lcl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = usage(stderr, fs)

	outPath := fs.String("o", "", "output executable path (default: input without extension)")
	asmOnly := fs.Bool("S", false, "write the assembly file only")
	runAfter := fs.Bool("run", false, "run the executable after compiling")
	configPath := fs.String("config", "", "YAML config file")
	timeout := fs.Duration("timeout", 0, "limit for each assembler/linker stage (0 = none)")
	showVersion := fs.Bool("version", false, "print the version and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if *showVersion {
		fmt.Fprintf(stdout, "lcl %s\n", version)
		return 0
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return 1
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "timeout" {
			cfg.Timeout = *timeout
		}
	})
	if cfg.Timeout < 0 {
		fmt.Fprintf(stderr, "Configuration error: timeout must not be negative, got %s\n", cfg.Timeout)
		return 1
	}

	logger := newLogger(stderr, cfg)
	errOut := diag.NewOutput(stderr, cfg.Color)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if fs.NArg() == 0 {
		m := evaluator.NewMachine(cfg.MemCapacity, stdout)
		shell := evaluator.NewShell(m, stdin, stdout, errOut)
		shell.Prompt = cfg.Prompt
		shell.Banner = fmt.Sprintf("lcl %s interactive shell", version)
		shell.Logger = logger
		if err := shell.Run(ctx); err != nil {
			diag.Render(errOut, "", err)
			return 1
		}
		return 0
	}

	input := fs.Arg(0)
	source, err := readSource(input, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading file: %v\n", err)
		return 1
	}

	name := input
	if input == "-" {
		name = "<stdin>"
	}
	tokens, err := lexer.Tokenize(source, name)
	if err != nil {
		diag.Render(errOut, source, err)
		return 1
	}

	cg := codegen.New(codegen.Options{MemCapacity: cfg.MemCapacity, Logger: logger})
	assembly, err := cg.Generate(tokens)
	if err != nil {
		diag.Render(errOut, source, err)
		return 1
	}

	out := *outPath
	if out == "" {
		out = defaultOutput(input)
	}

	if *asmOnly {
		asmPath, _ := codegen.ArtifactPaths(out)
		if err := os.WriteFile(asmPath, []byte(assembly), 0o644); err != nil {
			fmt.Fprintf(stderr, "Error writing assembly: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Wrote: %s\n", asmPath)
		return 0
	}

	tc := codegen.Toolchain{
		Assembler: cfg.Assembler,
		Linker:    cfg.Linker,
		Timeout:   cfg.Timeout,
		Logger:    logger,
	}
	start := time.Now()
	if err := compileFn(ctx, tc, assembly, out); err != nil {
		fmt.Fprintln(stderr, "Compilation failed:")
		diag.Render(errOut, source, err)
		return 1
	}
	logger.Info().Str("output", out).Dur("elapsed", time.Since(start)).Msg("compiled")
	fmt.Fprintf(stdout, "Compiled to: %s\n", out)

	if *runAfter {
		cmd := execCmdFn(runPath(out))
		cmd.Stdin = stdin
		cmd.Stdout = stdout
		cmd.Stderr = stderr
		if err := cmd.Run(); err != nil {
			fmt.Fprintf(stderr, "Execution failed: %v\n", err)
			return 1
		}
	}
	return 0
}

func newLogger(w io.Writer, cfg config.Config) zerolog.Logger {
	console := zerolog.ConsoleWriter{Out: w, NoColor: !cfg.Color, TimeFormat: time.Kitchen}
	return zerolog.New(console).Level(cfg.Level()).With().Timestamp().Logger()
}

func readSource(input string, stdin io.Reader) (string, error) {
	var data []byte
	var err error
	if input == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(input)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func defaultOutput(input string) string {
	if input == "-" {
		return "a.out"
	}
	ext := filepath.Ext(input)
	if ext == "" {
		return input + ".out"
	}
	return strings.TrimSuffix(input, ext)
}

// runPath makes a bare file name executable from the working directory.
func runPath(out string) string {
	if filepath.IsAbs(out) || strings.ContainsRune(out, os.PathSeparator) {
		return out
	}
	return "." + string(os.PathSeparator) + out
}
