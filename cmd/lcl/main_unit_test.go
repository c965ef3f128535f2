package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lcl/internal/codegen"
)

func TestRunPath(t *testing.T) {
	assert.Equal(t, "."+string(os.PathSeparator)+"bin", runPath("bin"))

	abs := filepath.Join(string(os.PathSeparator), "tmp", "bin")
	assert.Equal(t, abs, runPath(abs))

	nested := filepath.Join("out", "bin")
	assert.Equal(t, nested, runPath(nested))
}

func TestDefaultOutput(t *testing.T) {
	assert.Equal(t, "prog", defaultOutput("prog.lcl"))
	assert.Equal(t, filepath.Join("dir", "prog"), defaultOutput(filepath.Join("dir", "prog.lcl")))
	assert.Equal(t, "prog.out", defaultOutput("prog"))
	assert.Equal(t, "a.out", defaultOutput("-"))
}

func TestRunCLIVersion(t *testing.T) {
	var out bytes.Buffer
	code := runCLI([]string{"-version"}, strings.NewReader(""), &out, &out)
	assert.Equal(t, 0, code)
	assert.Equal(t, "lcl "+version+"\n", out.String())
}

func TestRunCLITooManyArgs(t *testing.T) {
	var out bytes.Buffer
	code := runCLI([]string{"a.lcl", "b.lcl"}, strings.NewReader(""), &out, &out)
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "Usage: lcl")
}

func TestRunCLIBadFlag(t *testing.T) {
	var out bytes.Buffer
	code := runCLI([]string{"-nope"}, strings.NewReader(""), &out, &out)
	assert.Equal(t, 1, code)
}

func TestMainUsesExitFn(t *testing.T) {
	oldArgs := os.Args
	oldExit := exitFn
	defer func() {
		os.Args = oldArgs
		exitFn = oldExit
	}()

	os.Args = []string{"lcl", "-version"}
	got := -1
	exitFn = func(code int) { got = code }
	main()
	assert.Equal(t, 0, got)
}

func TestRunCLIConfigError(t *testing.T) {
	var out bytes.Buffer
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	code := runCLI([]string{"-config", missing, "-"}, strings.NewReader("1 ."), &out, &out)
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "Configuration error:")
}

func TestRunCLIReadError(t *testing.T) {
	var out bytes.Buffer
	code := runCLI([]string{filepath.Join(t.TempDir(), "missing.lcl")}, strings.NewReader(""), &out, &out)
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "Error reading file:")
}

func TestRunCLIFromStdinSyntaxAndCodegenErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := runCLI([]string{"-"}, strings.NewReader("1 #\n"), &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "SyntaxError")
	assert.Contains(t, stderr.String(), "--> <stdin>:1:3")

	stderr.Reset()
	code = runCLI([]string{"-"}, strings.NewReader("1 2\n3 *\n"), &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Unimplemented: operator * is not implemented")
	assert.Contains(t, stderr.String(), " 2 | 3 *")

	stderr.Reset()
	code = runCLI([]string{"-"}, strings.NewReader("else"), &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "StructuralError")
	assert.Empty(t, stdout.String())
}

func TestRunCLIWritesAssemblyOnly(t *testing.T) {
	out := filepath.Join(t.TempDir(), "prog")
	var stdout, stderr bytes.Buffer
	code := runCLI([]string{"-S", "-o", out, "-"}, strings.NewReader("2 2 + ."), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	asm, err := os.ReadFile(out + ".s")
	require.NoError(t, err)
	assert.Contains(t, string(asm), "_start:")
	assert.Contains(t, stdout.String(), "Wrote: "+out+".s")

	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestRunCLICompileAndRunBranches(t *testing.T) {
	src := filepath.Join(t.TempDir(), "ok.lcl")
	require.NoError(t, os.WriteFile(src, []byte("1 .\n"), 0o644))

	oldCompile := compileFn
	oldExec := execCmdFn
	defer func() {
		compileFn = oldCompile
		execCmdFn = oldExec
	}()

	var out bytes.Buffer
	compileFn = func(context.Context, codegen.Toolchain, string, string) error { return errors.New("compile boom") }
	code := runCLI([]string{"-o", "xbin", src}, strings.NewReader(""), &out, &out)
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "Compilation failed:")
	assert.Contains(t, out.String(), "compile boom")

	out.Reset()
	var gotTimeout bool
	compileFn = func(_ context.Context, tc codegen.Toolchain, _, _ string) error {
		gotTimeout = tc.Timeout.String() == "3s"
		return nil
	}
	execCmdFn = func(name string, arg ...string) *exec.Cmd {
		return exec.Command("sh", "-c", "exit 1")
	}
	code = runCLI([]string{"-run", "-timeout", "3s", "-o", "xbin", src}, strings.NewReader(""), &out, &out)
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "Execution failed:")
	assert.True(t, gotTimeout)

	out.Reset()
	var ran string
	execCmdFn = func(name string, arg ...string) *exec.Cmd {
		ran = name
		return exec.Command("sh", "-c", "exit 0")
	}
	code = runCLI([]string{"-run", "-o", "xbin", src}, strings.NewReader(""), &out, &out)
	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "Compiled to: xbin")
	assert.Equal(t, "."+string(os.PathSeparator)+"xbin", ran)
}

func TestRunCLIShell(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := runCLI(nil, strings.NewReader("1 2 +\n.\n.\n"), &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Equal(t, "ok\n3\nok\n", stdout.String())
	assert.Contains(t, stderr.String(), "stack is empty")
}
