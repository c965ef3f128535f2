package main

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ensureToolchain(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("as"); err != nil {
		t.Skip("skipping: assembler 'as' not found")
	}
	if _, err := exec.LookPath("ld"); err != nil {
		t.Skip("skipping: linker 'ld' not found")
	}
}

func TestCLICompileAndRunPrint(t *testing.T) {
	ensureToolchain(t)

	dir := t.TempDir()
	src := filepath.Join(dir, "add.lcl")
	source := "fn add a b do\n  a b +\nend\n3 2 add .\n"
	require.NoError(t, os.WriteFile(src, []byte(source), 0o644))

	var stdout, stderr bytes.Buffer
	code := runCLI([]string{"-run", src}, strings.NewReader(""), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	out := filepath.Join(dir, "add")
	assert.Contains(t, stdout.String(), "Compiled to: "+out)
	assert.True(t, strings.HasSuffix(stdout.String(), "\n5\n"), stdout.String())
	assert.Empty(t, stderr.String())

	_, err := os.Stat(out)
	assert.NoError(t, err)
}

func TestCLICompileAndRunNegativeNumber(t *testing.T) {
	ensureToolchain(t)

	out := filepath.Join(t.TempDir(), "neg")
	var stdout, stderr bytes.Buffer
	code := runCLI([]string{"-run", "-o", out, "-"}, strings.NewReader("-17 .\n"), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.True(t, strings.HasSuffix(stdout.String(), "\n-17\n"), stdout.String())
}

func TestCLIStructuralErrorProducesNoExecutable(t *testing.T) {
	out := filepath.Join(t.TempDir(), "bad")
	var stdout, stderr bytes.Buffer
	code := runCLI([]string{"-o", out, "-"}, strings.NewReader("1 if 2 .\n"), &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "unterminated `if` block")

	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(out + ".s")
	assert.True(t, os.IsNotExist(err))
}
