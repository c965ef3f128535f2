package codegen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"lcl/internal/diag"
	"lcl/internal/token"
)

// Toolchain drives the external assembler and linker.
type Toolchain struct {
	Assembler string
	Linker    string
	Timeout   time.Duration // per stage, 0 means no limit
	Logger    zerolog.Logger
}

// DefaultToolchain uses GNU as and ld from PATH.
func DefaultToolchain() Toolchain {
	return Toolchain{Assembler: "as", Linker: "ld", Logger: zerolog.Nop()}
}

// ArtifactPaths returns the assembly and object file paths used for out.
func ArtifactPaths(out string) (asmPath, objPath string) {
	return out + ".s", out + ".o"
}

// Build writes the assembly next to out, assembles it and links the
// executable. Any diagnostic output from either tool fails the build.
func (tc Toolchain) Build(ctx context.Context, assembly string, out string) error {
	asmPath, objPath := ArtifactPaths(out)

	if dir := filepath.Dir(out); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	if err := os.WriteFile(asmPath, []byte(assembly), 0o644); err != nil {
		return fmt.Errorf("failed to write assembly: %w", err)
	}

	if err := os.Remove(out); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale output: %w", err)
	}

	if err := tc.runStage(ctx, "assemble", tc.Assembler, "--64", "-o", objPath, asmPath); err != nil {
		return err
	}
	if err := tc.runStage(ctx, "link", tc.Linker, "-o", out, objPath); err != nil {
		_ = os.Remove(out)
		return err
	}
	return nil
}

func (tc Toolchain) runStage(ctx context.Context, stage string, name string, args ...string) error {
	if name == "" {
		return diag.At(diag.ToolchainError, token.Location{}, "no program configured for the %s stage", stage)
	}
	if tc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, tc.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	configureProcess(cmd)

	start := time.Now()
	err := cmd.Run()
	tc.Logger.Debug().
		Str("stage", stage).
		Str("program", name).
		Strs("args", args).
		Dur("elapsed", time.Since(start)).
		Str("stdout", strings.TrimSpace(stdout.String())).
		Err(err).
		Msg("toolchain stage finished")

	msg := strings.TrimSpace(stderr.String())
	switch {
	case ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded):
		return diag.At(diag.ToolchainError, token.Location{}, "%s stage timed out after %s", stage, tc.Timeout)
	case err != nil && msg != "":
		return diag.At(diag.ToolchainError, token.Location{}, "%s failed: %v\n%s", stage, err, msg)
	case err != nil:
		return diag.At(diag.ToolchainError, token.Location{}, "%s failed: %v", stage, err)
	case msg != "":
		return diag.At(diag.ToolchainError, token.Location{}, "%s reported diagnostics:\n%s", stage, msg)
	}
	return nil
}
