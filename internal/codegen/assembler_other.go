//go:build !unix

package codegen

import "os/exec"

func configureProcess(cmd *exec.Cmd) {}
