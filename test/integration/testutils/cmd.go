package testutils

import (
	"bytes"
	"context"
	"os"
	"os/exec"

	"github.com/slok/intake/internal/conventions"
)

// RunIntakeArgs executes an intake binary with the given arguments and returns its outputs.
// Env entries override the current process environment.
func RunIntakeArgs(ctx context.Context, env []string, binary string, args []string, nolog bool) (stdout, stderr []byte, err error) {
	var outData, errData bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = &outData
	cmd.Stderr = &errData

	cmd.Env = append(os.Environ(), env...)
	if nolog {
		cmd.Env = append(cmd.Env, conventions.EnvPrefix+"_NO_LOG=true")
	}

	err = cmd.Run()

	return outData.Bytes(), errData.Bytes(), err
}
