package adb

import (
	"context"
	"os/exec"
)

// Runner executes one bridge command and returns its standard output.
// A nil error means the command ran and exited zero. An *exec.ExitError
// means it ran and exited non-zero; any other error means the command
// could not be run to completion at all.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	// A hit deadline kills the process and surfaces as an exit error;
	// report the context error so callers see a timeout, not an exit.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return out, ctxErr
	}
	return out, err
}
