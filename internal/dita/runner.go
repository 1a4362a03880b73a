package dita

import (
	"bytes"
	"context"
	"os/exec"
)

// Runner executes the converter binary and returns what it wrote to
// stderr.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stderr []byte, err error)
}

// ExecRunner runs commands as child processes.
type ExecRunner struct{}

// Run executes name with args. Stdout is discarded.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...) //#nosec G204
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.Bytes(), err
}
