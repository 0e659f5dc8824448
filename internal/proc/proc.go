// Package proc answers the two process-table questions the liveness
// chain needs: does anything matching a pattern exist, and is a given
// pid alive right now.
package proc

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// Table is the process-table capability consumed by the evaluator.
type Table interface {
	// AnyMatching reports whether any process's full command line
	// matches pattern.
	AnyMatching(ctx context.Context, pattern string) (bool, error)

	// Alive reports whether a process with the given pid exists.
	Alive(pid int) bool
}

// System queries the real process table via pgrep and signal 0.
type System struct {
	timeout time.Duration
}

// NewSystem returns a Table backed by the host process table, bounding
// each pgrep call by timeout (zero means no bound).
func NewSystem(timeout time.Duration) System {
	return System{timeout: timeout}
}

func (s System) AnyMatching(ctx context.Context, pattern string) (bool, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	err := exec.CommandContext(ctx, "pgrep", "-f", pattern).Run()
	if err == nil {
		return true, nil
	}
	// pgrep exits 1 when nothing matched.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return false, nil
	}
	return false, err
}

func (System) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix FindProcess always succeeds; signal 0 probes existence.
	return p.Signal(syscall.Signal(0)) == nil
}
