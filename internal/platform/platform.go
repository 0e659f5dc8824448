// Package platform isolates the two places the check behaves differently
// per operating system: the default agent pidfile location and the
// per-pid command line record used to corroborate pidfile contents.
package platform

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// Adapter is selected once at startup and injected into the evaluator.
type Adapter interface {
	// DefaultPidfile is the conventional agent pidfile path for this
	// platform, tried before any configured or looked-up path.
	DefaultPidfile() string

	// CommandLine returns the command line of a running process.
	// Platforms without a readable per-pid command record return
	// errors.ErrUnsupported and the corroboration step is skipped.
	CommandLine(pid int) (string, error)
}

// Detect picks the adapter for the current operating system.
func Detect() Adapter {
	switch runtime.GOOS {
	case "freebsd", "openbsd", "netbsd", "dragonfly", "darwin":
		return BSD{}
	default:
		return Linux{}
	}
}

// Linux reads /proc for process corroboration.
type Linux struct {
	// ProcRoot overrides /proc in tests.
	ProcRoot string
}

func (Linux) DefaultPidfile() string { return "/var/run/puppet/agent.pid" }

func (l Linux) CommandLine(pid int) (string, error) {
	root := l.ProcRoot
	if root == "" {
		root = "/proc"
	}
	data, err := os.ReadFile(filepath.Join(root, strconv.Itoa(pid), "cmdline"))
	if err != nil {
		return "", err
	}
	// cmdline separates argv with NUL bytes.
	return strings.TrimSpace(strings.ReplaceAll(string(data), "\x00", " ")), nil
}

// BSD has no /proc by default; the pidfile is trusted without a command
// line cross-check, as the original tooling did.
type BSD struct{}

func (BSD) DefaultPidfile() string { return "/var/run/puppet/puppetd.pid" }

func (BSD) CommandLine(int) (string, error) {
	return "", errors.ErrUnsupported
}
