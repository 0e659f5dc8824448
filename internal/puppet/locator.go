// Package puppet wraps every interaction with the puppet agent itself:
// locating the binary, probing its version, running version-appropriate
// configuration lookups, and scraping the small text files it writes.
package puppet

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Runner executes an external command and captures its stdout. It exists
// so tests can substitute literal fixture output for subprocess calls.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner shells out with a per-call timeout.
type execRunner struct {
	timeout time.Duration
}

// NewRunner returns a Runner that executes real subprocesses, bounding
// each call by timeout (zero means no bound).
func NewRunner(timeout time.Duration) Runner {
	return execRunner{timeout: timeout}
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return exec.CommandContext(ctx, name, args...).Output()
}

// Agent is a located puppet installation together with the configuration
// lookup strategy its version requires.
type Agent struct {
	Path  string
	Major int

	runner Runner
}

// Locate finds the puppet executable and probes its major version.
// overridePath skips PATH resolution when non-empty. A failed version
// probe selects the legacy lookup syntax rather than failing the check.
func Locate(ctx context.Context, runner Runner, overridePath string) (*Agent, error) {
	path := overridePath
	if path == "" {
		found, err := exec.LookPath("puppet")
		if err != nil {
			return nil, fmt.Errorf("locating puppet: %w", err)
		}
		path = found
	}

	a := &Agent{Path: path, runner: runner}
	if out, err := runner.Run(ctx, path, "--version"); err == nil {
		a.Major = ParseMajorVersion(string(out))
	}
	return a, nil
}

// ConfigPrint asks the agent for one of its own configuration values.
// Puppet 3 and later answer `puppet config print <key>` (run elevated,
// since settings like pidfile resolve differently for root); older
// releases only understand `--configprint`.
func (a *Agent) ConfigPrint(ctx context.Context, key string) (string, error) {
	var out []byte
	var err error
	if a.Major >= 3 {
		out, err = a.runner.Run(ctx, "sudo", a.Path, "config", "print", key)
	} else {
		out, err = a.runner.Run(ctx, a.Path, "--configprint", key)
	}
	if err != nil {
		return "", fmt.Errorf("puppet config lookup %q: %w", key, err)
	}
	value := firstLine(string(out))
	if value == "" {
		return "", fmt.Errorf("puppet config lookup %q: empty result", key)
	}
	return value, nil
}

// ParseMajorVersion extracts the leading major version from output like
// "7.21.0". Returns 0 when no integer can be found.
func ParseMajorVersion(s string) int {
	s = firstLine(s)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	major, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || major < 0 {
		return 0
	}
	return major
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
