// Package check implements the status evaluation itself: a fixed chain
// of short-circuiting steps that inspect the agent's state file and
// process and end in exactly one verdict.
package check

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/akomakom/nagios-plugins/internal/nagios"
	"github.com/akomakom/nagios-plugins/internal/puppet"
)

// Config is built once from flags and the defaults file and never
// mutated. Empty paths are resolved through the agent's own
// configuration lookup during evaluation.
type Config struct {
	CriticalThreshold time.Duration
	WarningThreshold  time.Duration
	Daemonized        bool
	DisabledLockfile  string
	Statefile         string
	Pidfile           string
}

// Agent is the located puppet installation as the evaluator sees it:
// a configuration lookup keyed by setting name.
type Agent interface {
	ConfigPrint(ctx context.Context, key string) (string, error)
}

// ProcessTable answers liveness questions about the host process table.
type ProcessTable interface {
	AnyMatching(ctx context.Context, pattern string) (bool, error)
	Alive(pid int) bool
}

// Platform is the per-OS adapter: default pidfile location and per-pid
// command line corroboration. CommandLine returns errors.ErrUnsupported
// where no such record exists.
type Platform interface {
	DefaultPidfile() string
	CommandLine(pid int) (string, error)
}

// Deps carries every external capability the evaluation touches, so the
// whole chain runs against stubs in tests.
type Deps struct {
	Now      func() time.Time
	Locate   func(ctx context.Context) (Agent, error)
	Procs    ProcessTable
	Platform Platform
}

// daemonPatterns are the command line shapes a running agent can have,
// oldest first.
var daemonPatterns = []string{"puppetd", "puppet agent", "puppet-agent"}

// evaluation accumulates resolved paths and extracted fields as the
// steps run. It replaces the ambient state the original tool threaded
// through environment variables.
type evaluation struct {
	cfg  Config
	deps Deps

	agent     Agent
	statefile string
	raw       []byte
	record    puppet.LastRun
}

// Evaluate walks the check chain in its fixed order and returns the
// first verdict produced. Order is load-bearing: the disabled lockfile
// beats everything, and staleness is judged before completeness, so a
// stale record with missing fields reports stale.
func Evaluate(ctx context.Context, cfg Config, deps Deps) nagios.Verdict {
	e := &evaluation{cfg: cfg, deps: deps}
	steps := []func(context.Context) nagios.Verdict{
		e.locateAgent,
		e.checkDisabled,
		e.checkStatefile,
		e.checkDaemon,
		e.extractFields,
		e.checkStaleness,
		e.checkCompleteness,
		e.checkCounters,
	}
	for _, step := range steps {
		if v := step(ctx); v != nil {
			return v
		}
	}
	return nagios.OK{
		AgentVersion:   e.record.AgentVersion,
		CatalogVersion: e.record.CatalogVersion,
		LastRun:        time.Unix(e.record.Epoch(), 0),
	}
}

func (e *evaluation) locateAgent(ctx context.Context) nagios.Verdict {
	agent, err := e.deps.Locate(ctx)
	if err != nil {
		return nagios.NoExecutable{}
	}
	e.agent = agent
	return nil
}

func (e *evaluation) checkDisabled(ctx context.Context) nagios.Verdict {
	path := e.cfg.DisabledLockfile
	if path == "" {
		// A failed lookup just means the check cannot apply.
		path, _ = e.agent.ConfigPrint(ctx, "agent_disabled_lockfile")
	}
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	content, _ := os.ReadFile(path)
	return nagios.Disabled{Reason: puppet.DisabledReason(string(content))}
}

func (e *evaluation) checkStatefile(ctx context.Context) nagios.Verdict {
	path := e.cfg.Statefile
	if path == "" {
		var err error
		path, err = e.agent.ConfigPrint(ctx, "lastrunfile")
		if err != nil {
			return nagios.StateMissing{}
		}
	}
	e.statefile = path

	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return nagios.StateMissing{Path: path}
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nagios.StateMissing{Path: path}
	}
	e.raw = raw
	return nil
}

func (e *evaluation) checkDaemon(ctx context.Context) nagios.Verdict {
	if !e.cfg.Daemonized {
		return nil
	}

	found := false
	for _, pattern := range daemonPatterns {
		if ok, err := e.deps.Procs.AnyMatching(ctx, pattern); err == nil && ok {
			found = true
			break
		}
	}
	if !found {
		return nagios.DaemonNotRunning{}
	}

	pidfile := e.deps.Platform.DefaultPidfile()
	if _, err := os.Stat(pidfile); err != nil {
		pidfile = e.cfg.Pidfile
		if pidfile == "" {
			var lerr error
			pidfile, lerr = e.agent.ConfigPrint(ctx, "pidfile")
			if lerr != nil {
				return nagios.DaemonNotRunning{}
			}
		}
	}

	data, err := os.ReadFile(pidfile)
	if err != nil {
		return nagios.DaemonNotRunning{}
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return nagios.DaemonNotRunning{}
	}
	if !e.deps.Procs.Alive(pid) {
		return nagios.DaemonNotRunning{}
	}

	// A pidfile can be stale and the pid reused. Where the platform has
	// a command line record, require it to actually name puppet.
	cmdline, err := e.deps.Platform.CommandLine(pid)
	switch {
	case errors.Is(err, errors.ErrUnsupported):
	case err != nil:
		return nagios.DaemonNotRunning{}
	case !strings.Contains(cmdline, "puppet"):
		return nagios.DaemonNotRunning{}
	}
	return nil
}

func (e *evaluation) extractFields(context.Context) nagios.Verdict {
	e.record = puppet.ParseLastRun(bytes.NewReader(e.raw))
	return nil
}

func (e *evaluation) checkStaleness(context.Context) nagios.Verdict {
	elapsed := e.deps.Now().Sub(time.Unix(e.record.Epoch(), 0))
	if elapsed >= e.cfg.CriticalThreshold {
		return nagios.StaleCritical{Elapsed: elapsed, Threshold: e.cfg.CriticalThreshold}
	}
	if elapsed >= e.cfg.WarningThreshold {
		return nagios.StaleWarning{Elapsed: elapsed, Threshold: e.cfg.WarningThreshold}
	}
	return nil
}

func (e *evaluation) checkCompleteness(context.Context) nagios.Verdict {
	if !e.record.Complete() {
		return nagios.Incomplete{Path: e.statefile}
	}
	return nil
}

func (e *evaluation) checkCounters(context.Context) nagios.Verdict {
	failed, failures, failedToRestart, err := e.record.Counters()
	if err != nil {
		return nagios.Incomplete{Path: e.statefile}
	}
	if failed > 0 || failures > 0 || failedToRestart > 0 {
		return nagios.RunErrors{
			Failed:          failed,
			Failures:        failures,
			FailedToRestart: failedToRestart,
		}
	}
	return nil
}
