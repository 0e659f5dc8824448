package nagios

import (
	"fmt"
	"time"
)

// Verdict is the terminal outcome of one evaluation. The set of
// implementations is closed: each carries only the data its message
// needs, and evaluation stops as soon as one is produced.
type Verdict interface {
	Severity() Severity
	Message() string

	verdict()
}

// NoExecutable: the agent binary could not be located.
type NoExecutable struct{}

func (NoExecutable) Severity() Severity { return SeverityUnknown }
func (NoExecutable) Message() string    { return "no puppet executable found" }

// Disabled: the agent is administratively disabled. Reason is the
// operator-supplied text extracted from the lockfile.
type Disabled struct {
	Reason string
}

func (Disabled) Severity() Severity { return SeverityUnknown }
func (v Disabled) Message() string  { return "DISABLED: Reason: " + v.Reason }

// StateMissing: the last-run state file is absent, empty or unreadable.
type StateMissing struct {
	Path string
}

func (StateMissing) Severity() Severity { return SeverityUnknown }
func (v StateMissing) Message() string  { return stateFileMessage(v.Path) }

// Incomplete: the state file was readable but one or more fields were
// missing. Renders identically to StateMissing: the two causes are
// deliberately not distinguished in output.
type Incomplete struct {
	Path string
}

func (Incomplete) Severity() Severity { return SeverityUnknown }
func (v Incomplete) Message() string  { return stateFileMessage(v.Path) }

func stateFileMessage(path string) string {
	if path == "" {
		return "puppet state file not found, not readable or incomplete"
	}
	return fmt.Sprintf("puppet state file %s not found, not readable or incomplete", path)
}

// DaemonNotRunning: daemon mode was requested and the liveness chain
// could not verify a running agent process.
type DaemonNotRunning struct{}

func (DaemonNotRunning) Severity() Severity { return SeverityCritical }
func (DaemonNotRunning) Message() string    { return "puppet daemon is not running" }

// StaleCritical: the last run is older than the critical threshold.
type StaleCritical struct {
	Elapsed   time.Duration
	Threshold time.Duration
}

func (StaleCritical) Severity() Severity { return SeverityCritical }
func (v StaleCritical) Message() string {
	return fmt.Sprintf("puppet was last run %s ago (critical threshold %s)", v.Elapsed, v.Threshold)
}

// StaleWarning: the last run is older than the warning threshold but
// younger than the critical one.
type StaleWarning struct {
	Elapsed   time.Duration
	Threshold time.Duration
}

func (StaleWarning) Severity() Severity { return SeverityWarning }
func (v StaleWarning) Message() string {
	return fmt.Sprintf("puppet was last run %s ago (warning threshold %s)", v.Elapsed, v.Threshold)
}

// RunErrors: the agent's previous run reported failures.
type RunErrors struct {
	Failed          int
	Failures        int
	FailedToRestart int
}

func (RunErrors) Severity() Severity { return SeverityCritical }
func (v RunErrors) Message() string {
	return fmt.Sprintf("puppet failed during the last run (failed=%d failures=%d failed_to_restart=%d)",
		v.Failed, v.Failures, v.FailedToRestart)
}

// OK: every check passed.
type OK struct {
	AgentVersion   string
	CatalogVersion string
	LastRun        time.Time
}

func (OK) Severity() Severity { return SeverityOK }
func (v OK) Message() string {
	return fmt.Sprintf("puppet %s running catalog %s, last run at %s",
		v.AgentVersion, v.CatalogVersion, v.LastRun.Format(time.RFC1123))
}

func (NoExecutable) verdict()     {}
func (Disabled) verdict()         {}
func (StateMissing) verdict()     {}
func (Incomplete) verdict()       {}
func (DaemonNotRunning) verdict() {}
func (StaleCritical) verdict()    {}
func (StaleWarning) verdict()     {}
func (RunErrors) verdict()        {}
func (OK) verdict()               {}
