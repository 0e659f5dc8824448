// Package nagios holds the plugin-protocol surface of check_puppet:
// severity levels, the closed set of verdicts an evaluation can end in,
// and the rendering of a verdict into the single output line and exit
// code a monitoring system consumes.
package nagios

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Severity is a Nagios plugin severity level.
type Severity int

const (
	SeverityOK Severity = iota
	SeverityWarning
	SeverityCritical
	SeverityUnknown
)

// ExitUsage is the exit code for malformed invocations. Usage errors are
// not verdicts, but monitoring systems treat the code as UNKNOWN-class.
const ExitUsage = 3

func (s Severity) String() string {
	switch s {
	case SeverityOK:
		return "OK"
	case SeverityWarning:
		return "WARNING"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ExitCode maps a severity to the plugin exit code convention.
func (s Severity) ExitCode() int {
	switch s {
	case SeverityOK:
		return 0
	case SeverityWarning:
		return 1
	case SeverityCritical:
		return 2
	default:
		return 3
	}
}

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))  // Green
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")) // Orange
	critStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // Red
	unkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")) // Gray
)

func styleFor(s Severity) lipgloss.Style {
	switch s {
	case SeverityOK:
		return okStyle
	case SeverityWarning:
		return warnStyle
	case SeverityCritical:
		return critStyle
	default:
		return unkStyle
	}
}

// Line renders a verdict as the plain `<LEVEL>: <details>` output line.
func Line(v Verdict) string {
	return fmt.Sprintf("%s: %s", v.Severity(), v.Message())
}

// ColoredLine is Line with the severity prefix styled for interactive
// terminals. Never used when stdout is the monitoring system.
func ColoredLine(v Verdict) string {
	sev := v.Severity()
	return fmt.Sprintf("%s: %s", styleFor(sev).Render(sev.String()), v.Message())
}
