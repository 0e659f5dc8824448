// Package cli wires the check_puppet command line: flag parsing,
// defaults-file merging, dependency construction, and rendering of the
// final verdict as the plugin's single output line and exit code.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/akomakom/nagios-plugins/internal/check"
	"github.com/akomakom/nagios-plugins/internal/config"
	"github.com/akomakom/nagios-plugins/internal/nagios"
	"github.com/akomakom/nagios-plugins/internal/platform"
	"github.com/akomakom/nagios-plugins/internal/proc"
	"github.com/akomakom/nagios-plugins/internal/puppet"
)

type options struct {
	critical   int
	warning    int
	daemonized string
	lockfile   string
	statefile  string
	pidfile    string
	configPath string
	puppetPath string
	timeout    int
	jsonOut    bool
	noColor    bool
}

// Execute runs the plugin and returns its process exit code. Malformed
// invocations print usage and yield the UNKNOWN-class usage code; every
// well-formed invocation yields a verdict code.
func Execute(args []string) int {
	var code int
	o := &options{}
	cmd := newRootCmd(o, &code)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		fmt.Fprint(os.Stderr, cmd.UsageString())
		return nagios.ExitUsage
	}
	if helpRequested(cmd) {
		return nagios.ExitUsage
	}
	return code
}

func helpRequested(cmd *cobra.Command) bool {
	f := cmd.Flags().Lookup("help")
	return f != nil && f.Changed
}

func newRootCmd(o *options, exitCode *int) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check_puppet",
		Short: "Nagios plugin reporting the health of the host's puppet agent",
		Long: `check_puppet inspects the state file the puppet agent writes after
each run and reports OK, WARNING, CRITICAL or UNKNOWN to the monitoring
system via the exit code and a single output line.

Checks run in a fixed order and stop at the first failure: disabled
lockfile, state file presence, daemon liveness (daemonized mode only),
run staleness against the critical then warning threshold, record
completeness, and error counters from the previous run.

The warning threshold is not validated against the critical one; with
warning >= critical the warning band is simply unreachable.

Examples:
  check_puppet                        # defaults: warn 1h, crit 2h, daemonized
  check_puppet -w 1800 -c 3600        # tighter thresholds
  check_puppet -d 0 -s /tmp/summary   # cron-driven agent, explicit state file
  check_puppet --json                 # machine-readable verdict`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, o, exitCode)
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&o.critical, "critical", "c", 7200, "staleness critical threshold in seconds")
	flags.StringVarP(&o.daemonized, "daemonized", "d", "1", "1 when the agent runs as a daemon, 0 for periodic runs")
	flags.StringVarP(&o.lockfile, "disabled-lockfile", "l", "", "path to the agent disabled lockfile")
	flags.StringVarP(&o.statefile, "statefile", "s", "", "path to the agent last-run summary file")
	flags.IntVarP(&o.warning, "warning", "w", 3600, "staleness warning threshold in seconds")
	flags.StringVar(&o.pidfile, "pidfile", "", "path to the agent pidfile")
	flags.StringVar(&o.configPath, "config", config.DefaultPath, "plugin defaults file")
	flags.StringVar(&o.puppetPath, "puppet", "", "path to the puppet executable (default: search PATH)")
	flags.IntVar(&o.timeout, "timeout", 30, "per-subprocess timeout in seconds, 0 for none")
	flags.BoolVar(&o.jsonOut, "json", false, "emit the verdict as a JSON object")
	flags.BoolVar(&o.noColor, "no-color", false, "disable colored output")

	return cmd
}

func run(cmd *cobra.Command, o *options, exitCode *int) error {
	defaults, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	applyDefaults(cmd, o, defaults)

	if o.daemonized != "0" && o.daemonized != "1" {
		return fmt.Errorf("invalid -d value %q: must be 0 or 1", o.daemonized)
	}
	if o.critical <= 0 {
		return fmt.Errorf("invalid -c value %d: must be a positive number of seconds", o.critical)
	}
	if o.warning <= 0 {
		return fmt.Errorf("invalid -w value %d: must be a positive number of seconds", o.warning)
	}
	if o.timeout < 0 {
		return fmt.Errorf("invalid --timeout value %d: must not be negative", o.timeout)
	}

	cfg := check.Config{
		CriticalThreshold: time.Duration(o.critical) * time.Second,
		WarningThreshold:  time.Duration(o.warning) * time.Second,
		Daemonized:        o.daemonized == "1",
		DisabledLockfile:  o.lockfile,
		Statefile:         o.statefile,
		Pidfile:           o.pidfile,
	}

	timeout := time.Duration(o.timeout) * time.Second
	runner := puppet.NewRunner(timeout)
	deps := check.Deps{
		Now: time.Now,
		Locate: func(ctx context.Context) (check.Agent, error) {
			agent, err := puppet.Locate(ctx, runner, o.puppetPath)
			if err != nil {
				return nil, err
			}
			return agent, nil
		},
		Procs:    proc.NewSystem(timeout),
		Platform: platform.Detect(),
	}

	verdict := check.Evaluate(cmd.Context(), cfg, deps)
	if err := render(verdict, o); err != nil {
		return err
	}
	*exitCode = verdict.Severity().ExitCode()
	return nil
}

// applyDefaults fills in values from the defaults file for every option
// the invocation did not set explicitly.
func applyDefaults(cmd *cobra.Command, o *options, defaults config.File) {
	flags := cmd.Flags()
	if !flags.Changed("critical") && defaults.CriticalSeconds > 0 {
		o.critical = defaults.CriticalSeconds
	}
	if !flags.Changed("warning") && defaults.WarningSeconds > 0 {
		o.warning = defaults.WarningSeconds
	}
	if !flags.Changed("daemonized") && defaults.Daemonized != nil {
		if *defaults.Daemonized {
			o.daemonized = "1"
		} else {
			o.daemonized = "0"
		}
	}
	if !flags.Changed("statefile") && defaults.Statefile != "" {
		o.statefile = defaults.Statefile
	}
	if !flags.Changed("disabled-lockfile") && defaults.DisabledLockfile != "" {
		o.lockfile = defaults.DisabledLockfile
	}
	if !flags.Changed("pidfile") && defaults.Pidfile != "" {
		o.pidfile = defaults.Pidfile
	}
	if !flags.Changed("puppet") && defaults.Puppet != "" {
		o.puppetPath = defaults.Puppet
	}
	if !flags.Changed("timeout") && defaults.TimeoutSeconds > 0 {
		o.timeout = defaults.TimeoutSeconds
	}
}

// jsonVerdict is the --json output shape.
type jsonVerdict struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func render(v nagios.Verdict, o *options) error {
	if o.jsonOut {
		return json.NewEncoder(os.Stdout).Encode(jsonVerdict{
			Status:  v.Severity().String(),
			Code:    v.Severity().ExitCode(),
			Message: v.Message(),
		})
	}
	if useColor(o) {
		fmt.Println(nagios.ColoredLine(v))
	} else {
		fmt.Println(nagios.Line(v))
	}
	return nil
}

func useColor(o *options) bool {
	if o.noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
