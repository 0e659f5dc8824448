package puppet

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// LastRun holds the raw tokens scraped from the agent's last-run summary
// file. Values stay strings: a missing or malformed line is simply an
// empty token, and the evaluator decides what that means.
type LastRun struct {
	LastRunEpoch    string
	CatalogVersion  string
	AgentVersion    string
	Failed          string
	Failures        string
	FailedToRestart string
}

// ParseLastRun scans the summary line by line, keeping the first token
// after each known label. Labels must match a whole token, so
// "config_retrieval:" never shadows "config:". First match per label
// wins. No schema validation happens here.
func ParseLastRun(r io.Reader) LastRun {
	targets := map[string]*string{}
	var rec LastRun
	targets["last_run:"] = &rec.LastRunEpoch
	targets["config:"] = &rec.CatalogVersion
	targets["puppet:"] = &rec.AgentVersion
	targets["failed:"] = &rec.Failed
	targets["failure:"] = &rec.Failures
	targets["failed_to_restart:"] = &rec.FailedToRestart

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		for i, f := range fields {
			dst, ok := targets[f]
			if !ok || i+1 >= len(fields) {
				continue
			}
			if *dst == "" {
				*dst = strings.Trim(fields[i+1], `"'`)
			}
		}
	}
	return rec
}

// Complete reports whether every scraped field is non-empty.
func (r LastRun) Complete() bool {
	return r.LastRunEpoch != "" && r.CatalogVersion != "" && r.AgentVersion != "" &&
		r.Failed != "" && r.Failures != "" && r.FailedToRestart != ""
}

// Epoch parses the last-run timestamp. An empty or malformed token reads
// as epoch zero, which always trips the critical staleness threshold.
func (r LastRun) Epoch() int64 {
	sec, err := strconv.ParseInt(r.LastRunEpoch, 10, 64)
	if err != nil || sec < 0 {
		return 0
	}
	return sec
}

// Counters parses the three error counters. Negative or non-numeric
// values are reported as an error so the record can be treated as
// incomplete.
func (r LastRun) Counters() (failed, failures, failedToRestart int, err error) {
	for _, c := range []struct {
		label string
		raw   string
		dst   *int
	}{
		{"failed", r.Failed, &failed},
		{"failure", r.Failures, &failures},
		{"failed_to_restart", r.FailedToRestart, &failedToRestart},
	} {
		n, perr := strconv.Atoi(c.raw)
		if perr != nil || n < 0 {
			return 0, 0, 0, fmt.Errorf("counter %s: bad value %q", c.label, c.raw)
		}
		*c.dst = n
	}
	return failed, failures, failedToRestart, nil
}
