// Package config loads the optional plugin defaults file. Flags beat the
// file, the file beats built-in defaults, and anything still unresolved
// falls back to asking the agent itself.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// DefaultPath is consulted when --config is not given. A missing file is
// not an error.
const DefaultPath = "/etc/nagios/check_puppet.toml"

// File mirrors the TOML defaults file. Zero values mean "not set".
type File struct {
	CriticalSeconds  int    `toml:"critical_seconds"`
	WarningSeconds   int    `toml:"warning_seconds"`
	Daemonized       *bool  `toml:"daemonized"`
	Statefile        string `toml:"statefile"`
	DisabledLockfile string `toml:"disabled_lockfile"`
	Pidfile          string `toml:"pidfile"`
	Puppet           string `toml:"puppet"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
}

// Load reads the defaults file at path. A nonexistent file yields a zero
// File; a malformed one is an error so misconfiguration is not silently
// ignored.
func Load(path string) (File, error) {
	var f File
	if _, err := toml.DecodeFile(path, &f); err != nil {
		if os.IsNotExist(err) {
			return File{}, nil
		}
		return File{}, fmt.Errorf("defaults file %s: %w", path, err)
	}
	return f, nil
}
