// Package logging constructs the single root hclog.Logger that every
// other component is handed by reference (§10.3). There is no global
// logger: main builds one from the parsed Config and passes it down.
package logging

import (
	"os"

	"github.com/hashicorp/go-hclog"
)

// New builds the root logger for verbosity, one of "error", "warn",
// "info", "debug", or "trace" (§10.2's --verbosity enum). An unrecognized
// value falls back to Info rather than failing, since verbosity already
// went through config validation by the time this is called.
func New(verbosity string) hclog.Logger {
	level := hclog.LevelFromString(verbosity)
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:            "respd",
		Level:           level,
		Output:          os.Stderr,
		IncludeLocation: false,
	})
}
