// Package config parses and validates the CLI surface described in §6 and
// §10.2: hostname, port, storage capacity hint, shard count, per-connection
// buffer size, connection limit, and log verbosity.
package config

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// validVerbosity is the fixed enum accepted by --verbosity.
var validVerbosity = map[string]bool{
	"error": true,
	"warn":  true,
	"info":  true,
	"debug": true,
	"trace": true,
}

// Config is the validated, typed result of parsing the CLI flags in
// §10.2. Every field has already passed the table's validation rule by the
// time a Config is handed to the rest of the program.
type Config struct {
	Hostname  string
	Port      int
	Capacity  int
	Shards    int
	Buffer    int
	ConnLimit int
	Verbosity string
}

// Addr renders Hostname and Port as a net.Listen-style address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Hostname, c.Port)
}

// Flags returns the urfave/cli flag set for the respd command, wired to
// the defaults in §10.2's table.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "hostname", Value: "127.0.0.1", Usage: "host or IP to listen on"},
		&cli.IntFlag{Name: "port", Value: 6379, Usage: "TCP port to listen on"},
		&cli.IntFlag{Name: "capacity", Value: 1000000, Usage: "total pre-allocation hint across all shards"},
		&cli.IntFlag{Name: "shard", Value: 8, Usage: "number of storage shards"},
		&cli.IntFlag{Name: "buffer", Value: 8192, Usage: "per-connection I/O buffer size in bytes"},
		&cli.IntFlag{Name: "limit", Value: 10000, Usage: "maximum concurrent connections"},
		&cli.StringFlag{Name: "verbosity", Value: "info", Usage: "error, warn, info, debug, or trace"},
	}
}

// FromContext builds and validates a Config from a populated cli.Context.
// An invalid flag value is reported here rather than left for a later,
// less legible outcome (a --shard of 0 being silently replaced by the
// store's default shard count, for instance).
func FromContext(c *cli.Context) (Config, error) {
	cfg := Config{
		Hostname:  c.String("hostname"),
		Port:      c.Int("port"),
		Capacity:  c.Int("capacity"),
		Shards:    c.Int("shard"),
		Buffer:    c.Int("buffer"),
		ConnLimit: c.Int("limit"),
		Verbosity: c.String("verbosity"),
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Hostname == "" {
		return fmt.Errorf("hostname must not be empty")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range 0-65535", c.Port)
	}
	if c.Capacity < 0 {
		return fmt.Errorf("capacity must be >= 0, got %d", c.Capacity)
	}
	if c.Shards < 1 {
		return fmt.Errorf("shard count must be >= 1, got %d", c.Shards)
	}
	if c.Buffer < 64 {
		return fmt.Errorf("buffer size must be >= 64, got %d", c.Buffer)
	}
	if c.ConnLimit < 1 {
		return fmt.Errorf("connection limit must be >= 1, got %d", c.ConnLimit)
	}
	if !validVerbosity[c.Verbosity] {
		return fmt.Errorf("verbosity %q must be one of error, warn, info, debug, trace", c.Verbosity)
	}
	return nil
}
