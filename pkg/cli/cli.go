// Drone Updater
// Copyright (c) 2026 The Drone Updater Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Drone Updater.
//
// Drone Updater is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Drone Updater is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Drone Updater.  If not, see <http://www.gnu.org/licenses/>.

// Package cli holds the process bootstrap shared by the updater binaries:
// flag handling, config and logging setup, and the main update loop.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/cellaxon/drone-updater/internal/telemetry"
	"github.com/cellaxon/drone-updater/pkg/config"
	"github.com/cellaxon/drone-updater/pkg/helpers"
	"github.com/cellaxon/drone-updater/pkg/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// portList is a repeatable string flag.
type portList []string

func (p *portList) String() string {
	return strings.Join(*p, ",")
}

func (p *portList) Set(v string) error {
	if v == "" {
		return errors.New("port prefix must not be empty")
	}
	*p = append(*p, v)
	return nil
}

type Flags struct {
	set       *flag.FlagSet
	Version   *bool
	Firmware  *string
	List      *bool
	Debug     *bool
	Trace     *bool
	LogStderr *bool
	Ports     portList
}

// SetupFlags defines the updater flags on fs.
func SetupFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{
		set: fs,
		Version: fs.Bool(
			"version",
			false,
			"print version and exit",
		),
		Firmware: fs.String(
			"firmware",
			"",
			"directory holding firmware images (overrides config)",
		),
		List: fs.Bool(
			"list",
			false,
			"print loaded firmware images and serial ports, then exit",
		),
		Debug: fs.Bool(
			"debug",
			false,
			"enable debug logging",
		),
		Trace: fs.Bool(
			"trace",
			false,
			"log raw serial traffic",
		),
		LogStderr: fs.Bool(
			"log-stderr",
			false,
			"also write logs to stderr",
		),
	}
	fs.Var(&f.Ports, "port", "only use serial ports starting with this prefix (repeatable)")
	return f
}

func (f *Flags) isFlagPassed(name string) bool {
	found := false
	f.set.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

// Pre parses args and handles flags that need no environment. It reports
// whether the process should exit straight away.
func (f *Flags) Pre(args []string, out io.Writer) (bool, error) {
	if err := f.set.Parse(args); err != nil {
		return true, fmt.Errorf("failed to parse flags: %w", err)
	}

	if *f.Version {
		_, _ = fmt.Fprintf(out, "%s v%s\n", config.AppTitle, config.AppVersion)
		return true, nil
	}

	return false, nil
}

// Apply copies flag overrides into cfg. Overrides are not saved.
func (f *Flags) Apply(cfg *config.Instance) {
	if f.isFlagPassed("firmware") {
		cfg.SetFirmwareDir(*f.Firmware)
	}
	if len(f.Ports) > 0 {
		cfg.SetPortFilter([]string(f.Ports))
	}
	if *f.Debug {
		cfg.SetDebugLogging(true)
	}
}

// Setup initialises logging and loads the user config.
//
//nolint:gocritic // config struct copied for immutability
func Setup(
	f *Flags,
	configDir string,
	logDir string,
	defaultConfig config.Values,
	writers []io.Writer,
) (*config.Instance, error) {
	err := helpers.InitLogging(logDir, zerolog.InfoLevel, writers)
	if err != nil {
		return nil, fmt.Errorf("error initializing logging: %w", err)
	}

	cfg, err := config.NewConfig(configDir, defaultConfig)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	f.Apply(cfg)
	zerolog.SetGlobalLevel(helpers.LogLevel(cfg.DebugLogging(), *f.Trace))

	if err := telemetry.Init(
		cfg.ErrorReporting(),
		cfg.TelemetryDSN(),
		config.AppVersion,
	); err != nil {
		log.Warn().Err(err).Msg("failed to initialize error reporting")
	}

	log.Info().
		Str("version", config.AppVersion).
		Str("config", cfg.Path()).
		Str("firmware", helpers.FirmwareDir(cfg.FirmwareDir())).
		Strs("ports", cfg.PortFilter()).
		Msg("updater starting")

	return cfg, nil
}

// Policy builds the session limits from config.
func Policy(cfg *config.Instance) session.Policy {
	return session.Policy{
		BaudRate:         cfg.BaudRate(),
		ReadTimeout:      cfg.ReadTimeout(),
		RequestInterval:  cfg.RequestInterval(),
		HandshakeTimeout: cfg.HandshakeTimeout(),
		TransferTimeout:  cfg.TransferTimeout(),
		MaxFailures:      cfg.MaxFailures(),
		BlocksPerPacket:  cfg.BlocksPerPacket(),
	}
}
