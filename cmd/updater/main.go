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

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cellaxon/drone-updater/internal/telemetry"
	"github.com/cellaxon/drone-updater/pkg/cli"
	"github.com/cellaxon/drone-updater/pkg/config"
	"github.com/cellaxon/drone-updater/pkg/helpers"
	"github.com/cellaxon/drone-updater/pkg/ports"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := cli.SetupFlags(flag.CommandLine)
	exit, err := flags.Pre(os.Args[1:], os.Stdout)
	if err != nil {
		return err
	}
	if exit {
		return nil
	}

	var logWriters []io.Writer
	if *flags.LogStderr {
		logWriters = []io.Writer{os.Stderr}
	}

	cfg, err := cli.Setup(
		flags,
		helpers.ConfigDir(),
		helpers.LogDir(),
		config.BaseDefaults,
		logWriters,
	)
	if err != nil {
		return err
	}
	defer telemetry.Close()

	defer func() {
		if err := recover(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %s\n", err)
			log.Fatal().Msgf("panic: %v", err)
		}
	}()

	if *flags.List {
		return cli.List(os.Stdout, cfg, afero.NewOsFs(), ports.NewSystemWatcher(cfg.PortFilter()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	last, err := cli.Run(ctx, cfg, cli.Deps{})
	if err != nil {
		log.Error().Err(err).Msg("error running updater")
		return fmt.Errorf("error running updater: %w", err)
	}

	_, _ = fmt.Printf("%s: %s\n", config.AppTitle, last.Status)
	return nil
}
