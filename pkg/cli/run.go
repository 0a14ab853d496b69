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

package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cellaxon/drone-updater/pkg/config"
	"github.com/cellaxon/drone-updater/pkg/firmware"
	"github.com/cellaxon/drone-updater/pkg/helpers"
	"github.com/cellaxon/drone-updater/pkg/ports"
	"github.com/cellaxon/drone-updater/pkg/serialport"
	"github.com/cellaxon/drone-updater/pkg/session"
	"github.com/cellaxon/drone-updater/pkg/ui/display"
	"github.com/gdamore/tcell/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// PollTimeout is how long each loop iteration waits for a quit key.
const PollTimeout = time.Millisecond

// Stepper is the part of a session the loop drives.
type Stepper interface {
	Step()
	Snapshot() session.Snapshot
}

// Renderer is the part of the display the loop drives.
type Renderer interface {
	Render(snap session.Snapshot)
	Poll(timeout time.Duration) bool
}

// Loop steps, renders and polls until ctx is done or a quit key is
// pressed. It returns the last snapshot rendered.
func Loop(ctx context.Context, s Stepper, r Renderer) session.Snapshot {
	var snap session.Snapshot
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("state", string(snap.State)).Msg("update loop cancelled")
			return snap
		default:
		}

		s.Step()
		snap = s.Snapshot()
		r.Render(snap)

		if r.Poll(PollTimeout) {
			log.Info().Str("state", string(snap.State)).Msg("quit requested")
			return snap
		}
	}
}

// Deps are the outside-world handles Run uses. Zero values select the real
// implementations.
type Deps struct {
	Fs      afero.Fs
	Screen  tcell.Screen
	Watcher *ports.Watcher
	Factory serialport.Factory
	Clock   clockwork.Clock
}

func (d Deps) withDefaults(cfg *config.Instance) (Deps, error) {
	if d.Fs == nil {
		d.Fs = afero.NewOsFs()
	}
	if d.Watcher == nil {
		d.Watcher = ports.NewSystemWatcher(cfg.PortFilter())
	}
	if d.Factory == nil {
		d.Factory = serialport.DefaultFactory
	}
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return d, fmt.Errorf("failed to create screen: %w", err)
		}
		d.Screen = screen
	}
	return d, nil
}

func describePort(name string) string {
	return helpers.DescribeSerialDevice(name).String()
}

// Run loads the firmware images, runs one update session on screen and
// returns when the user quits or ctx is cancelled.
func Run(ctx context.Context, cfg *config.Instance, deps Deps) (session.Snapshot, error) {
	deps, err := deps.withDefaults(cfg)
	if err != nil {
		return session.Snapshot{}, err
	}

	store := firmware.NewStore(deps.Fs, helpers.FirmwareDir(cfg.FirmwareDir()))
	sess := session.New(session.Options{
		Store:        store,
		Watcher:      deps.Watcher,
		Factory:      deps.Factory,
		Clock:        deps.Clock,
		DescribePort: describePort,
		Policy:       Policy(cfg),
	})
	defer func() {
		if err := sess.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close serial port")
		}
	}()

	disp, err := display.New(deps.Screen, display.ThemeDefault)
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("error building display: %w", err)
	}
	defer func() {
		if err := disp.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close display")
		}
	}()

	last := Loop(ctx, sess, disp)
	log.Info().
		Str("state", string(last.State)).
		Str("status", last.Status).
		Str("version", last.Version).
		Msg("updater finished")
	return last, nil
}

// List writes the loaded firmware images and the serial ports present now.
func List(w io.Writer, cfg *config.Instance, fs afero.Fs, watcher *ports.Watcher) error {
	dir := helpers.FirmwareDir(cfg.FirmwareDir())
	store := firmware.NewStore(fs, dir)

	if _, err := fmt.Fprintf(w, "Firmware (%s):\n", dir); err != nil {
		return fmt.Errorf("failed to write listing: %w", err)
	}
	if store.Count() == 0 {
		_, _ = fmt.Fprintln(w, "  none")
	}
	for _, img := range store.Images() {
		_, _ = fmt.Fprintf(w, "  %s  model=%s version=%s built=%s blocks=%d\n",
			img.Name, img.Model(), img.Version(),
			img.Header.BuildDate().Format(time.DateOnly), img.BlockCount())
	}

	_, _ = fmt.Fprintln(w, "Serial ports:")
	names, err := watcher.CurrentPorts()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		_, _ = fmt.Fprintln(w, "  none")
	}
	for _, name := range names {
		_, _ = fmt.Fprintf(w, "  %s\n", name)
	}
	return nil
}
