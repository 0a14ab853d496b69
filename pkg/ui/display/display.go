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

// Package display draws the update screen: title, version transition,
// progress gauge and status line. It only reads session snapshots.
package display

import (
	"errors"
	"fmt"
	"time"

	"github.com/cellaxon/drone-updater/pkg/config"
	"github.com/cellaxon/drone-updater/pkg/session"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"golang.org/x/sync/errgroup"
)

const (
	HelpText = "Esc/q: quit"

	eventBuffer = 16
)

var ErrClosed = errors.New("display closed")

// Display renders onto a tcell screen without a tview.Application so the
// caller keeps control of the loop.
type Display struct {
	screen  tcell.Screen
	root    *tview.Flex
	title   *tview.TextView
	version *tview.TextView
	status  *tview.TextView
	help    *tview.TextView
	gauge   *Gauge
	events  chan tcell.Event
	quit    chan struct{}
	group   *errgroup.Group
	theme   Theme
	closed  bool
}

// New initialises screen and starts its event pump. The display owns the
// screen from here on.
func New(screen tcell.Screen, theme Theme) (*Display, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize screen: %w", err)
	}
	screen.HideCursor()

	d := &Display{
		screen: screen,
		theme:  theme,
		events: make(chan tcell.Event, eventBuffer),
		quit:   make(chan struct{}),
		group:  &errgroup.Group{},
	}
	d.build()

	d.group.Go(func() error {
		screen.ChannelEvents(d.events, d.quit)
		return nil
	})

	return d, nil
}

func (d *Display) text(color tcell.Color) *tview.TextView {
	tv := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetTextColor(color)
	tv.SetBackgroundColor(d.theme.Background)
	return tv
}

func (d *Display) spacer() *tview.Box {
	return tview.NewBox().SetBackgroundColor(d.theme.Background)
}

func (d *Display) build() {
	d.title = d.text(d.theme.TitleColor).SetText(config.AppTitle)
	d.version = d.text(d.theme.TextColor)
	d.status = d.text(d.theme.TextColor)
	d.help = d.text(d.theme.LabelColor).SetText(HelpText)
	d.gauge = NewGauge(d.theme)

	d.root = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(d.spacer(), 0, 20, false).
		AddItem(d.title, 0, 10, false).
		AddItem(d.version, 0, 10, false).
		AddItem(d.gauge, 0, 30, false).
		AddItem(d.spacer(), 0, 8, false).
		AddItem(d.status, 0, 12, false).
		AddItem(d.help, 0, 10, false)
	d.root.SetBackgroundColor(d.theme.Background)
}

// Render draws one frame from snap.
func (d *Display) Render(snap session.Snapshot) {
	if d.closed {
		return
	}

	d.version.SetText(snap.Version)
	d.status.SetText(snap.Status).SetTextColor(d.theme.StatusColor(snap.Phase))

	percent := snap.Progress.Percent
	if snap.Phase == session.PhaseComplete {
		percent = 100
	}
	d.gauge.SetProgress(percent, snap.Phase)

	width, height := d.screen.Size()
	d.root.SetRect(0, 0, width, height)
	d.screen.Clear()
	d.root.Draw(d.screen)
	d.screen.Show()
}

// Poll waits up to timeout for input and reports whether a quit key was
// pressed. Queued events are drained without waiting.
func (d *Display) Poll(timeout time.Duration) bool {
	if d.closed {
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ev, ok := <-d.events:
		if !ok {
			return true
		}
		if d.handle(ev) {
			return true
		}
	case <-timer.C:
		return false
	}

	for {
		select {
		case ev, ok := <-d.events:
			if !ok {
				return true
			}
			if d.handle(ev) {
				return true
			}
		default:
			return false
		}
	}
}

func (d *Display) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return IsQuitKey(ev)
	case *tcell.EventResize:
		d.screen.Sync()
	}
	return false
}

func IsQuitKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q' || ev.Rune() == 'Q'
	default:
		return false
	}
}

// Close stops the event pump and restores the terminal.
func (d *Display) Close() error {
	if d.closed {
		return ErrClosed
	}
	d.closed = true
	close(d.quit)
	err := d.group.Wait()
	d.screen.Fini()
	if err != nil {
		return fmt.Errorf("event pump: %w", err)
	}
	return nil
}
