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

package display

import (
	"strings"
	"testing"
	"time"

	"github.com/cellaxon/drone-updater/pkg/config"
	"github.com/cellaxon/drone-updater/pkg/session"
	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestDisplay(t *testing.T, width, height int) (*Display, tcell.SimulationScreen) {
	t.Helper()

	sim := tcell.NewSimulationScreen("UTF-8")
	d, err := New(sim, ThemeDefault)
	require.NoError(t, err)
	sim.SetSize(width, height)
	t.Cleanup(func() {
		_ = d.Close()
	})
	return d, sim
}

func screenText(sim tcell.SimulationScreen) string {
	cells, width, height := sim.GetContents()
	var sb strings.Builder
	for y := range height {
		for x := range width {
			c := cells[y*width+x]
			if len(c.Runes) > 0 {
				sb.WriteRune(c.Runes[0])
			} else {
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}
	return sb.String()
}

func TestRender_Transferring(t *testing.T) {
	t.Parallel()

	d, sim := newTestDisplay(t, 60, 20)
	d.Render(session.Snapshot{
		State:    session.StateTransferring,
		Phase:    session.PhaseTransferring,
		Status:   session.TextTransferring,
		Version:  "21.3.412 -> 21.4.0",
		Progress: session.Progress{Percent: 42.25},
	})

	text := screenText(sim)
	assert.Contains(t, text, config.AppTitle)
	assert.Contains(t, text, "21.3.412 -> 21.4.0")
	assert.Contains(t, text, session.TextTransferring)
	assert.Contains(t, text, "42.2%")
	assert.Contains(t, text, HelpText)
}

func TestRender_CompleteFillsGauge(t *testing.T) {
	t.Parallel()

	d, sim := newTestDisplay(t, 40, 20)
	d.Render(session.Snapshot{
		State:  session.StateComplete,
		Phase:  session.PhaseComplete,
		Status: session.TextComplete,
	})

	assert.InDelta(t, 100.0, d.gauge.Percent(), 0.001)
	assert.Contains(t, screenText(sim), "100.0%")
}

func TestRender_FailedStatusIsRed(t *testing.T) {
	t.Parallel()

	d, sim := newTestDisplay(t, 60, 20)
	d.Render(session.Snapshot{
		State:  session.StateNoResponse,
		Phase:  session.PhaseFailed,
		Status: session.TextNoResponse,
	})

	cells, width, height := sim.GetContents()
	found := false
	for y := range height {
		for x := range width {
			c := cells[y*width+x]
			if len(c.Runes) > 0 && c.Runes[0] == 'N' {
				fg, _, _ := c.Style.Decompose()
				if fg == ThemeDefault.ErrorColor {
					found = true
				}
			}
		}
	}
	assert.True(t, found, "status text should be drawn in the error colour")
}

func TestPoll(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  tcell.Key
		r    rune
		mod  tcell.ModMask
		quit bool
	}{
		{name: "escape", key: tcell.KeyEscape, quit: true},
		{name: "ctrl-c", key: tcell.KeyCtrlC, r: 'c', mod: tcell.ModCtrl, quit: true},
		{name: "lower q", key: tcell.KeyRune, r: 'q', quit: true},
		{name: "upper q", key: tcell.KeyRune, r: 'Q', quit: true},
		{name: "other rune", key: tcell.KeyRune, r: 'x', quit: false},
		{name: "enter", key: tcell.KeyEnter, quit: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d, sim := newTestDisplay(t, 20, 10)
			sim.InjectKey(tt.key, tt.r, tt.mod)
			assert.Equal(t, tt.quit, d.Poll(time.Second))
		})
	}
}

func TestPoll_TimesOut(t *testing.T) {
	t.Parallel()

	d, _ := newTestDisplay(t, 20, 10)
	start := time.Now()
	assert.False(t, d.Poll(5*time.Millisecond))
	assert.Less(t, time.Since(start), time.Second)
}

func TestClose(t *testing.T) {
	t.Parallel()

	sim := tcell.NewSimulationScreen("UTF-8")
	d, err := New(sim, ThemeDefault)
	require.NoError(t, err)

	require.NoError(t, d.Close())
	require.ErrorIs(t, d.Close(), ErrClosed)
	assert.True(t, d.Poll(time.Millisecond))
	d.Render(session.Snapshot{})
}

func TestGauge(t *testing.T) {
	t.Parallel()

	g := NewGauge(ThemeDefault)
	assert.Equal(t, "0.0%", g.Label())

	g.SetProgress(150, session.PhaseTransferring)
	assert.InDelta(t, 100.0, g.Percent(), 0.001)

	g.SetProgress(-3, session.PhaseTransferring)
	assert.Equal(t, "0.0%", g.Label())

	g.SetProgress(66.66, session.PhaseTransferring)
	assert.Equal(t, "66.7%", g.Label())
}

func TestThemeColours(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ThemeDefault.ErrorColor, ThemeDefault.StatusColor(session.PhaseFailed))
	assert.Equal(t, ThemeDefault.SuccessColor, ThemeDefault.StatusColor(session.PhaseComplete))
	assert.Equal(t, ThemeDefault.TextColor, ThemeDefault.StatusColor(session.PhaseWaiting))
	assert.Equal(t, ThemeDefault.ErrorColor, ThemeDefault.FillColor(session.PhaseFailed))
	assert.Equal(t, ThemeDefault.GaugeFill, ThemeDefault.FillColor(session.PhaseTransferring))
}
