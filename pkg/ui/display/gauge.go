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
	"fmt"

	"github.com/cellaxon/drone-updater/pkg/session"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Gauge is a horizontal bar with the percentage printed in the middle.
type Gauge struct {
	*tview.Box
	theme   Theme
	percent float64
	phase   session.Phase
}

func NewGauge(theme Theme) *Gauge {
	return &Gauge{
		Box:   tview.NewBox().SetBackgroundColor(theme.Background),
		theme: theme,
	}
}

// SetProgress clamps percent to 0..100.
func (g *Gauge) SetProgress(percent float64, phase session.Phase) *Gauge {
	switch {
	case percent < 0:
		percent = 0
	case percent > 100:
		percent = 100
	}
	g.percent = percent
	g.phase = phase
	return g
}

func (g *Gauge) Percent() float64 {
	return g.percent
}

func (g *Gauge) Label() string {
	return fmt.Sprintf("%.1f%%", g.percent)
}

func (g *Gauge) Draw(screen tcell.Screen) {
	g.DrawForSubclass(screen, g)
	x, y, width, height := g.GetInnerRect()
	if width <= 0 || height <= 0 {
		return
	}

	filled := int(float64(width) * g.percent / 100)
	fill := tcell.StyleDefault.Background(g.theme.FillColor(g.phase)).Foreground(g.theme.GaugeText)
	empty := tcell.StyleDefault.Background(g.theme.GaugeEmpty).Foreground(g.theme.GaugeText)

	label := []rune(g.Label())
	labelRow := y + height/2
	labelCol := x + (width-len(label))/2

	for row := y; row < y+height; row++ {
		for col := x; col < x+width; col++ {
			style := empty
			if col-x < filled {
				style = fill
			}
			ch := ' '
			if row == labelRow && col >= labelCol && col-labelCol < len(label) {
				ch = label[col-labelCol]
			}
			screen.SetContent(col, row, ch, nil, style)
		}
	}
}
