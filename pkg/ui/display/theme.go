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
	"github.com/cellaxon/drone-updater/pkg/session"
	"github.com/gdamore/tcell/v2"
)

// Theme holds the colours used by the display.
type Theme struct {
	Background    tcell.Color
	TitleColor    tcell.Color
	TextColor     tcell.Color
	LabelColor    tcell.Color
	GaugeFill     tcell.Color
	GaugeEmpty    tcell.Color
	GaugeText     tcell.Color
	ErrorColor    tcell.Color
	SuccessColor  tcell.Color
	ProgressColor tcell.Color
}

var ThemeDefault = Theme{
	Background:    tcell.ColorBlack,
	TitleColor:    tcell.ColorLightYellow,
	TextColor:     tcell.ColorWhite,
	LabelColor:    tcell.ColorGray,
	GaugeFill:     tcell.ColorGreen,
	GaugeEmpty:    tcell.ColorDarkGray,
	GaugeText:     tcell.ColorWhite,
	ErrorColor:    tcell.ColorRed,
	SuccessColor:  tcell.ColorGreen,
	ProgressColor: tcell.ColorYellow,
}

// StatusColor picks the status text colour for a phase.
func (t Theme) StatusColor(p session.Phase) tcell.Color {
	switch p {
	case session.PhaseFailed:
		return t.ErrorColor
	case session.PhaseComplete:
		return t.SuccessColor
	case session.PhaseTransferring:
		return t.ProgressColor
	default:
		return t.TextColor
	}
}

// FillColor picks the gauge fill colour for a phase.
func (t Theme) FillColor(p session.Phase) tcell.Color {
	if p == session.PhaseFailed {
		return t.ErrorColor
	}
	return t.GaugeFill
}
