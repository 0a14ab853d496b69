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

package session

import "time"

// Progress is the transfer estimate shown to the operator. All fields are
// zero outside the transferring state.
type Progress struct {
	Elapsed   time.Duration
	Total     time.Duration
	Remaining time.Duration
	Percent   float64
}

// estimate projects the total transfer time from the share of blocks
// acknowledged so far.
func estimate(elapsed time.Duration, acked, total int) Progress {
	p := Progress{Elapsed: elapsed}
	if total <= 0 || acked <= 0 {
		return p
	}

	fraction := float64(acked) / float64(total)
	if fraction > 1 {
		fraction = 1
	}
	p.Percent = 100 * fraction
	p.Total = time.Duration(float64(elapsed) / fraction)
	p.Remaining = p.Total - elapsed
	return p
}
