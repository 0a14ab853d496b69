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

// Package trigger paces outbound requests independently of the main loop
// tick rate.
package trigger

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Periodic fires at most once per interval. It is polled, not scheduled:
// Fire reports whether the interval has elapsed since the previous fire.
type Periodic struct {
	last     time.Time
	clock    clockwork.Clock
	interval time.Duration
	count    uint32
}

// New creates a trigger whose first fire is one interval from now.
func New(interval time.Duration, clock clockwork.Clock) *Periodic {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Periodic{
		clock:    clock,
		interval: interval,
		last:     clock.Now(),
	}
}

// Fire returns true the first time it is called after the interval has
// elapsed since the previous true result, and restarts the interval.
func (p *Periodic) Fire() bool {
	now := p.clock.Now()
	if now.Sub(p.last) < p.interval {
		return false
	}
	p.last = now
	p.count++
	return true
}

// Count is the number of true results returned by Fire since the last
// Reset.
func (p *Periodic) Count() uint32 {
	return p.count
}

// Reset restarts the interval from now and zeroes the fire count.
func (p *Periodic) Reset() {
	p.last = p.clock.Now()
	p.count = 0
}

func (p *Periodic) Interval() time.Duration {
	return p.interval
}
