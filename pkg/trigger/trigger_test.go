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

package trigger

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestPeriodic_FiresAfterInterval(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	p := New(200*time.Millisecond, clock)

	assert.False(t, p.Fire(), "must not fire at construction")

	clock.Advance(199 * time.Millisecond)
	assert.False(t, p.Fire())

	clock.Advance(time.Millisecond)
	assert.True(t, p.Fire())
	assert.False(t, p.Fire(), "fires once per interval")
	assert.Equal(t, uint32(1), p.Count())

	clock.Advance(time.Second)
	assert.True(t, p.Fire(), "a long gap yields a single fire")
	assert.False(t, p.Fire())
	assert.Equal(t, uint32(2), p.Count())
}

func TestPeriodic_Reset(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	p := New(100*time.Millisecond, clock)

	clock.Advance(100 * time.Millisecond)
	assert.True(t, p.Fire())

	clock.Advance(90 * time.Millisecond)
	p.Reset()
	assert.Equal(t, uint32(0), p.Count())

	clock.Advance(90 * time.Millisecond)
	assert.False(t, p.Fire(), "reset restarts the interval")

	clock.Advance(10 * time.Millisecond)
	assert.True(t, p.Fire())
	assert.Equal(t, uint32(1), p.Count())
}

func TestPeriodic_NilClock(t *testing.T) {
	t.Parallel()

	p := New(time.Hour, nil)
	assert.False(t, p.Fire())
	assert.Equal(t, time.Hour, p.Interval())
}

// TestPropertyFireCount checks the count equals the number of true
// results and that consecutive fires are at least one interval apart.
func TestPropertyFireCount(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		interval := time.Duration(rapid.IntRange(1, 500).Draw(t, "interval")) * time.Millisecond
		steps := rapid.SliceOf(rapid.IntRange(0, 300)).Draw(t, "steps")

		clock := clockwork.NewFakeClock()
		p := New(interval, clock)

		var fires uint32
		lastFire := clock.Now()
		for _, ms := range steps {
			clock.Advance(time.Duration(ms) * time.Millisecond)
			if p.Fire() {
				fires++
				if clock.Now().Sub(lastFire) < interval {
					t.Fatalf("fired %v after previous fire, interval %v", clock.Now().Sub(lastFire), interval)
				}
				lastFire = clock.Now()
			}
		}

		if p.Count() != fires {
			t.Fatalf("count %d, observed %d fires", p.Count(), fires)
		}
	})
}
