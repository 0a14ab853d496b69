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

package ports

// Tracker follows the port set across enumerations. The snapshot only
// changes on a successful enumeration; until the first one succeeds no
// port counts as new, so devices attached before startup are never
// opened.
type Tracker struct {
	watcher  *Watcher
	snapshot *Snapshot
	known    bool
}

// NewTracker records the ports present now as the baseline.
func NewTracker(w *Watcher) *Tracker {
	t := &Tracker{watcher: w, snapshot: NewSnapshot(nil)}
	t.Refresh()
	return t
}

// Next returns the next newly attached port, if any.
func (t *Tracker) Next() (string, bool) {
	current, err := t.watcher.CurrentPorts()
	if err != nil {
		return "", false
	}
	if !t.known {
		t.snapshot.Replace(current)
		t.known = true
		return "", false
	}
	return t.snapshot.Advance(current)
}

// Refresh re-records the current port set without returning anything as
// new. On a failed enumeration the previous set is kept.
func (t *Tracker) Refresh() {
	current, err := t.watcher.CurrentPorts()
	if err != nil {
		return
	}
	t.snapshot.Replace(current)
	t.known = true
}

// Known reports whether an enumeration has succeeded yet.
func (t *Tracker) Known() bool {
	return t.known
}

// Names returns the recorded port set.
func (t *Tracker) Names() []string {
	return t.snapshot.Names()
}
