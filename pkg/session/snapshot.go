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

import (
	"github.com/cellaxon/drone-updater/pkg/protocol"
)

// Snapshot is a consistent copy of everything the display shows.
type Snapshot struct {
	State    State
	Phase    Phase
	Status   string
	Version  string
	Port     string
	Session  string
	Progress Progress
	Device   protocol.Information
	Target   protocol.DeviceType
	Failures int
}

// Snapshot copies the display-facing state. Take it once per loop
// iteration, after Step.
func (s *Session) Snapshot() Snapshot {
	st := s.State()
	return Snapshot{
		State:    st,
		Phase:    st.Phase(),
		Status:   s.status,
		Version:  s.version,
		Port:     s.portName,
		Session:  s.id,
		Progress: s.Progress(),
		Device:   s.device,
		Target:   s.target,
		Failures: s.cursor.Failures,
	}
}

// Status is the human readable phase description.
func (s *Session) Status() string {
	return s.status
}

// VersionText is "from -> to" once an image has been selected.
func (s *Session) VersionText() string {
	return s.version
}

// Progress estimates the transfer. It is zero outside StateTransferring.
func (s *Session) Progress() Progress {
	if s.State() != StateTransferring {
		return Progress{}
	}
	return estimate(s.clock.Since(s.entered), int(s.cursor.IndexNext), s.cursor.Total)
}

// Cursor returns a copy of the transfer bookkeeping.
func (s *Session) Cursor() TransferCursor {
	return s.cursor
}

// SelectedImage returns the store index of the selected image.
func (s *Session) SelectedImage() (int, bool) {
	return s.imageIndex, s.imageIndex >= 0
}
