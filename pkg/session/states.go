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

// State is the active step of an update session.
type State string

const (
	StateDiscovering         State = "discovering"
	StateNegotiatingIdentity State = "negotiating_identity"
	StateNegotiatingLocation State = "negotiating_location"
	StateTransferring        State = "transferring"
	StateComplete            State = "complete"

	StateNoFirmwareAvailable     State = "no_firmware"
	StateNoResponse              State = "no_response"
	StateNoMatchingFirmware      State = "no_matching_firmware"
	StateDeviceInApplicationMode State = "application_mode"
	StateTransferTimedOut        State = "transfer_timed_out"

	// stateStarting only exists until New has chosen the initial state.
	stateStarting State = "starting"
)

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateComplete || s.Failed()
}

// Failed reports whether s is one of the error states.
func (s State) Failed() bool {
	switch s {
	case StateNoFirmwareAvailable, StateNoResponse, StateNoMatchingFirmware,
		StateDeviceInApplicationMode, StateTransferTimedOut:
		return true
	default:
		return false
	}
}

// Phase groups states for display.
type Phase int

const (
	PhaseWaiting Phase = iota
	PhaseTransferring
	PhaseComplete
	PhaseFailed
)

func (s State) Phase() Phase {
	switch {
	case s == StateTransferring:
		return PhaseTransferring
	case s == StateComplete:
		return PhaseComplete
	case s.Failed():
		return PhaseFailed
	default:
		return PhaseWaiting
	}
}

func (p Phase) String() string {
	switch p {
	case PhaseTransferring:
		return "transferring"
	case PhaseComplete:
		return "complete"
	case PhaseFailed:
		return "failed"
	default:
		return "waiting"
	}
}

const (
	evStart            = "start"
	evNoFirmware       = "no_firmware"
	evPortOpened       = "port_opened"
	evIdentified       = "identified"
	evNoMatch          = "no_match"
	evAppMode          = "app_mode"
	evCompleted        = "completed"
	evLocated          = "located"
	evHandshakeTimeout = "handshake_timeout"
	evNoResponse       = "no_response"
	evTimedOut         = "timed_out"
)
