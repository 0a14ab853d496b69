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
	"fmt"

	"github.com/cellaxon/drone-updater/pkg/protocol"
)

const (
	TextNoFirmware      = "No Firmware File"
	TextComplete        = "Update Complete"
	TextNoMatch         = "Can't find matched firmware file"
	TextApplicationMode = "Reconnect with bootloader mode"
	TextNoResponse      = "No response from device"
	TextTimedOut        = "Update time over"
	TextDiscovering     = "Connect a device in bootloader mode"
	TextIdentifying     = "Checking device"
	TextLocating        = "Preparing update"
	TextTransferring    = "Updating"
)

func statusText(s State) string {
	switch s {
	case StateNoFirmwareAvailable:
		return TextNoFirmware
	case StateComplete:
		return TextComplete
	case StateNoMatchingFirmware:
		return TextNoMatch
	case StateDeviceInApplicationMode:
		return TextApplicationMode
	case StateNoResponse:
		return TextNoResponse
	case StateTransferTimedOut:
		return TextTimedOut
	case StateDiscovering:
		return TextDiscovering
	case StateNegotiatingIdentity:
		return TextIdentifying
	case StateNegotiatingLocation:
		return TextLocating
	case StateTransferring:
		return TextTransferring
	default:
		return ""
	}
}

// versionText describes the transition from the running version to the
// image version, e.g. "21.3.412 -> 21.4.0".
func versionText(from, to protocol.Version) string {
	return fmt.Sprintf("%s -> %s", from, to)
}
