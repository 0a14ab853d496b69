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

// Policy holds the timing and retry limits of an update session.
type Policy struct {
	BaudRate         int
	ReadTimeout      time.Duration
	RequestInterval  time.Duration
	HandshakeTimeout time.Duration
	TransferTimeout  time.Duration
	MaxFailures      int
	BlocksPerPacket  int
}

const (
	DefaultBaudRate         = 57600
	DefaultReadTimeout      = time.Millisecond
	DefaultRequestInterval  = 200 * time.Millisecond
	DefaultHandshakeTimeout = 1200 * time.Millisecond
	DefaultTransferTimeout  = 300 * time.Second
	DefaultMaxFailures      = 30
	DefaultBlocksPerPacket  = 2
)

func DefaultPolicy() Policy {
	return Policy{
		BaudRate:         DefaultBaudRate,
		ReadTimeout:      DefaultReadTimeout,
		RequestInterval:  DefaultRequestInterval,
		HandshakeTimeout: DefaultHandshakeTimeout,
		TransferTimeout:  DefaultTransferTimeout,
		MaxFailures:      DefaultMaxFailures,
		BlocksPerPacket:  DefaultBlocksPerPacket,
	}
}
