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
	"time"

	"github.com/cellaxon/drone-updater/pkg/protocol"
)

// TransferCursor is the block bookkeeping of the transferring state.
type TransferCursor struct {
	LastSendAt time.Time
	// IndexNext is the next block the device asked for. It only moves when
	// the device acknowledges.
	IndexNext uint16
	// LastSent is the block index carried by the most recent update frame.
	LastSent uint16
	Total    int
	Failures int
	// Acked is false from a send until the device acknowledges it.
	Acked bool
}

func newCursor(baseline uint16, total int) TransferCursor {
	return TransferCursor{
		IndexNext: baseline,
		LastSent:  baseline,
		Total:     total,
		Acked:     true,
	}
}

func (s *Session) transfer(now time.Time) {
	if now.Sub(s.entered) > s.policy.TransferTimeout {
		s.fire(evTimedOut)
		return
	}

	// short-circuit: the trigger is only consulted while waiting for an ack
	if s.cursor.Acked || s.trigger.Fire() {
		if !s.cursor.Acked {
			s.cursor.Failures++
		}
		s.cursor.Acked = false
		s.sendBlocks(now)

		if s.cursor.Failures > s.policy.MaxFailures {
			s.log.Warn().Int("failures", s.cursor.Failures).Uint16("index", s.cursor.IndexNext).
				Msg("device stopped acknowledging")
			s.fire(evNoResponse)
			return
		}
	}

	msg, ok := s.receive()
	if !ok {
		return
	}
	switch msg.Kind { //nolint:exhaustive // only acks and completion matter here
	case protocol.KindUpdateLocation:
		if msg.UpdateLocation.IndexBlockNext != s.cursor.LastSent {
			s.cursor.Failures = 0
			s.cursor.Acked = true
			s.cursor.IndexNext = msg.UpdateLocation.IndexBlockNext
			s.location = msg.UpdateLocation
		}
	case protocol.KindInformation:
		if msg.Information.ModeUpdate == protocol.ModeUpdateComplete {
			s.fire(evCompleted)
		}
	}
}

// sendBlocks sends the blocks at the cursor. Past the end of the image
// nothing is sent, but the attempt still counts.
func (s *Session) sendBlocks(now time.Time) {
	index := s.cursor.IndexNext
	data, err := s.store.ReadBlocks(s.imageIndex, int(index), s.policy.BlocksPerPacket)
	if err != nil {
		// TODO: send the trailing block alone when an image has an odd block
		// count; today the session spins here until it reports no response.
		s.log.Debug().Err(err).Uint16("index", index).Msg("no blocks to send")
		return
	}

	frame, err := protocol.EncodeUpdate(s.target, protocol.Update{IndexBlockNext: index, Data: data})
	if err != nil {
		s.log.Error().Err(err).Msg("failed to encode update frame")
		return
	}
	s.cursor.LastSent = index
	if s.write(frame) {
		s.cursor.LastSendAt = now
	}
}
