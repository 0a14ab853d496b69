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

package protocol

import (
	"bytes"
	"errors"

	"github.com/rs/zerolog/log"
)

const (
	// maxBuffered bounds the buffer capacity kept between pushes.
	maxBuffered = 4096
	maxQueued   = 16
)

var startCode = []byte{StartCode0, StartCode1}

// Receiver assembles frames from an arbitrary byte stream. Bytes may arrive
// split or merged in any way; garbage between frames is discarded and frames
// with a bad CRC are dropped.
type Receiver struct {
	buf     []byte
	queue   []Message
	dropped int
}

func NewReceiver() *Receiver {
	return &Receiver{}
}

// Push feeds received bytes into the assembler.
func (r *Receiver) Push(data []byte) {
	r.buf = append(r.buf, data...)
	r.scan()

	// scan leaves at most one partial frame, but a large push can leave
	// a large backing array behind it
	if cap(r.buf) > maxBuffered {
		r.buf = append([]byte(nil), r.buf...)
	}
}

// Next returns the oldest decoded message, if any.
func (r *Receiver) Next() (Message, bool) {
	if len(r.queue) == 0 {
		return Message{}, false
	}
	msg := r.queue[0]
	r.queue = r.queue[1:]
	return msg, true
}

// Pending is the number of decoded messages not yet returned by Next.
func (r *Receiver) Pending() int {
	return len(r.queue)
}

// Dropped counts undecodable frames and queue overflows so far.
func (r *Receiver) Dropped() int {
	return r.dropped
}

// Clear discards buffered bytes and queued messages.
func (r *Receiver) Clear() {
	r.buf = nil
	r.queue = nil
}

func (r *Receiver) scan() {
	for {
		i := bytes.Index(r.buf, startCode)
		if i < 0 {
			// keep a trailing first start byte, the second may still arrive
			if n := len(r.buf); n > 0 && r.buf[n-1] == StartCode0 {
				r.buf = r.buf[n-1:]
			} else {
				r.buf = r.buf[:0]
			}
			return
		}
		r.buf = r.buf[i:]

		if len(r.buf) < HeaderSize {
			return
		}
		total := FrameOverhead + int(r.buf[3])
		if len(r.buf) < total {
			return
		}

		msg, err := Decode(r.buf[:total])
		if err != nil {
			r.dropped++
			if errors.Is(err, ErrBadCRC) {
				log.Trace().Err(err).Hex("frame", r.buf[:total]).Msg("dropping frame")
			}
			// resync from the byte after this start code
			r.buf = r.buf[len(startCode):]
			continue
		}
		r.buf = append([]byte(nil), r.buf[total:]...)

		if msg.Kind == KindNone {
			continue
		}
		if len(r.queue) >= maxQueued {
			r.queue = r.queue[1:]
			r.dropped++
		}
		r.queue = append(r.queue, msg)
	}
}
