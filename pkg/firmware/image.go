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

package firmware

import (
	"fmt"

	"github.com/cellaxon/drone-updater/pkg/protocol"
)

// BlockSize is the transfer unit in bytes.
const BlockSize = 16

// Image is a parsed firmware container. It is immutable once loaded.
type Image struct {
	Name    string
	payload []byte
	Header  Header
}

func (i *Image) Model() protocol.ModelNumber {
	return i.Header.Model
}

func (i *Image) Version() protocol.Version {
	return i.Header.Version
}

// PayloadLen is the payload size in bytes.
func (i *Image) PayloadLen() int {
	return len(i.payload)
}

// BlockCount is the number of whole blocks in the payload. A trailing
// partial block is not addressable.
func (i *Image) BlockCount() int {
	return len(i.payload) / BlockSize
}

// ReadBlocks returns count blocks starting at block index start. The
// returned slice aliases the image and must not be modified.
func (i *Image) ReadBlocks(start, count int) ([]byte, error) {
	if start < 0 || count <= 0 {
		return nil, fmt.Errorf("%w: start %d count %d", ErrBlockOutOfRange, start, count)
	}
	from := start * BlockSize
	to := (start + count) * BlockSize
	if to > len(i.payload) {
		return nil, fmt.Errorf("%w: blocks %d..%d of %d", ErrBlockOutOfRange, start, start+count, i.BlockCount())
	}
	return i.payload[from:to], nil
}
