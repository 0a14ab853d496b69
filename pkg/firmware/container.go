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
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/boguslaw-wojcik/crc32a"
	"github.com/cellaxon/drone-updater/pkg/protocol"
)

const (
	// Magic opens every firmware container.
	Magic = "DFW1"
	// HeaderSize is the fixed container header length in bytes.
	HeaderSize = 24
)

var (
	ErrBadMagic        = errors.New("not a firmware container")
	ErrShortHeader     = errors.New("firmware header truncated")
	ErrPayloadLength   = errors.New("firmware payload length mismatch")
	ErrChecksum        = errors.New("firmware payload checksum mismatch")
	ErrBlockOutOfRange = errors.New("block range outside firmware payload")
)

// ParseError reports a container that could not be loaded from Path.
type ParseError struct {
	Err  error
	Path string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse firmware %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Header is the metadata block at the front of a container.
type Header struct {
	Model         protocol.ModelNumber
	Version       protocol.Version
	Year          uint16
	Month         uint8
	Day           uint8
	PayloadLength uint32
	PayloadCRC    uint32
}

// BuildDate returns the build date recorded in the header, or the zero
// time when the header carries none.
func (h Header) BuildDate() time.Time {
	if h.Year == 0 || h.Month == 0 || h.Day == 0 {
		return time.Time{}
	}
	return time.Date(int(h.Year), time.Month(h.Month), int(h.Day), 0, 0, 0, 0, time.UTC)
}

func (h Header) marshal() []byte {
	b := make([]byte, HeaderSize)
	copy(b[0:4], Magic)
	binary.LittleEndian.PutUint32(b[4:8], uint32(h.Model))
	binary.LittleEndian.PutUint16(b[8:10], h.Version.Build)
	b[10] = h.Version.Minor
	b[11] = h.Version.Major
	binary.LittleEndian.PutUint16(b[12:14], h.Year)
	b[14] = h.Month
	b[15] = h.Day
	binary.LittleEndian.PutUint32(b[16:20], h.PayloadLength)
	binary.LittleEndian.PutUint32(b[20:24], h.PayloadCRC)
	return b
}

func parseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrShortHeader, len(b))
	}
	if string(b[0:4]) != Magic {
		return Header{}, ErrBadMagic
	}
	return Header{
		Model: protocol.ModelNumber(binary.LittleEndian.Uint32(b[4:8])),
		Version: protocol.Version{
			Build: binary.LittleEndian.Uint16(b[8:10]),
			Minor: b[10],
			Major: b[11],
		},
		Year:          binary.LittleEndian.Uint16(b[12:14]),
		Month:         b[14],
		Day:           b[15],
		PayloadLength: binary.LittleEndian.Uint32(b[16:20]),
		PayloadCRC:    binary.LittleEndian.Uint32(b[20:24]),
	}, nil
}

// Parse decodes a complete container and verifies its payload checksum.
func Parse(data []byte) (*Image, error) {
	hdr, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	payload := data[HeaderSize:]
	if uint64(len(payload)) != uint64(hdr.PayloadLength) {
		return nil, fmt.Errorf("%w: header says %d, have %d",
			ErrPayloadLength, hdr.PayloadLength, len(payload))
	}
	if sum := crc32a.Checksum(payload); sum != hdr.PayloadCRC {
		return nil, fmt.Errorf("%w: header 0x%08X, computed 0x%08X", ErrChecksum, hdr.PayloadCRC, sum)
	}

	return &Image{
		Header:  hdr,
		payload: append([]byte(nil), payload...),
	}, nil
}

// Encode builds a container around payload. PayloadLength and PayloadCRC
// in hdr are overwritten.
func Encode(hdr Header, payload []byte) []byte {
	hdr.PayloadLength = uint32(len(payload)) //nolint:gosec // firmware images are far below 4 GiB
	hdr.PayloadCRC = crc32a.Checksum(payload)
	return append(hdr.marshal(), payload...)
}
