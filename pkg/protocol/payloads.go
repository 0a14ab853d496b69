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
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	RequestSize        = 1
	InformationSize    = 13
	UpdateLocationSize = 2
	updateHeaderSize   = 2
)

var ErrShortPayload = errors.New("payload too short")

// Request asks the addressed device to answer with the given data type.
type Request struct {
	DataType DataType
}

func (r Request) MarshalBinary() ([]byte, error) {
	return []byte{byte(r.DataType)}, nil
}

// Information is the identity and update readiness of a device.
type Information struct {
	ModeUpdate  ModeUpdate
	ModelNumber ModelNumber
	Version     Version
	Year        uint16
	Month       uint8
	Day         uint8
}

func (i Information) MarshalBinary() ([]byte, error) {
	b := make([]byte, InformationSize)
	b[0] = byte(i.ModeUpdate)
	binary.LittleEndian.PutUint32(b[1:5], uint32(i.ModelNumber))
	binary.LittleEndian.PutUint16(b[5:7], i.Version.Build)
	b[7] = i.Version.Minor
	b[8] = i.Version.Major
	binary.LittleEndian.PutUint16(b[9:11], i.Year)
	b[11] = i.Month
	b[12] = i.Day
	return b, nil
}

func (i *Information) UnmarshalBinary(b []byte) error {
	if len(b) < InformationSize {
		return fmt.Errorf("information: %w: %d bytes", ErrShortPayload, len(b))
	}
	i.ModeUpdate = ModeUpdate(b[0])
	i.ModelNumber = ModelNumber(binary.LittleEndian.Uint32(b[1:5]))
	i.Version = Version{
		Build: binary.LittleEndian.Uint16(b[5:7]),
		Minor: b[7],
		Major: b[8],
	}
	i.Year = binary.LittleEndian.Uint16(b[9:11])
	i.Month = b[11]
	i.Day = b[12]
	return nil
}

// UpdateLocation is the device's authoritative cursor: the next block it
// expects to receive.
type UpdateLocation struct {
	IndexBlockNext uint16
}

func (u UpdateLocation) MarshalBinary() ([]byte, error) {
	b := make([]byte, UpdateLocationSize)
	binary.LittleEndian.PutUint16(b, u.IndexBlockNext)
	return b, nil
}

func (u *UpdateLocation) UnmarshalBinary(b []byte) error {
	if len(b) < UpdateLocationSize {
		return fmt.Errorf("update location: %w: %d bytes", ErrShortPayload, len(b))
	}
	u.IndexBlockNext = binary.LittleEndian.Uint16(b)
	return nil
}

// Update carries a run of firmware blocks starting at IndexBlockNext.
type Update struct {
	Data           []byte
	IndexBlockNext uint16
}

func (u Update) MarshalBinary() ([]byte, error) {
	if len(u.Data)+updateHeaderSize > MaxPayload {
		return nil, fmt.Errorf("update: %w: %d data bytes", ErrFrameTooLong, len(u.Data))
	}
	b := make([]byte, updateHeaderSize+len(u.Data))
	binary.LittleEndian.PutUint16(b, u.IndexBlockNext)
	copy(b[updateHeaderSize:], u.Data)
	return b, nil
}

func (u *Update) UnmarshalBinary(b []byte) error {
	if len(b) < updateHeaderSize {
		return fmt.Errorf("update: %w: %d bytes", ErrShortPayload, len(b))
	}
	u.IndexBlockNext = binary.LittleEndian.Uint16(b)
	u.Data = append([]byte(nil), b[updateHeaderSize:]...)
	return nil
}
