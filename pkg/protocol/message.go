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
	"fmt"

	"github.com/google/gopacket"
)

// Kind tags what a decoded message carries.
type Kind int

const (
	KindNone Kind = iota
	KindInformation
	KindUpdateLocation
)

func (k Kind) String() string {
	switch k {
	case KindInformation:
		return "information"
	case KindUpdateLocation:
		return "update_location"
	default:
		return "none"
	}
}

// Header is the addressing part of a received frame.
type Header struct {
	DataType DataType
	Length   uint8
	From     DeviceType
	To       DeviceType
}

// Message is a fully decoded frame. Only the field matching Kind is set.
type Message struct {
	Header         Header
	Kind           Kind
	Information    Information
	UpdateLocation UpdateLocation
}

// Decode parses one complete frame. Frames with data types this package
// does not interpret decode successfully as KindNone.
func Decode(frame []byte) (Message, error) {
	packet := gopacket.NewPacket(frame, LayerTypeFrame, gopacket.NoCopy)
	if errLayer := packet.ErrorLayer(); errLayer != nil {
		return Message{}, fmt.Errorf("failed to decode frame: %w", errLayer.Error())
	}

	layer := packet.Layer(LayerTypeFrame)
	if layer == nil {
		return Message{}, ErrNotDecodeable
	}
	f, ok := layer.(*Frame)
	if !ok {
		return Message{}, ErrNotDecodeable
	}

	msg := Message{
		Header: Header{
			DataType: f.DataType,
			Length:   f.Length,
			From:     f.From,
			To:       f.To,
		},
	}

	switch f.DataType {
	case DataTypeInformation:
		if err := msg.Information.UnmarshalBinary(f.LayerPayload()); err != nil {
			return Message{}, err
		}
		msg.Kind = KindInformation
	case DataTypeUpdateLocation:
		if err := msg.UpdateLocation.UnmarshalBinary(f.LayerPayload()); err != nil {
			return Message{}, err
		}
		msg.Kind = KindUpdateLocation
	default:
		msg.Kind = KindNone
	}

	return msg, nil
}
