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

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	StartCode0 byte = 0x0A
	StartCode1 byte = 0x55

	// HeaderSize covers the start code plus type, length, from and to.
	HeaderSize = 6
	crcSize    = 2
	// FrameOverhead is the number of bytes a frame adds around its payload.
	FrameOverhead = HeaderSize + crcSize
	MaxPayload    = 0xFF
)

var (
	ErrTruncated     = errors.New("frame truncated")
	ErrBadStartCode  = errors.New("bad start code")
	ErrBadCRC        = errors.New("frame crc mismatch")
	ErrFrameTooLong  = errors.New("frame payload too long")
	ErrNotDecodeable = errors.New("frame layer missing")
)

// LayerTypeFrame is the gopacket layer type of a link frame.
var LayerTypeFrame = gopacket.RegisterLayerType(
	4710,
	gopacket.LayerTypeMetadata{Name: "DroneFrame", Decoder: gopacket.DecodeFunc(decodeFrame)},
)

// Frame is the link-level envelope around every payload.
type Frame struct {
	layers.BaseLayer
	DataType DataType
	Length   uint8
	From     DeviceType
	To       DeviceType
	CRC      uint16
}

func (*Frame) LayerType() gopacket.LayerType { return LayerTypeFrame }

func (*Frame) CanDecode() gopacket.LayerClass { return LayerTypeFrame }

func (*Frame) NextLayerType() gopacket.LayerType { return gopacket.LayerTypePayload }

// DecodeFromBytes decodes a complete frame, start code through CRC.
func (f *Frame) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < FrameOverhead {
		df.SetTruncated()
		return ErrTruncated
	}
	if data[0] != StartCode0 || data[1] != StartCode1 {
		return ErrBadStartCode
	}

	f.DataType = DataType(data[2])
	f.Length = data[3]
	f.From = DeviceType(data[4])
	f.To = DeviceType(data[5])

	end := HeaderSize + int(f.Length)
	if len(data) < end+crcSize {
		df.SetTruncated()
		return ErrTruncated
	}

	f.CRC = binary.LittleEndian.Uint16(data[end : end+crcSize])
	if sum := CRC16(data[2:end]); sum != f.CRC {
		return fmt.Errorf("%w: got 0x%04X, computed 0x%04X", ErrBadCRC, f.CRC, sum)
	}

	f.BaseLayer = layers.BaseLayer{
		Contents: data[:HeaderSize],
		Payload:  data[HeaderSize:end],
	}
	return nil
}

// SerializeTo prepends the header to the already serialized payload and
// appends the CRC.
func (f *Frame) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	payloadLen := len(b.Bytes())
	if payloadLen > MaxPayload {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLong, payloadLen)
	}
	if opts.FixLengths {
		f.Length = uint8(payloadLen)
	}

	hdr, err := b.PrependBytes(HeaderSize)
	if err != nil {
		return fmt.Errorf("failed to prepend frame header: %w", err)
	}
	hdr[0] = StartCode0
	hdr[1] = StartCode1
	hdr[2] = byte(f.DataType)
	hdr[3] = f.Length
	hdr[4] = byte(f.From)
	hdr[5] = byte(f.To)

	if opts.ComputeChecksums {
		f.CRC = CRC16(b.Bytes()[2:])
	}

	trailer, err := b.AppendBytes(crcSize)
	if err != nil {
		return fmt.Errorf("failed to append frame crc: %w", err)
	}
	binary.LittleEndian.PutUint16(trailer, f.CRC)
	return nil
}

func decodeFrame(data []byte, p gopacket.PacketBuilder) error {
	f := &Frame{}
	if err := f.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(f)
	return p.NextDecoder(gopacket.LayerTypePayload)
}

// Encode builds a complete frame around payload.
func Encode(dataType DataType, from, to DeviceType, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLong, len(payload))
	}

	frame := &Frame{
		DataType: dataType,
		From:     from,
		To:       to,
	}
	opts := gopacket.SerializeOptions{
		FixLengths:       true,
		ComputeChecksums: true,
	}
	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, opts, frame, gopacket.Payload(payload)); err != nil {
		return nil, fmt.Errorf("failed to serialize frame: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeRequest builds a request frame from the base station to target.
func EncodeRequest(target DeviceType, want DataType) ([]byte, error) {
	payload, err := Request{DataType: want}.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return Encode(DataTypeRequest, DeviceBase, target, payload)
}

// EncodeUpdate builds a firmware block frame from the base station to target.
func EncodeUpdate(target DeviceType, u Update) ([]byte, error) {
	payload, err := u.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return Encode(DataTypeUpdate, DeviceBase, target, payload)
}
