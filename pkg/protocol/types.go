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

import "fmt"

// DataType identifies the payload carried by a frame.
type DataType uint8

const (
	DataTypeNone           DataType = 0x00
	DataTypePing           DataType = 0x01
	DataTypeAck            DataType = 0x02
	DataTypeError          DataType = 0x03
	DataTypeRequest        DataType = 0x04
	DataTypeMessage        DataType = 0x05
	DataTypeAddress        DataType = 0x06
	DataTypeInformation    DataType = 0x07
	DataTypeUpdate         DataType = 0x08
	DataTypeUpdateLocation DataType = 0x09
)

func (d DataType) String() string {
	switch d {
	case DataTypeNone:
		return "None"
	case DataTypePing:
		return "Ping"
	case DataTypeAck:
		return "Ack"
	case DataTypeError:
		return "Error"
	case DataTypeRequest:
		return "Request"
	case DataTypeMessage:
		return "Message"
	case DataTypeAddress:
		return "Address"
	case DataTypeInformation:
		return "Information"
	case DataTypeUpdate:
		return "Update"
	case DataTypeUpdateLocation:
		return "UpdateLocation"
	default:
		return fmt.Sprintf("DataType(0x%02X)", uint8(d))
	}
}

// DeviceType is the logical address of a node on the link.
type DeviceType uint8

const (
	DeviceNone       DeviceType = 0x00
	DeviceDrone      DeviceType = 0x10
	DeviceController DeviceType = 0x20
	DeviceLinkClient DeviceType = 0x30
	DeviceLinkServer DeviceType = 0x31
	DeviceBleClient  DeviceType = 0x32
	DeviceBleServer  DeviceType = 0x33
	DeviceBase       DeviceType = 0x70
	DeviceTester     DeviceType = 0xA0
	DeviceMonitor    DeviceType = 0xA1
	DeviceUpdater    DeviceType = 0xA2
)

func (d DeviceType) String() string {
	switch d {
	case DeviceNone:
		return "None"
	case DeviceDrone:
		return "Drone"
	case DeviceController:
		return "Controller"
	case DeviceLinkClient:
		return "LinkClient"
	case DeviceLinkServer:
		return "LinkServer"
	case DeviceBleClient:
		return "BleClient"
	case DeviceBleServer:
		return "BleServer"
	case DeviceBase:
		return "Base"
	case DeviceTester:
		return "Tester"
	case DeviceMonitor:
		return "Monitor"
	case DeviceUpdater:
		return "Updater"
	default:
		return fmt.Sprintf("DeviceType(0x%02X)", uint8(d))
	}
}

// ProbeOrder is the ordered list of addresses cycled through while the role
// of the attached device is still unknown. The primary target comes first.
var ProbeOrder = []DeviceType{
	DeviceDrone,
	DeviceController,
	DeviceLinkClient,
	DeviceLinkServer,
	DeviceBleClient,
	DeviceBleServer,
	DeviceTester,
	DeviceMonitor,
}

// ModeUpdate is the update readiness reported by a device.
type ModeUpdate uint8

const (
	ModeUpdateNone           ModeUpdate = 0x00
	ModeUpdateReady          ModeUpdate = 0x01
	ModeUpdateUpdate         ModeUpdate = 0x02
	ModeUpdateComplete       ModeUpdate = 0x03
	ModeUpdateFailed         ModeUpdate = 0x04
	ModeUpdateNotAvailable   ModeUpdate = 0x05
	ModeUpdateRunApplication ModeUpdate = 0x06
	ModeUpdateNotRegistered  ModeUpdate = 0x07
)

func (m ModeUpdate) String() string {
	switch m {
	case ModeUpdateNone:
		return "None"
	case ModeUpdateReady:
		return "Ready"
	case ModeUpdateUpdate:
		return "Update"
	case ModeUpdateComplete:
		return "Complete"
	case ModeUpdateFailed:
		return "Failed"
	case ModeUpdateNotAvailable:
		return "NotAvailable"
	case ModeUpdateRunApplication:
		return "RunApplication"
	case ModeUpdateNotRegistered:
		return "NotRegistered"
	default:
		return fmt.Sprintf("ModeUpdate(0x%02X)", uint8(m))
	}
}

// ModelNumber identifies a hardware model. Zero means no model was reported.
type ModelNumber uint32

const ModelNone ModelNumber = 0

func (m ModelNumber) String() string {
	return fmt.Sprintf("0x%08X", uint32(m))
}

// Version is a firmware version triple.
type Version struct {
	Build uint16
	Minor uint8
	Major uint8
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Build)
}
