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

package helpers

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// SerialDevice is a port name plus whatever USB identity the OS reports.
type SerialDevice struct {
	Name         string
	VID          string
	PID          string
	SerialNumber string
	Product      string
	IsUSB        bool
}

func (d SerialDevice) String() string {
	if !d.IsUSB {
		return d.Name
	}
	return fmt.Sprintf("%s (%s:%s %s)", d.Name, d.VID, d.PID, d.Product)
}

// MatchesPortFilter reports whether name starts with any of the prefixes.
// An empty filter matches every name.
func MatchesPortFilter(name string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// GetSerialDeviceList returns the names of the serial ports that exist right
// now, in OS enumeration order, limited to the given name prefixes.
func GetSerialDeviceList(prefixes []string) ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to get serial ports list: %w", err)
	}

	devices := make([]string, 0, len(ports))
	for _, v := range ports {
		if !MatchesPortFilter(v, prefixes) {
			continue
		}
		devices = append(devices, v)
	}
	return devices, nil
}

// GetSerialDeviceDetails returns the USB details of every port, limited to
// the given name prefixes.
func GetSerialDeviceDetails(prefixes []string) ([]SerialDevice, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to get detailed serial ports list: %w", err)
	}

	devices := make([]SerialDevice, 0, len(ports))
	for _, p := range ports {
		if !MatchesPortFilter(p.Name, prefixes) {
			continue
		}
		devices = append(devices, SerialDevice{
			Name:         p.Name,
			IsUSB:        p.IsUSB,
			VID:          strings.ToLower(p.VID),
			PID:          strings.ToLower(p.PID),
			SerialNumber: p.SerialNumber,
			Product:      p.Product,
		})
	}
	return devices, nil
}

// DescribeSerialDevice looks up a single port's details. Lookup failures
// fall back to the bare name.
func DescribeSerialDevice(name string) SerialDevice {
	devices, err := GetSerialDeviceDetails([]string{name})
	if err != nil {
		log.Debug().Err(err).Str("port", name).Msg("serial port details unavailable")
		return SerialDevice{Name: name}
	}
	for _, d := range devices {
		if d.Name == name {
			return d
		}
	}
	return SerialDevice{Name: name}
}
