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

// Package ports answers which serial ports exist and tracks which of them
// are new since the last look.
package ports

import (
	"fmt"

	"github.com/cellaxon/drone-updater/pkg/helpers"
	"github.com/rs/zerolog/log"
)

// Lister enumerates the serial ports present right now.
type Lister func() ([]string, error)

// Watcher is a stateless view over a Lister.
type Watcher struct {
	list Lister
}

func NewWatcher(list Lister) *Watcher {
	return &Watcher{list: list}
}

// NewSystemWatcher lists OS serial ports whose names start with one of
// prefixes, or every port when prefixes is empty.
func NewSystemWatcher(prefixes []string) *Watcher {
	return NewWatcher(func() ([]string, error) {
		return helpers.GetSerialDeviceList(prefixes)
	})
}

// CurrentPorts returns the port names that exist now, in enumeration order.
// A failed enumeration says nothing about which ports exist, so callers
// must not mistake it for an empty set.
func (w *Watcher) CurrentPorts() ([]string, error) {
	names, err := w.list()
	if err != nil {
		log.Debug().Err(err).Msg("port enumeration failed")
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	return names, nil
}
