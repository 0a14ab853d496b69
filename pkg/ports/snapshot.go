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

package ports

import (
	"github.com/cevaris/ordered_map"
)

// Snapshot is an ordered set of port names seen at the last look.
type Snapshot struct {
	names *ordered_map.OrderedMap
}

func NewSnapshot(names []string) *Snapshot {
	s := &Snapshot{}
	s.Replace(names)
	return s
}

// Replace discards the recorded set and records names instead.
func (s *Snapshot) Replace(names []string) {
	s.names = ordered_map.NewOrderedMap()
	for _, name := range names {
		s.names.Set(name, struct{}{})
	}
}

func (s *Snapshot) Contains(name string) bool {
	_, ok := s.names.Get(name)
	return ok
}

func (s *Snapshot) Len() int {
	return s.names.Len()
}

// Names returns the recorded names in insertion order.
func (s *Snapshot) Names() []string {
	out := make([]string, 0, s.names.Len())
	iter := s.names.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		name, _ := kv.Key.(string)
		out = append(out, name)
	}
	return out
}

// Fresh returns the names in current that are not recorded, in current's
// order.
func (s *Snapshot) Fresh(current []string) []string {
	var fresh []string
	for _, name := range current {
		if !s.Contains(name) {
			fresh = append(fresh, name)
		}
	}
	return fresh
}

// Advance compares current with the recorded set and returns the first
// newly appeared name. The snapshot then records current, minus any other
// new names so they are returned by later calls. Names that disappear are
// forgotten and count as new if they come back.
func (s *Snapshot) Advance(current []string) (string, bool) {
	fresh := s.Fresh(current)
	if len(fresh) == 0 {
		s.Replace(current)
		return "", false
	}

	pending := make(map[string]struct{}, len(fresh)-1)
	for _, name := range fresh[1:] {
		pending[name] = struct{}{}
	}
	recorded := make([]string, 0, len(current))
	for _, name := range current {
		if _, skip := pending[name]; !skip {
			recorded = append(recorded, name)
		}
	}
	s.Replace(recorded)

	return fresh[0], true
}
