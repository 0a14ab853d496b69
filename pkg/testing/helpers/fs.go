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
	"path/filepath"

	"github.com/cellaxon/drone-updater/pkg/firmware"
	"github.com/cellaxon/drone-updater/pkg/protocol"
	"github.com/spf13/afero"
)

// FirmwareDir is where fixtures place firmware files by default.
const FirmwareDir = "/app/firmware"

// FSHelper provides utilities for filesystem mocking in tests
type FSHelper struct {
	Fs afero.Fs
}

// NewMemoryFS creates a new in-memory filesystem for testing
func NewMemoryFS() *FSHelper {
	return &FSHelper{
		Fs: afero.NewMemMapFs(),
	}
}

// FirmwareSpec describes a fixture firmware container.
type FirmwareSpec struct {
	Name    string
	Model   protocol.ModelNumber
	Version protocol.Version
	Blocks  int
}

// FirmwarePayload returns a deterministic payload of n blocks where every
// byte of block i equals byte(i).
func FirmwarePayload(blocks int) []byte {
	payload := make([]byte, blocks*firmware.BlockSize)
	for i := range payload {
		payload[i] = byte(i / firmware.BlockSize)
	}
	return payload
}

// CreateFirmwareFile writes a valid firmware container to dir.
func (h *FSHelper) CreateFirmwareFile(dir string, spec FirmwareSpec) error {
	hdr := firmware.Header{
		Model:   spec.Model,
		Version: spec.Version,
		Year:    2024,
		Month:   5,
		Day:     17,
	}
	return h.WriteFile(filepath.Join(dir, spec.Name), firmware.Encode(hdr, FirmwarePayload(spec.Blocks)))
}

// WriteFile writes content to path, creating parent directories.
func (h *FSHelper) WriteFile(path string, content []byte) error {
	if err := h.Fs.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := afero.WriteFile(h.Fs, path, content, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// FileExists checks if a file exists in the filesystem
func (h *FSHelper) FileExists(path string) bool {
	exists, err := afero.Exists(h.Fs, path)
	return err == nil && exists
}

// NewFirmwareStore writes each spec into FirmwareDir and loads a store
// from it.
func NewFirmwareStore(specs ...FirmwareSpec) (*firmware.Store, error) {
	h := NewMemoryFS()
	if err := h.Fs.MkdirAll(FirmwareDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create firmware dir: %w", err)
	}
	for _, spec := range specs {
		if err := h.CreateFirmwareFile(FirmwareDir, spec); err != nil {
			return nil, err
		}
	}
	return firmware.NewStore(h.Fs, FirmwareDir), nil
}
