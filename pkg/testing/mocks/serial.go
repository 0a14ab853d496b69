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

package mocks

import (
	"errors"
	"time"

	"github.com/cellaxon/drone-updater/pkg/helpers/syncutil"
	"github.com/cellaxon/drone-updater/pkg/serialport"
	"go.bug.st/serial"
)

var ErrPortClosed = errors.New("port closed")

// MockSerialPort is an in-memory serial port. Bytes queued with Feed are
// returned by Read; bytes passed to Write are recorded.
type MockSerialPort struct {
	ReadError   error
	WriteError  error
	CloseError  error
	TimeoutErr  error
	readData    []byte
	writes      [][]byte
	ReadTimeout time.Duration
	Closed      bool
	mu          syncutil.RWMutex
}

// NewMockSerialPort creates a new mock serial port for testing.
func NewMockSerialPort() *MockSerialPort {
	return &MockSerialPort{}
}

// Feed queues data to be returned by later reads.
func (m *MockSerialPort) Feed(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readData = append(m.readData, data...)
}

// Read returns queued data, or nothing, without blocking.
func (m *MockSerialPort) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Closed {
		return 0, ErrPortClosed
	}
	if m.ReadError != nil {
		return 0, m.ReadError
	}
	n := copy(p, m.readData)
	m.readData = m.readData[n:]
	return n, nil
}

// Write records a copy of p.
func (m *MockSerialPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Closed {
		return 0, ErrPortClosed
	}
	if m.WriteError != nil {
		return 0, m.WriteError
	}
	m.writes = append(m.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (m *MockSerialPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return m.CloseError
}

func (m *MockSerialPort) SetReadTimeout(t time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadTimeout = t
	return m.TimeoutErr
}

// IsClosed returns true if the port has been closed (thread-safe).
func (m *MockSerialPort) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Closed
}

// Writes returns every recorded write in order.
func (m *MockSerialPort) Writes() [][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([][]byte(nil), m.writes...)
}

// TakeWrites returns and clears the recorded writes.
func (m *MockSerialPort) TakeWrites() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := m.writes
	m.writes = nil
	return w
}

// MockSerialFactory hands out ports by name and records every open.
type MockSerialFactory struct {
	Ports  map[string]*MockSerialPort
	Fail   map[string]error
	Opened []string
	Modes  []serial.Mode
	mu     syncutil.Mutex
}

func NewMockSerialFactory() *MockSerialFactory {
	return &MockSerialFactory{
		Ports: make(map[string]*MockSerialPort),
		Fail:  make(map[string]error),
	}
}

// Factory returns a serialport.Factory backed by f. Names without a
// registered port get a fresh mock.
func (f *MockSerialFactory) Factory() serialport.Factory {
	return func(name string, mode *serial.Mode) (serialport.Port, error) {
		f.mu.Lock()
		defer f.mu.Unlock()

		f.Opened = append(f.Opened, name)
		if mode != nil {
			f.Modes = append(f.Modes, *mode)
		}
		if err := f.Fail[name]; err != nil {
			return nil, err
		}
		port, ok := f.Ports[name]
		if !ok {
			port = NewMockSerialPort()
			f.Ports[name] = port
		}
		return port, nil
	}
}

// OpenCount is the number of open attempts for name.
func (f *MockSerialFactory) OpenCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, o := range f.Opened {
		if o == name {
			n++
		}
	}
	return n
}
