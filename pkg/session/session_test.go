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

package session

import (
	"errors"
	"testing"
	"time"

	"github.com/cellaxon/drone-updater/pkg/firmware"
	"github.com/cellaxon/drone-updater/pkg/ports"
	"github.com/cellaxon/drone-updater/pkg/protocol"
	"github.com/cellaxon/drone-updater/pkg/testing/helpers"
	"github.com/cellaxon/drone-updater/pkg/testing/mocks"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	modelDrone      protocol.ModelNumber = 0x00031001
	modelController protocol.ModelNumber = 0x00032001
	testPort                             = "/dev/ttyACM0"
)

type harness struct {
	clock   *clockwork.FakeClock
	factory *mocks.MockSerialFactory
	store   *firmware.Store
	s       *Session
	listErr error
	ports   []string
}

func droneImage(blocks int) helpers.FirmwareSpec {
	return helpers.FirmwareSpec{
		Name:    "drone.dfw",
		Model:   modelDrone,
		Version: protocol.Version{Major: 21, Minor: 4, Build: 0},
		Blocks:  blocks,
	}
}

func newHarness(t *testing.T, specs ...helpers.FirmwareSpec) *harness {
	t.Helper()
	return newHarnessWithPorts(t, []string{"/dev/ttyS0"}, nil, specs...)
}

// newHarnessWithPorts starts a session with initial attached and listErr
// returned by the first enumeration.
func newHarnessWithPorts(
	t *testing.T,
	initial []string,
	listErr error,
	specs ...helpers.FirmwareSpec,
) *harness {
	t.Helper()

	store, err := helpers.NewFirmwareStore(specs...)
	require.NoError(t, err)

	h := &harness{
		clock:   clockwork.NewFakeClock(),
		factory: mocks.NewMockSerialFactory(),
		store:   store,
		ports:   initial,
		listErr: listErr,
	}
	watcher := ports.NewWatcher(func() ([]string, error) {
		if h.listErr != nil {
			return nil, h.listErr
		}
		return append([]string(nil), h.ports...), nil
	})
	h.s = New(Options{
		Store:   store,
		Watcher: watcher,
		Factory: h.factory.Factory(),
		Clock:   h.clock,
		Policy:  DefaultPolicy(),
	})
	return h
}

func (h *harness) attach(t *testing.T, name string) *mocks.MockSerialPort {
	t.Helper()
	h.ports = append(h.ports, name)
	h.s.Step()
	require.Equal(t, StateNegotiatingIdentity, h.s.State())
	port, ok := h.factory.Ports[name]
	require.True(t, ok)
	return port
}

func (h *harness) detach(name string) {
	kept := h.ports[:0]
	for _, p := range h.ports {
		if p != name {
			kept = append(kept, p)
		}
	}
	h.ports = kept
}

func frame(t *testing.T, dataType protocol.DataType, payload []byte) []byte {
	t.Helper()
	f, err := protocol.Encode(dataType, protocol.DeviceDrone, protocol.DeviceBase, payload)
	require.NoError(t, err)
	return f
}

func infoFrame(t *testing.T, model protocol.ModelNumber, mode protocol.ModeUpdate) []byte {
	t.Helper()
	payload, err := protocol.Information{
		ModeUpdate:  mode,
		ModelNumber: model,
		Version:     protocol.Version{Major: 21, Minor: 3, Build: 412},
	}.MarshalBinary()
	require.NoError(t, err)
	return frame(t, protocol.DataTypeInformation, payload)
}

func locationFrame(t *testing.T, index uint16) []byte {
	t.Helper()
	payload, err := protocol.UpdateLocation{IndexBlockNext: index}.MarshalBinary()
	require.NoError(t, err)
	return frame(t, protocol.DataTypeUpdateLocation, payload)
}

// decodeUpdate parses an update frame written by the session.
func decodeUpdate(t *testing.T, raw []byte) (protocol.Header, protocol.Update) {
	t.Helper()
	msg, err := protocol.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, protocol.DataTypeUpdate, msg.Header.DataType)
	var u protocol.Update
	require.NoError(t, u.UnmarshalBinary(raw[protocol.HeaderSize:len(raw)-2]))
	return msg.Header, u
}

// toTransferring walks a fresh harness into StateTransferring with the
// device reporting baseline as its next block.
func (h *harness) toTransferring(t *testing.T, baseline uint16) *mocks.MockSerialPort {
	t.Helper()
	port := h.attach(t, testPort)

	port.Feed(infoFrame(t, modelDrone, protocol.ModeUpdateReady))
	h.s.Step()
	require.Equal(t, StateNegotiatingLocation, h.s.State())

	port.Feed(locationFrame(t, baseline))
	h.s.Step()
	require.Equal(t, StateTransferring, h.s.State())
	port.TakeWrites()
	return port
}

func TestNew_NoFirmwareIsPermanent(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	assert.Equal(t, StateNoFirmwareAvailable, h.s.State())
	assert.Equal(t, "No Firmware File", h.s.Status())

	h.ports = append(h.ports, testPort)
	for range 5 {
		h.clock.Advance(time.Second)
		h.s.Step()
	}
	assert.Equal(t, StateNoFirmwareAvailable, h.s.State())
	assert.Empty(t, h.factory.Opened, "no port is opened without firmware")
}

func TestNew_StartsDiscovering(t *testing.T) {
	t.Parallel()

	h := newHarness(t, droneImage(4))
	assert.Equal(t, StateDiscovering, h.s.State())
	assert.Equal(t, PhaseWaiting, h.s.Snapshot().Phase)

	h.s.Step()
	assert.Empty(t, h.factory.Opened, "ports present at startup are not opened")
}

func TestDiscover_OpensNewPort(t *testing.T) {
	t.Parallel()

	h := newHarness(t, droneImage(4))
	port := h.attach(t, testPort)

	require.Len(t, h.factory.Modes, 1)
	assert.Equal(t, DefaultBaudRate, h.factory.Modes[0].BaudRate)
	assert.Equal(t, DefaultReadTimeout, port.ReadTimeout)
	assert.Equal(t, testPort, h.s.Snapshot().Port)
}

func TestDiscover_FailedOpenNotRetriedUntilReattached(t *testing.T) {
	t.Parallel()

	h := newHarness(t, droneImage(4))
	h.factory.Fail[testPort] = errors.New("permission denied")
	h.ports = append(h.ports, testPort)

	for range 3 {
		h.s.Step()
	}
	assert.Equal(t, StateDiscovering, h.s.State())
	assert.Equal(t, 1, h.factory.OpenCount(testPort))

	h.detach(testPort)
	h.s.Step()
	h.ports = append(h.ports, testPort)
	h.s.Step()
	assert.Equal(t, 2, h.factory.OpenCount(testPort))
}

var errEnumeration = errors.New("enumeration failed")

func TestDiscover_FailedEnumerationKeepsKnownPorts(t *testing.T) {
	t.Parallel()

	h := newHarnessWithPorts(t, []string{"/dev/ttyS0", "/dev/modem"}, nil, droneImage(4))

	h.listErr = errEnumeration
	h.s.Step()
	h.listErr = nil
	h.s.Step()
	h.s.Step()

	assert.Equal(t, StateDiscovering, h.s.State())
	assert.Empty(t, h.factory.Opened, "ports attached before the failure are not new")

	h.ports = append(h.ports, testPort)
	h.s.Step()
	assert.Equal(t, StateNegotiatingIdentity, h.s.State())
	assert.Equal(t, []string{testPort}, h.factory.Opened)
}

func TestDiscover_StartupEnumerationFailure(t *testing.T) {
	t.Parallel()

	h := newHarnessWithPorts(t, []string{"/dev/ttyS0", "/dev/modem"}, errEnumeration, droneImage(4))

	h.s.Step()
	h.listErr = nil
	h.s.Step()
	h.s.Step()
	assert.Equal(t, StateDiscovering, h.s.State())
	assert.Empty(t, h.factory.Opened, "first good enumeration is the baseline")

	h.ports = append(h.ports, testPort)
	h.s.Step()
	assert.Equal(t, []string{testPort}, h.factory.Opened)
}

func TestIdentify_TimeoutDuringEnumerationFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t, droneImage(4))
	h.attach(t, testPort)

	h.listErr = errEnumeration
	h.clock.Advance(DefaultHandshakeTimeout + time.Millisecond)
	h.s.Step()
	require.Equal(t, StateDiscovering, h.s.State())

	h.listErr = nil
	h.s.Step()
	assert.Equal(t, 1, h.factory.OpenCount(testPort), "abandoned port stays known")
	assert.Equal(t, 0, h.factory.OpenCount("/dev/ttyS0"))
}

func TestDiscover_SimultaneousPortsTriedInOrder(t *testing.T) {
	t.Parallel()

	h := newHarness(t, droneImage(4))
	h.factory.Fail["/dev/ttyACM1"] = errors.New("busy")
	h.ports = append(h.ports, "/dev/ttyACM1", "/dev/ttyACM2")

	h.s.Step()
	assert.Equal(t, []string{"/dev/ttyACM1"}, h.factory.Opened)
	assert.Equal(t, StateDiscovering, h.s.State())

	h.s.Step()
	assert.Equal(t, []string{"/dev/ttyACM1", "/dev/ttyACM2"}, h.factory.Opened)
	assert.Equal(t, StateNegotiatingIdentity, h.s.State())
}

func TestIdentify_ProbesRoundRobin(t *testing.T) {
	t.Parallel()

	h := newHarness(t, droneImage(4))
	port := h.attach(t, testPort)

	h.s.Step()
	assert.Empty(t, port.Writes(), "no request before the first interval")

	var targets []protocol.DeviceType
	for range 3 {
		h.clock.Advance(DefaultRequestInterval)
		h.s.Step()
	}
	for _, w := range port.Writes() {
		msg, err := protocol.Decode(w)
		require.NoError(t, err)
		assert.Equal(t, protocol.DataTypeRequest, msg.Header.DataType)
		assert.Equal(t, protocol.DeviceBase, msg.Header.From)
		targets = append(targets, msg.Header.To)
	}
	assert.Equal(t, []protocol.DeviceType{
		protocol.DeviceController, protocol.DeviceLinkClient, protocol.DeviceLinkServer,
	}, targets)
}

func TestIdentify_ModeTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		model      protocol.ModelNumber
		mode       protocol.ModeUpdate
		wantState  State
		wantStatus string
	}{
		{
			name: "ready with matching image", model: modelDrone, mode: protocol.ModeUpdateReady,
			wantState: StateNegotiatingLocation, wantStatus: TextLocating,
		},
		{
			name: "update with matching image", model: modelDrone, mode: protocol.ModeUpdateUpdate,
			wantState: StateNegotiatingLocation, wantStatus: TextLocating,
		},
		{
			name: "no matching image", model: modelController, mode: protocol.ModeUpdateReady,
			wantState: StateNoMatchingFirmware, wantStatus: "Can't find matched firmware file",
		},
		{
			name: "already complete", model: modelDrone, mode: protocol.ModeUpdateComplete,
			wantState: StateComplete, wantStatus: "Update Complete",
		},
		{
			name: "running application", model: modelDrone, mode: protocol.ModeUpdateRunApplication,
			wantState: StateDeviceInApplicationMode, wantStatus: "Reconnect with bootloader mode",
		},
		{
			name: "model none ignored", model: protocol.ModelNone, mode: protocol.ModeUpdateReady,
			wantState: StateNegotiatingIdentity, wantStatus: TextIdentifying,
		},
		{
			name: "failed mode keeps waiting", model: modelDrone, mode: protocol.ModeUpdateFailed,
			wantState: StateNegotiatingIdentity, wantStatus: TextIdentifying,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t, droneImage(4))
			port := h.attach(t, testPort)
			port.Feed(infoFrame(t, tt.model, tt.mode))
			h.s.Step()

			assert.Equal(t, tt.wantState, h.s.State())
			assert.Equal(t, tt.wantStatus, h.s.Status())
		})
	}
}

func TestIdentify_NoMatchSelectsNothing(t *testing.T) {
	t.Parallel()

	h := newHarness(t, droneImage(4))
	port := h.attach(t, testPort)
	port.Feed(infoFrame(t, modelController, protocol.ModeUpdateReady))
	h.s.Step()

	require.Equal(t, StateNoMatchingFirmware, h.s.State())
	_, selected := h.s.SelectedImage()
	assert.False(t, selected)
	assert.Empty(t, h.s.VersionText())

	h.clock.Advance(time.Minute)
	h.s.Step()
	assert.Equal(t, StateNoMatchingFirmware, h.s.State(), "error states are terminal")
}

func TestIdentify_SelectsImageAndTarget(t *testing.T) {
	t.Parallel()

	h := newHarness(t,
		helpers.FirmwareSpec{Name: "a_controller.dfw", Model: modelController, Blocks: 2},
		droneImage(4),
	)
	port := h.attach(t, testPort)
	port.Feed(infoFrame(t, modelDrone, protocol.ModeUpdateReady))
	h.s.Step()

	idx, ok := h.s.SelectedImage()
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "21.3.412 -> 21.4.0", h.s.VersionText())
	assert.Equal(t, protocol.DeviceDrone, h.s.Snapshot().Target)

	h.clock.Advance(DefaultRequestInterval)
	h.s.Step()
	writes := port.Writes()
	require.NotEmpty(t, writes)
	msg, err := protocol.Decode(writes[len(writes)-1])
	require.NoError(t, err)
	assert.Equal(t, protocol.DeviceDrone, msg.Header.To, "location request goes to the device that answered")
}

func TestIdentify_HandshakeTimeout(t *testing.T) {
	t.Parallel()

	h := newHarness(t, droneImage(4))
	port := h.attach(t, testPort)

	h.clock.Advance(DefaultHandshakeTimeout)
	h.s.Step()
	assert.Equal(t, StateNegotiatingIdentity, h.s.State(), "exactly the timeout is not yet exceeded")

	h.clock.Advance(time.Millisecond)
	h.s.Step()
	assert.Equal(t, StateDiscovering, h.s.State())
	assert.True(t, port.IsClosed())
	assert.Empty(t, h.s.Snapshot().Port)

	h.s.Step()
	assert.Equal(t, 1, h.factory.OpenCount(testPort), "refreshed snapshot holds the abandoned port")

	h.detach(testPort)
	h.s.Step()
	h.ports = append(h.ports, testPort)
	h.s.Step()
	assert.Equal(t, 2, h.factory.OpenCount(testPort))
}

func TestLocate_TimeoutReturnsToDiscovering(t *testing.T) {
	t.Parallel()

	h := newHarness(t, droneImage(4))
	port := h.attach(t, testPort)
	port.Feed(infoFrame(t, modelDrone, protocol.ModeUpdateReady))
	h.s.Step()
	require.Equal(t, StateNegotiatingLocation, h.s.State())

	h.clock.Advance(DefaultHandshakeTimeout + time.Millisecond)
	h.s.Step()
	assert.Equal(t, StateDiscovering, h.s.State())
	assert.Empty(t, h.s.VersionText(), "device state is discarded with the session")
}

func TestTransfer_HappyPath(t *testing.T) {
	t.Parallel()

	h := newHarness(t, droneImage(4))
	port := h.toTransferring(t, 0)
	assert.Equal(t, PhaseTransferring, h.s.Snapshot().Phase)

	h.s.Step()
	writes := port.TakeWrites()
	require.Len(t, writes, 1)
	hdr, u := decodeUpdate(t, writes[0])
	assert.Equal(t, protocol.DeviceDrone, hdr.To)
	assert.Equal(t, uint16(0), u.IndexBlockNext)
	assert.Equal(t, helpers.FirmwarePayload(4)[:2*firmware.BlockSize], u.Data)

	port.Feed(locationFrame(t, 2))
	h.s.Step()
	assert.Empty(t, port.TakeWrites(), "no resend while waiting for the ack")
	assert.Equal(t, uint16(2), h.s.Cursor().IndexNext)
	assert.InDelta(t, 50.0, h.s.Progress().Percent, 0.001)

	h.s.Step()
	writes = port.TakeWrites()
	require.Len(t, writes, 1)
	_, u = decodeUpdate(t, writes[0])
	assert.Equal(t, uint16(2), u.IndexBlockNext)

	port.Feed(locationFrame(t, 4))
	h.s.Step()
	assert.InDelta(t, 100.0, h.s.Progress().Percent, 0.001)

	port.Feed(infoFrame(t, modelDrone, protocol.ModeUpdateComplete))
	h.s.Step()
	assert.Equal(t, StateComplete, h.s.State())
	assert.Equal(t, "Update Complete", h.s.Status())
	assert.Equal(t, Progress{}, h.s.Progress())
}

func TestTransfer_CompletePushEndsTransferEarly(t *testing.T) {
	t.Parallel()

	h := newHarness(t, droneImage(8))
	port := h.toTransferring(t, 0)
	h.s.Step()

	port.Feed(infoFrame(t, modelDrone, protocol.ModeUpdateComplete))
	h.s.Step()
	assert.Equal(t, StateComplete, h.s.State())
}

func TestTransfer_FailureCounter(t *testing.T) {
	t.Parallel()

	h := newHarness(t, droneImage(8))
	port := h.toTransferring(t, 0)

	h.s.Step()
	assert.Equal(t, 0, h.s.Cursor().Failures, "the first send follows an acknowledged state")

	for i := 1; i <= 5; i++ {
		h.clock.Advance(DefaultRequestInterval)
		h.s.Step()
		assert.Equal(t, i, h.s.Cursor().Failures)
	}
	assert.Len(t, port.TakeWrites(), 6, "each trigger fire resends")

	port.Feed(locationFrame(t, 0))
	h.s.Step()
	assert.Equal(t, 5, h.s.Cursor().Failures, "an unchanged index is not an ack")

	port.Feed(locationFrame(t, 2))
	h.s.Step()
	assert.Equal(t, 0, h.s.Cursor().Failures)
	assert.True(t, h.s.Cursor().Acked)
}

func TestTransfer_NoResponseAfterFailureBudget(t *testing.T) {
	t.Parallel()

	h := newHarness(t, droneImage(8))
	port := h.toTransferring(t, 0)
	h.s.Step()

	for range DefaultMaxFailures {
		h.clock.Advance(DefaultRequestInterval)
		h.s.Step()
	}
	require.Equal(t, StateTransferring, h.s.State())
	assert.Equal(t, DefaultMaxFailures, h.s.Cursor().Failures)

	// an ack already waiting on the wire does not save the 31st failure
	port.Feed(locationFrame(t, 2))
	h.clock.Advance(DefaultRequestInterval)
	h.s.Step()
	assert.Equal(t, StateNoResponse, h.s.State())
	assert.Equal(t, TextNoResponse, h.s.Status())

	h.s.Step()
	assert.Equal(t, StateNoResponse, h.s.State())
}

func TestTransfer_OutOfRangeReadStillCountsFailures(t *testing.T) {
	t.Parallel()

	// three blocks: a pair starting at block 2 runs past the end
	h := newHarness(t, droneImage(3))
	port := h.toTransferring(t, 2)

	h.s.Step()
	for range DefaultMaxFailures + 1 {
		h.clock.Advance(DefaultRequestInterval)
		h.s.Step()
	}
	assert.Empty(t, port.Writes(), "nothing is sent past the end")
	assert.Equal(t, StateNoResponse, h.s.State())
}

func TestTransfer_Timeout(t *testing.T) {
	t.Parallel()

	h := newHarness(t, droneImage(8))
	port := h.toTransferring(t, 0)
	h.s.Step()

	h.clock.Advance(DefaultTransferTimeout)
	port.Feed(locationFrame(t, 2))
	h.s.Step()
	require.Equal(t, StateTransferring, h.s.State())

	h.clock.Advance(time.Millisecond)
	port.Feed(infoFrame(t, modelDrone, protocol.ModeUpdateComplete))
	h.s.Step()
	assert.Equal(t, StateTransferTimedOut, h.s.State(), "the overall timeout wins")
	assert.Equal(t, TextTimedOut, h.s.Status())
}

func TestProgress(t *testing.T) {
	t.Parallel()

	h := newHarness(t, droneImage(8))
	assert.Equal(t, Progress{}, h.s.Progress(), "zero outside transferring")

	port := h.toTransferring(t, 0)
	p := h.s.Progress()
	assert.Zero(t, p.Percent)
	assert.Zero(t, p.Total)

	h.s.Step()
	h.clock.Advance(10 * time.Second)
	port.Feed(locationFrame(t, 2))
	h.s.Step()

	p = h.s.Progress()
	assert.InDelta(t, 25.0, p.Percent, 0.001)
	assert.Equal(t, 10*time.Second, p.Elapsed)
	assert.Equal(t, 40*time.Second, p.Total)
	assert.Equal(t, 30*time.Second, p.Remaining)
}

func TestEstimate_GuardsZeroTotal(t *testing.T) {
	t.Parallel()

	p := estimate(time.Second, 3, 0)
	assert.Equal(t, Progress{Elapsed: time.Second}, p)
}

func TestTerminalStatesHaveNoTransitions(t *testing.T) {
	t.Parallel()

	h := newHarness(t, droneImage(4))
	for _, st := range []State{
		StateComplete, StateNoFirmwareAvailable, StateNoResponse,
		StateNoMatchingFirmware, StateDeviceInApplicationMode, StateTransferTimedOut,
	} {
		assert.True(t, st.Terminal(), st)
		h.s.machine.SetState(string(st))
		assert.Empty(t, h.s.machine.AvailableTransitions(), st)
		_, ok := h.s.handlers[st]
		assert.True(t, ok, "terminal state %s needs an explicit handler", st)
	}
}

func TestSession_CloseReleasesPort(t *testing.T) {
	t.Parallel()

	h := newHarness(t, droneImage(4))
	port := h.attach(t, testPort)
	require.NoError(t, h.s.Close())
	assert.True(t, port.IsClosed())
	require.NoError(t, h.s.Close())
}

func TestSession_NewIDOnRediscovery(t *testing.T) {
	t.Parallel()

	h := newHarness(t, droneImage(4))
	first := h.s.Snapshot().Session
	require.NotEmpty(t, first)

	h.attach(t, testPort)
	h.clock.Advance(DefaultHandshakeTimeout + time.Millisecond)
	h.s.Step()
	require.Equal(t, StateDiscovering, h.s.State())
	assert.NotEqual(t, first, h.s.Snapshot().Session)
}
