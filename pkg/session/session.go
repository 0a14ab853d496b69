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

// Package session drives one firmware update at a time over a serial
// link: it waits for a device to appear, asks who it is, picks the
// matching image and streams it block by block.
package session

import (
	"time"

	"github.com/cellaxon/drone-updater/pkg/firmware"
	"github.com/cellaxon/drone-updater/pkg/ports"
	"github.com/cellaxon/drone-updater/pkg/protocol"
	"github.com/cellaxon/drone-updater/pkg/serialport"
	"github.com/cellaxon/drone-updater/pkg/trigger"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/looplab/fsm"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const readBufferSize = 1024

// Options wires a Session to its collaborators. Store, Watcher and Factory
// are required.
type Options struct {
	Store   *firmware.Store
	Watcher *ports.Watcher
	Factory serialport.Factory
	Clock   clockwork.Clock
	// DescribePort returns a human readable description of a port for
	// logging. Optional.
	DescribePort func(name string) string
	Policy       Policy
}

// Session is the update state machine. It is driven by calling Step from a
// single goroutine and is not safe for concurrent use.
type Session struct {
	entered      time.Time
	clock        clockwork.Clock
	port         serialport.Port
	factory      serialport.Factory
	store        *firmware.Store
	tracker      *ports.Tracker
	trigger      *trigger.Periodic
	receiver     *protocol.Receiver
	machine      *fsm.FSM
	handlers     map[State]func(now time.Time)
	describePort func(string) string
	log          zerolog.Logger
	portName     string
	status       string
	version      string
	id           string
	readBuf      []byte
	cursor       TransferCursor
	device       protocol.Information
	policy       Policy
	imageIndex   int
	location     protocol.UpdateLocation
	target       protocol.DeviceType
}

// New creates a session. The current port set is recorded so that only
// ports attached afterwards are considered. With an empty store the
// session starts, and stays, in StateNoFirmwareAvailable.
func New(opts Options) *Session {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	s := &Session{
		clock:        clock,
		factory:      opts.Factory,
		store:        opts.Store,
		policy:       opts.Policy,
		describePort: opts.DescribePort,
		trigger:      trigger.New(opts.Policy.RequestInterval, clock),
		receiver:     protocol.NewReceiver(),
		readBuf:      make([]byte, readBufferSize),
		imageIndex:   -1,
	}
	s.tracker = ports.NewTracker(opts.Watcher)
	s.newSessionID()

	s.handlers = map[State]func(time.Time){
		StateDiscovering:             s.discover,
		StateNegotiatingIdentity:     s.identify,
		StateNegotiatingLocation:     s.locate,
		StateTransferring:            s.transfer,
		StateComplete:                idle,
		StateNoFirmwareAvailable:     idle,
		StateNoResponse:              idle,
		StateNoMatchingFirmware:      idle,
		StateDeviceInApplicationMode: idle,
		StateTransferTimedOut:        idle,
	}

	s.machine = fsm.NewFSM(
		string(stateStarting),
		fsm.Events{
			{Name: evStart, Src: []string{string(stateStarting)}, Dst: string(StateDiscovering)},
			{Name: evNoFirmware, Src: []string{string(stateStarting)}, Dst: string(StateNoFirmwareAvailable)},
			{Name: evPortOpened, Src: []string{string(StateDiscovering)}, Dst: string(StateNegotiatingIdentity)},
			{Name: evIdentified, Src: []string{string(StateNegotiatingIdentity)}, Dst: string(StateNegotiatingLocation)},
			{Name: evNoMatch, Src: []string{string(StateNegotiatingIdentity)}, Dst: string(StateNoMatchingFirmware)},
			{Name: evAppMode, Src: []string{string(StateNegotiatingIdentity)}, Dst: string(StateDeviceInApplicationMode)},
			{
				Name: evCompleted,
				Src:  []string{string(StateNegotiatingIdentity), string(StateTransferring)},
				Dst:  string(StateComplete),
			},
			{Name: evLocated, Src: []string{string(StateNegotiatingLocation)}, Dst: string(StateTransferring)},
			{
				Name: evHandshakeTimeout,
				Src:  []string{string(StateNegotiatingIdentity), string(StateNegotiatingLocation)},
				Dst:  string(StateDiscovering),
			},
			{Name: evNoResponse, Src: []string{string(StateTransferring)}, Dst: string(StateNoResponse)},
			{Name: evTimedOut, Src: []string{string(StateTransferring)}, Dst: string(StateTransferTimedOut)},
		},
		fsm.Callbacks{
			"enter_state": func(e *fsm.Event) { s.enterState(e) },
		},
	)

	if s.store.Count() == 0 {
		s.fire(evNoFirmware)
	} else {
		s.fire(evStart)
	}
	return s
}

// State returns the active state.
func (s *Session) State() State {
	return State(s.machine.Current())
}

// Step advances the session by one tick. It never blocks longer than a
// serial read timeout.
func (s *Session) Step() {
	handler, ok := s.handlers[s.State()]
	if !ok {
		return
	}
	handler(s.clock.Now())
}

// Close releases the serial connection, if any.
func (s *Session) Close() error {
	return s.releasePort()
}

func idle(time.Time) {}

func (s *Session) fire(event string) {
	if err := s.machine.Event(event); err != nil {
		s.log.Error().Err(err).Str("event", event).Str("state", s.machine.Current()).
			Msg("rejected session transition")
	}
}

// enterState is the single entry action run on every transition.
func (s *Session) enterState(e *fsm.Event) {
	st := State(e.Dst)
	s.entered = s.clock.Now()
	s.trigger.Reset()
	s.status = statusText(st)

	switch st { //nolint:exhaustive // only these states have extra entry work
	case StateDiscovering:
		if e.Src != string(stateStarting) {
			s.newSessionID()
		}
		if err := s.releasePort(); err != nil {
			s.log.Debug().Err(err).Msg("failed to close abandoned port")
		}
		s.resetDevice()
	case StateTransferring:
		s.cursor = newCursor(s.location.IndexBlockNext, s.store.BlockCount(s.imageIndex))
	}

	ev := s.log.Info()
	if st.Failed() {
		ev = s.log.Error()
	}
	ev.Str("event", e.Event).Str("from", e.Src).Str("to", e.Dst).Str("status", s.status).
		Msg("session state changed")
}

func (s *Session) newSessionID() {
	s.id = uuid.New().String()
	s.log = log.With().Str("session", s.id).Logger()
}

func (s *Session) resetDevice() {
	s.target = protocol.DeviceNone
	s.device = protocol.Information{}
	s.location = protocol.UpdateLocation{}
	s.cursor = TransferCursor{}
	s.imageIndex = -1
	s.version = ""
}

func (s *Session) releasePort() error {
	s.receiver.Clear()
	if s.port == nil {
		return nil
	}
	port := s.port
	s.port = nil
	s.portName = ""
	return port.Close()
}

// refreshPorts records the current enumeration so that the abandoned port
// is only retried once it is re-attached.
func (s *Session) refreshPorts() {
	s.tracker.Refresh()
}

func (s *Session) discover(time.Time) {
	name, ok := s.tracker.Next()
	if !ok {
		return
	}

	port, err := serialport.Open(s.factory, name, s.policy.BaudRate, s.policy.ReadTimeout)
	if err != nil {
		s.log.Warn().Err(err).Str("port", name).Msg("failed to open new port")
		return
	}

	s.port = port
	s.portName = name
	desc := name
	if s.describePort != nil {
		desc = s.describePort(name)
	}
	s.log.Info().Str("port", name).Str("device", desc).Int("baud", s.policy.BaudRate).
		Msg("opened new serial port")
	s.fire(evPortOpened)
}

func (s *Session) identify(now time.Time) {
	if s.trigger.Fire() {
		target := protocol.ProbeOrder[int(s.trigger.Count())%len(protocol.ProbeOrder)]
		s.request(target, protocol.DataTypeInformation)
	}

	if msg, ok := s.receive(); ok && msg.Kind == protocol.KindInformation {
		if s.onInformation(msg) {
			return
		}
	}

	if now.Sub(s.entered) > s.policy.HandshakeTimeout {
		s.refreshPorts()
		s.fire(evHandshakeTimeout)
	}
}

// onInformation handles a device information reply and reports whether it
// caused a transition.
func (s *Session) onInformation(msg protocol.Message) bool {
	info := msg.Information
	s.device = info
	s.target = msg.Header.From

	s.log.Debug().
		Stringer("from", msg.Header.From).
		Stringer("model", info.ModelNumber).
		Stringer("version", info.Version).
		Stringer("mode", info.ModeUpdate).
		Msg("received device information")

	if info.ModelNumber == protocol.ModelNone {
		return false
	}

	switch info.ModeUpdate { //nolint:exhaustive // other modes keep waiting
	case protocol.ModeUpdateReady, protocol.ModeUpdateUpdate:
		idx, found := s.store.Find(info.ModelNumber)
		if !found {
			s.fire(evNoMatch)
			return true
		}
		s.imageIndex = idx
		s.version = versionText(info.Version, s.store.Version(idx))
		s.log.Info().Str("image", s.store.Name(idx)).Str("version", s.version).
			Int("blocks", s.store.BlockCount(idx)).Msg("selected firmware image")
		s.fire(evIdentified)
		return true
	case protocol.ModeUpdateComplete:
		s.fire(evCompleted)
		return true
	case protocol.ModeUpdateRunApplication:
		s.fire(evAppMode)
		return true
	default:
		return false
	}
}

func (s *Session) locate(now time.Time) {
	if s.trigger.Fire() {
		s.request(s.target, protocol.DataTypeUpdateLocation)
	}

	if msg, ok := s.receive(); ok && msg.Kind == protocol.KindUpdateLocation {
		s.location = msg.UpdateLocation
		s.log.Debug().Uint16("index", s.location.IndexBlockNext).Msg("received update location")
		s.fire(evLocated)
		return
	}

	if now.Sub(s.entered) > s.policy.HandshakeTimeout {
		s.refreshPorts()
		s.fire(evHandshakeTimeout)
	}
}

func (s *Session) request(target protocol.DeviceType, want protocol.DataType) {
	frame, err := protocol.EncodeRequest(target, want)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to encode request")
		return
	}
	s.write(frame)
}

// write sends frame and reports whether the port accepted it.
func (s *Session) write(frame []byte) bool {
	if s.port == nil {
		return false
	}
	if _, err := s.port.Write(frame); err != nil {
		s.log.Debug().Err(err).Str("port", s.portName).Msg("serial write failed")
		return false
	}
	s.log.Trace().Hex("tx", frame).Msg("serial tx")
	return true
}

// receive drains whatever the port has and returns at most one decoded
// message.
func (s *Session) receive() (protocol.Message, bool) {
	if s.port == nil {
		return protocol.Message{}, false
	}

	n, err := s.port.Read(s.readBuf)
	if err != nil {
		s.log.Debug().Err(err).Str("port", s.portName).Msg("serial read failed")
	}
	if n > 0 {
		s.log.Trace().Hex("rx", s.readBuf[:n]).Msg("serial rx")
		s.receiver.Push(s.readBuf[:n])
	}
	return s.receiver.Next()
}
