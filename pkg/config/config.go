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

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cellaxon/drone-updater/pkg/helpers/syncutil"
	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

const (
	SchemaVersion = 1
	CfgEnv        = "DRONE_UPDATER_CFG"
)

var ErrSchemaMismatch = errors.New("schema version mismatch")

type Values struct {
	Firmware     Firmware  `toml:"firmware"`
	Telemetry    Telemetry `toml:"telemetry"`
	Serial       Serial    `toml:"serial"`
	Session      Session   `toml:"session"`
	ConfigSchema int       `toml:"config_schema"`
	DebugLogging bool      `toml:"debug_logging"`
}

type Serial struct {
	PortFilter    []string `toml:"port_filter,omitempty" validate:"dive,required"`
	BaudRate      int      `toml:"baud_rate" validate:"gt=0"`
	ReadTimeoutMs int      `toml:"read_timeout_ms" validate:"min=1,max=100"`
}

type Session struct {
	RequestIntervalMs  int `toml:"request_interval_ms" validate:"min=10"`
	HandshakeTimeoutMs int `toml:"handshake_timeout_ms" validate:"gtfield=RequestIntervalMs"`
	TransferTimeoutMs  int `toml:"transfer_timeout_ms" validate:"gtfield=RequestIntervalMs"`
	MaxFailures        int `toml:"max_failures" validate:"min=1"`
	BlocksPerPacket    int `toml:"blocks_per_packet" validate:"min=1,max=15"`
}

type Firmware struct {
	// Dir overrides the firmware directory. Empty means "firmware" next
	// to the executable.
	Dir string `toml:"dir"`
}

type Telemetry struct {
	DSN            string `toml:"dsn,omitempty" validate:"omitempty,url"`
	ErrorReporting bool   `toml:"error_reporting"`
}

var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Serial: Serial{
		BaudRate:      57600,
		ReadTimeoutMs: 1,
	},
	Session: Session{
		RequestIntervalMs:  200,
		HandshakeTimeoutMs: 1200,
		TransferTimeoutMs:  300000,
		MaxFailures:        30,
		BlocksPerPacket:    2,
	},
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every value against its allowed range.
func (v *Values) Validate() error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("invalid config value %s: failed %q check", first.Namespace(), first.Tag())
		}
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

type Instance struct {
	cfgPath  string
	vals     Values
	defaults Values
	mu       syncutil.RWMutex
}

// NewConfig loads the config file from configDir, or from the path in
// DRONE_UPDATER_CFG. A missing file is created with defaults.
//
//nolint:gocritic // config struct copied for immutability
func NewConfig(configDir string, defaults Values) (*Instance, error) {
	cfgPath := os.Getenv(CfgEnv)
	log.Debug().Msgf("env config path: %s", cfgPath)

	if cfgPath == "" {
		cfgPath = filepath.Join(configDir, CfgFile)
	}

	cfg := Instance{
		mu:       syncutil.RWMutex{},
		cfgPath:  cfgPath,
		vals:     defaults,
		defaults: defaults,
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		log.Info().Msg("saving new default config to disk")

		err := os.MkdirAll(filepath.Dir(cfgPath), 0o750)
		if err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		err = cfg.Save()
		if err != nil {
			return nil, err
		}
	}

	err := cfg.Load()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	data, err := os.ReadFile(c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// fields missing from the file keep their defaults
	newVals := c.defaults
	err = toml.Unmarshal(data, &newVals)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if newVals.ConfigSchema != SchemaVersion {
		log.Error().Msgf(
			"schema version mismatch: got %d, expecting %d",
			newVals.ConfigSchema,
			SchemaVersion,
		)
		return ErrSchemaMismatch
	}

	if err := newVals.Validate(); err != nil {
		return err
	}

	c.vals = newVals
	return nil
}

func (c *Instance) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	c.vals.ConfigSchema = SchemaVersion

	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.cfgPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Instance) Path() string {
	return c.cfgPath
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = enabled
}

func (c *Instance) BaudRate() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Serial.BaudRate
}

func (c *Instance) ReadTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.vals.Serial.ReadTimeoutMs) * time.Millisecond
}

// PortFilter returns the port name prefixes discovery is limited to.
func (c *Instance) PortFilter() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.vals.Serial.PortFilter...)
}

func (c *Instance) SetPortFilter(prefixes []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Serial.PortFilter = append([]string(nil), prefixes...)
}

func (c *Instance) RequestInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.vals.Session.RequestIntervalMs) * time.Millisecond
}

func (c *Instance) HandshakeTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.vals.Session.HandshakeTimeoutMs) * time.Millisecond
}

func (c *Instance) TransferTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.vals.Session.TransferTimeoutMs) * time.Millisecond
}

func (c *Instance) MaxFailures() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Session.MaxFailures
}

func (c *Instance) BlocksPerPacket() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Session.BlocksPerPacket
}

// FirmwareDir returns the configured firmware directory, or "" for the
// default location.
func (c *Instance) FirmwareDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Firmware.Dir
}

func (c *Instance) SetFirmwareDir(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Firmware.Dir = dir
}

func (c *Instance) ErrorReporting() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Telemetry.ErrorReporting
}

func (c *Instance) TelemetryDSN() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Telemetry.DSN
}
