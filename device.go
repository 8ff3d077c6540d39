// go-xbee
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-xbee.
//
// go-xbee is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-xbee is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-xbee; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package xbee

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Defaults
const (
	DefaultReadTimeout   = 2000 * time.Millisecond
	DefaultATTimeout     = 5000 * time.Millisecond
	DefaultSocketTimeout = 5000 * time.Millisecond
	DefaultBaudRate      = 9600
)

// DeviceConfig contains configuration options for the Device
type DeviceConfig struct {
	// Attach bounds the network attach poll loop
	Attach AttachPolicy
	// ReadTimeout bounds each phase of a frame receive
	ReadTimeout time.Duration
	// ATTimeout is the default wait for an AT command response
	ATTimeout time.Duration
}

// DefaultDeviceConfig returns default device configuration
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		Attach:      DefaultAttachPolicy(),
		ReadTimeout: DefaultReadTimeout,
		ATTimeout:   DefaultATTimeout,
	}
}

// pendingExchange is the one in-flight wait a device tracks
type pendingExchange struct {
	frameTypes []FrameType
	frame      Frame
	frameID    byte
	resolved   bool
}

func (p *pendingExchange) matches(t FrameType, frameID byte) bool {
	if p.resolved || p.frameID != frameID {
		return false
	}
	for _, ft := range p.frameTypes {
		if ft == t {
			return true
		}
	}
	return false
}

// Device is one XBee module on one serial link.
//
// Thread Safety: Device is NOT thread-safe. All methods must be called from
// a single goroutine or protected with external synchronization. Callbacks run
// on the calling goroutine from inside Process and any call that waits for a
// response. For concurrent access, use polling.DeviceActor.
type Device struct {
	port         Port
	variant      Variant
	metrics      MetricsRecorder
	resetPin     ResetPin
	logger       *zap.Logger
	config       *DeviceConfig
	pending      *pendingExchange
	callbacks    Callbacks
	lastTxStatus TxStatus
	id           uuid.UUID
	attachState  AttachState
	frameID      byte
	modemStatus  ModemStatus
	hasModem     bool
	txReceived   bool
	initFailed   bool
	closed       bool
	ownsPort     bool
}

// New creates a device for the given port and variant. The port is not opened
// until Init.
func New(port Port, variant Variant, opts ...Option) (*Device, error) {
	if port == nil || variant == nil {
		return nil, fmt.Errorf("port and variant are required: %w", ErrInvalidArgument)
	}

	id := uuid.New()
	device := &Device{
		port:    port,
		variant: variant,
		config:  DefaultDeviceConfig(),
		metrics: nopMetrics{},
		logger:  zap.NewNop(),
		id:      id,
		frameID: 1,
	}

	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	return device, nil
}

// ID returns the unique handle ID used in logs and metrics
func (d *Device) ID() string {
	return d.id.String()
}

// Port returns the underlying port
func (d *Device) Port() Port {
	return d.port
}

// Variant returns the module variant
func (d *Device) Variant() Variant {
	return d.variant
}

// Logger returns the device logger for use by variants
func (d *Device) Logger() *zap.Logger {
	return d.logger
}

// Config returns the device configuration
func (d *Device) Config() DeviceConfig {
	return *d.config
}

// LastModemStatus returns the most recent modem status, if one has arrived
func (d *Device) LastModemStatus() (ModemStatus, bool) {
	return d.modemStatus, d.hasModem
}

// LastTxStatus returns the most recent transmit status seen by the generic
// handler and whether one has arrived since the last ClearTxStatus.
func (d *Device) LastTxStatus() (TxStatus, bool) {
	return d.lastTxStatus, d.txReceived
}

// ClearTxStatus resets the transmit-status-received flag
func (d *Device) ClearTxStatus() {
	d.txReceived = false
}

// RecordTxStatus stores status as the last delivery status. Variant transmit
// status hooks call this when they claim the frame.
func (d *Device) RecordTxStatus(status TxStatus) {
	d.lastTxStatus = status
	d.txReceived = true
}

// AttachState returns the attach state machine's current state
func (d *Device) AttachState() AttachState {
	return d.attachState
}

// Callbacks returns the registered callbacks
func (d *Device) Callbacks() Callbacks {
	return d.callbacks
}

// NextFrameID returns the frame ID the next outbound frame will carry
func (d *Device) NextFrameID() byte {
	return d.frameID
}

// advanceFrameID moves the counter on, skipping zero which the module treats
// as "no response requested".
func (d *Device) advanceFrameID() {
	d.frameID++
	if d.frameID == 0 {
		d.frameID = 1
	}
}

// checkUsable returns an error when the handle cannot talk to the module
func (d *Device) checkUsable() error {
	if d.closed {
		return ErrClosed
	}
	if d.initFailed {
		return fmt.Errorf("device unusable after failed init: %w", ErrPortInit)
	}
	return nil
}

// Init opens the port and initializes the variant
func (d *Device) Init(baud int, device string) error {
	return d.InitContext(context.Background(), baud, device)
}

// Configure hands a variant-defined config value to the variant
func (d *Device) Configure(config any) error {
	if d.closed {
		return ErrClosed
	}
	if err := d.variant.Configure(config); err != nil {
		return fmt.Errorf("configure: %w", err)
	}
	return nil
}

// Connect attaches the module to its network
func (d *Device) Connect() error {
	return d.ConnectContext(context.Background())
}

// Disconnect detaches the module from its network
func (d *Device) Disconnect() error {
	return d.DisconnectContext(context.Background())
}

// SendData transmits a variant-defined packet
func (d *Device) SendData(packet any) error {
	return d.SendDataContext(context.Background(), packet)
}

// SoftReset restarts the module by command
func (d *Device) SoftReset() error {
	return d.SoftResetContext(context.Background())
}

// HardReset restarts the module through its reset line
func (d *Device) HardReset() error {
	return d.HardResetContext(context.Background())
}

// Connected reports whether the module is attached
func (d *Device) Connected() (bool, error) {
	return d.ConnectedContext(context.Background())
}

// Process runs one receive-and-dispatch cycle through the variant
func (d *Device) Process() error {
	return d.ProcessContext(context.Background())
}

// PulseReset drives the configured reset pin, or fails with ErrNotSupported
func (d *Device) PulseReset(ctx context.Context) error {
	if d.resetPin == nil {
		return fmt.Errorf("no reset pin configured: %w", ErrNotSupported)
	}
	if err := d.resetPin.Pulse(ctx); err != nil {
		return fmt.Errorf("reset pin pulse: %w", err)
	}
	d.pending = nil
	d.hasModem = false
	d.txReceived = false
	d.attachState = AttachIdle
	return nil
}

// Close releases the handle. Further calls fail with ErrClosed. The port is
// closed only when WithOwnedPort was given.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.pending = nil

	if d.ownsPort {
		if closer, ok := d.port.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				return fmt.Errorf("failed to close port: %w", err)
			}
		}
	}
	return nil
}

// isIdle reports whether err is a receive timeout before any frame byte
func isIdle(err error) bool {
	return errors.Is(err, ErrTimeoutStartDelimiter)
}
