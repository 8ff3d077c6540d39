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

// Package uart provides the serial port implementation of xbee.Port
package uart

import (
	"errors"
	"fmt"
	"sync"
	"time"

	xbee "github.com/ZaparooProject/go-xbee"
	"go.bug.st/serial"
)

// DefaultPollInterval is how long one Read blocks waiting for the first byte
const DefaultPollInterval = 10 * time.Millisecond

// ErrNotOpen is returned by I/O on a port that was never opened or is closed
var ErrNotOpen = errors.New("serial port not open")

type openFunc func(name string, mode *serial.Mode) (serial.Port, error)

// Port is an xbee.Port backed by a host serial device. Reads block for at
// most the poll interval and return (0, nil) when nothing arrived, which is
// what the frame decoder expects.
type Port struct {
	start        time.Time
	port         serial.Port
	open         openFunc
	name         string
	pollInterval time.Duration
	mu           sync.Mutex
}

var _ xbee.Port = (*Port)(nil)

// Option configures a Port
type Option func(*Port)

// WithPollInterval changes the per-Read blocking time
func WithPollInterval(d time.Duration) Option {
	return func(p *Port) {
		if d > 0 {
			p.pollInterval = d
		}
	}
}

// New creates an unopened port; xbee.Device.Init opens it.
func New(opts ...Option) *Port {
	p := &Port{
		open:         serial.Open,
		pollInterval: DefaultPollInterval,
		start:        time.Now(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Init opens device at baud, 8N1. A previously opened device is closed first.
func (p *Port) Init(baud int, device string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.port != nil {
		_ = p.port.Close()
		p.port = nil
	}

	sp, err := p.open(device, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return fmt.Errorf("open %s: %w", device, err)
	}
	if err := sp.SetReadTimeout(p.pollInterval); err != nil {
		_ = sp.Close()
		return fmt.Errorf("set read timeout on %s: %w", device, err)
	}

	p.port = sp
	p.name = device
	return nil
}

// Read returns whatever bytes arrive within the poll interval
func (p *Port) Read(b []byte) (int, error) {
	sp, err := p.current()
	if err != nil {
		return 0, err
	}
	n, err := sp.Read(b)
	if err != nil {
		return n, fmt.Errorf("read %s: %w", p.name, err)
	}
	return n, nil
}

// Write sends b and waits until it has been transmitted
func (p *Port) Write(b []byte) (int, error) {
	sp, err := p.current()
	if err != nil {
		return 0, err
	}
	n, err := sp.Write(b)
	if err != nil {
		return n, fmt.Errorf("write %s: %w", p.name, err)
	}
	if err := sp.Drain(); err != nil {
		return n, fmt.Errorf("drain %s: %w", p.name, err)
	}
	return n, nil
}

// FlushRx discards unread input
func (p *Port) FlushRx() error {
	sp, err := p.current()
	if err != nil {
		return err
	}
	return sp.ResetInputBuffer()
}

// Millis returns milliseconds since the port was created, from the monotonic clock
func (p *Port) Millis() int64 {
	return time.Since(p.start).Milliseconds()
}

// Delay sleeps for d
func (*Port) Delay(d time.Duration) {
	time.Sleep(d)
}

// Close closes the device. Closing an unopened port is a no-op.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.port == nil {
		return nil
	}
	err := p.port.Close()
	p.port = nil
	return err
}

// String returns the device path
func (p *Port) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.name == "" {
		return "uart"
	}
	return p.name
}

func (p *Port) current() (serial.Port, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.port == nil {
		return nil, ErrNotOpen
	}
	return p.port, nil
}
