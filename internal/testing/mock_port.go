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

// Package testing provides a scripted serial port and frame builders for
// exercising the XBee protocol engine without hardware
package testing

import (
	"sync"
	"time"
)

type scheduledBytes struct {
	data []byte
	at   int64
}

// MockPort is an in-memory xbee.Port. Receive bytes are scripted with Queue and
// QueueAt, writes are captured, and the clock only moves when Delay or Advance
// is called.
type MockPort struct {
	initErr    error
	writeErr   error
	readErr    error
	responder  func(p []byte) []byte
	device     string
	rx         []byte
	scheduled  []scheduledBytes
	writes     [][]byte
	delays     []time.Duration
	now        int64
	baud       int
	flushes    int
	mu         sync.Mutex
	shortWrite bool
	closed     bool
}

// NewMockPort creates a mock port whose clock starts at startMillis.
func NewMockPort(startMillis int64) *MockPort {
	return &MockPort{now: startMillis}
}

// Init records the requested baud rate and device name.
func (m *MockPort) Init(baud int, device string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baud = baud
	m.device = device
	return m.initErr
}

// Read drains queued bytes that are due at the current virtual time.
func (m *MockPort) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return 0, m.readErr
	}
	m.releaseDueLocked()
	n := copy(p, m.rx)
	m.rx = m.rx[n:]
	return n, nil
}

// Write captures p and feeds it to the responder, if any.
func (m *MockPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, append([]byte(nil), p...))
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	if m.shortWrite {
		return len(p) - 1, nil
	}
	if m.responder != nil {
		m.rx = append(m.rx, m.responder(p)...)
	}
	return len(p), nil
}

// FlushRx discards every pending receive byte that is already due.
func (m *MockPort) FlushRx() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushes++
	m.releaseDueLocked()
	m.rx = nil
	return nil
}

// Millis returns the virtual clock.
func (m *MockPort) Millis() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Delay advances the virtual clock by d and records it.
func (m *MockPort) Delay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays = append(m.delays, d)
	m.now += d.Milliseconds()
}

// Close marks the port closed.
func (m *MockPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// String names the port in errors and logs.
func (*MockPort) String() string {
	return "mock"
}

// Advance moves the clock forward without recording a delay.
func (m *MockPort) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now += d.Milliseconds()
}

// Queue appends bytes that are readable immediately.
func (m *MockPort) Queue(chunks ...[]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range chunks {
		m.rx = append(m.rx, c...)
	}
}

// QueueAt schedules bytes that become readable once the clock reaches atMillis.
func (m *MockPort) QueueAt(atMillis int64, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scheduled = append(m.scheduled, scheduledBytes{at: atMillis, data: append([]byte(nil), data...)})
}

// SetResponder installs a function whose output is queued after every
// successful write.
func (m *MockPort) SetResponder(fn func(p []byte) []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responder = fn
}

// SetWriteError makes every write fail with err.
func (m *MockPort) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// SetReadError makes every read fail with err.
func (m *MockPort) SetReadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

// SetShortWrite makes writes accept one byte less than requested.
func (m *MockPort) SetShortWrite(short bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shortWrite = short
}

// SetInitError makes Init fail with err.
func (m *MockPort) SetInitError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initErr = err
}

// Writes returns a copy of every write call's bytes.
func (m *MockPort) Writes() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.writes))
	for i, w := range m.writes {
		out[i] = append([]byte(nil), w...)
	}
	return out
}

// Frames parses every captured write into frames.
func (m *MockPort) Frames() []Frame {
	var frames []Frame
	for _, w := range m.Writes() {
		frames = append(frames, ParseFrames(w)...)
	}
	return frames
}

// Delays returns every duration passed to Delay.
func (m *MockPort) Delays() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.delays...)
}

// Flushes returns the number of FlushRx calls.
func (m *MockPort) Flushes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushes
}

// Closed reports whether Close was called.
func (m *MockPort) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// InitArgs returns the arguments of the last Init call.
func (m *MockPort) InitArgs() (baud int, device string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baud, m.device
}

// Pending returns the number of bytes readable right now.
func (m *MockPort) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseDueLocked()
	return len(m.rx)
}

func (m *MockPort) releaseDueLocked() {
	kept := m.scheduled[:0]
	for _, s := range m.scheduled {
		if s.at <= m.now {
			m.rx = append(m.rx, s.data...)
			continue
		}
		kept = append(kept, s)
	}
	m.scheduled = kept
}
