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
	"sync"
	"testing"
	"time"

	testutil "github.com/ZaparooProject/go-xbee/internal/testing"
	"github.com/stretchr/testify/require"
)

// stubVariant records calls and pumps frames through the generic dispatcher
type stubVariant struct {
	initErr    error
	configured any
	connectFn  func(ctx context.Context, d *Device) error
	calls      []string
	connected  bool
}

func (v *stubVariant) Init(context.Context, *Device) error {
	v.calls = append(v.calls, "init")
	return v.initErr
}

func (v *stubVariant) Configure(config any) error {
	v.calls = append(v.calls, "configure")
	v.configured = config
	return nil
}

func (v *stubVariant) Connect(ctx context.Context, d *Device) error {
	v.calls = append(v.calls, "connect")
	if v.connectFn != nil {
		return v.connectFn(ctx, d)
	}
	return nil
}

func (v *stubVariant) Disconnect(context.Context, *Device) error {
	v.calls = append(v.calls, "disconnect")
	return nil
}

func (v *stubVariant) SendData(context.Context, *Device, any) error {
	v.calls = append(v.calls, "send")
	return nil
}

func (v *stubVariant) SoftReset(context.Context, *Device) error {
	v.calls = append(v.calls, "soft_reset")
	return nil
}

func (*stubVariant) HardReset(ctx context.Context, d *Device) error {
	return d.PulseReset(ctx)
}

func (v *stubVariant) Connected(context.Context, *Device) (bool, error) {
	v.calls = append(v.calls, "connected")
	return v.connected, nil
}

func (v *stubVariant) Process(ctx context.Context, d *Device) error {
	v.calls = append(v.calls, "process")
	return d.DispatchNext(ctx)
}

// hookVariant adds every optional dispatch hook
type hookVariant struct {
	stubVariant
	rxFrames       []Frame
	txStatuses     []TxStatus
	socketStatuses [][2]byte
	claimRx        bool
	claimTx        bool
}

func (v *hookVariant) HandleRxPacket(_ *Device, f Frame) bool {
	v.rxFrames = append(v.rxFrames, f)
	return v.claimRx
}

func (v *hookVariant) HandleTransmitStatus(_ *Device, status TxStatus) bool {
	v.txStatuses = append(v.txStatuses, status)
	return v.claimTx
}

func (v *hookVariant) HandleSocketStatus(_ *Device, socketID, status byte) {
	v.socketStatuses = append(v.socketStatuses, [2]byte{socketID, status})
}

// recordingMetrics captures MetricsRecorder calls
type recordingMetrics struct {
	sent     map[FrameType]int
	received map[FrameType]int
	errors   map[string]int
	results  map[ATCommand][]string
	mu       sync.Mutex
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		sent:     make(map[FrameType]int),
		received: make(map[FrameType]int),
		errors:   make(map[string]int),
		results:  make(map[ATCommand][]string),
	}
}

func (m *recordingMetrics) FrameSent(t FrameType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent[t]++
}

func (m *recordingMetrics) FrameReceived(t FrameType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.received[t]++
}

func (m *recordingMetrics) FrameError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *recordingMetrics) ATCommandCompleted(cmd ATCommand, result string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[cmd] = append(m.results[cmd], result)
}

// newTestDevice creates an initialized device on a fresh mock port
func newTestDevice(t *testing.T, variant Variant, opts ...Option) (*Device, *testutil.MockPort) {
	t.Helper()
	port := testutil.NewMockPort(0)
	if variant == nil {
		variant = &stubVariant{}
	}
	device, err := New(port, variant, opts...)
	require.NoError(t, err)
	require.NoError(t, device.Init(9600, "/dev/mock"))
	return device, port
}
