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
	"testing"

	testutil "github.com/ZaparooProject/go-xbee/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleFrame_ATResponseResolvesPending(t *testing.T) {
	t.Parallel()
	device, _ := newTestDevice(t, nil)
	device.pending = &pendingExchange{frameID: 3, frameTypes: []FrameType{FrameTypeATResponse}}

	payload := []byte{0x00, 0x7E, 0xFF}
	device.HandleFrame(Frame{Type: FrameTypeATResponse, Data: append([]byte{3, 'A', 'I', 0x00}, payload...)})

	require.True(t, device.pending.resolved)
	resp, ok := parseATResponse(device.pending.frame)
	require.True(t, ok)
	assert.Equal(t, ATStatusOK, resp.Status)
	assert.Equal(t, payload, resp.Value)
}

func TestHandleFrame_ATResponseWrongIDLeavesPending(t *testing.T) {
	t.Parallel()
	device, _ := newTestDevice(t, nil)
	device.pending = &pendingExchange{frameID: 3, frameTypes: []FrameType{FrameTypeATResponse}}

	device.HandleFrame(Frame{Type: FrameTypeATResponse, Data: []byte{4, 'A', 'I', 0x00}})
	device.HandleFrame(Frame{Type: FrameTypeSocketCreateResp, Data: []byte{3, 0x01, 0x00}})
	device.HandleFrame(Frame{Type: FrameTypeATResponse, Data: []byte{3, 'A'}})

	assert.False(t, device.pending.resolved)
}

func TestHandleFrame_ModemStatus(t *testing.T) {
	t.Parallel()
	device, _ := newTestDevice(t, nil)

	_, ok := device.LastModemStatus()
	assert.False(t, ok)

	device.HandleFrame(Frame{Type: FrameTypeModemStatus, Data: []byte{byte(ModemStatusDisassociated)}})
	status, ok := device.LastModemStatus()
	require.True(t, ok)
	assert.Equal(t, ModemStatusDisassociated, status)
}

func TestHandleFrame_TransmitStatusGeneric(t *testing.T) {
	t.Parallel()
	var sent []TxStatus
	device, _ := newTestDevice(t, nil, WithCallbacks(Callbacks{
		OnSend: func(_ *Device, status TxStatus) { sent = append(sent, status) },
	}))

	device.HandleFrame(Frame{Type: FrameTypeTxStatus, Data: []byte{0x05, 0x21}})

	status, ok := device.LastTxStatus()
	require.True(t, ok)
	assert.Equal(t, byte(0x05), status.FrameID)
	assert.Equal(t, DeliveryStatus(0x21), status.Status)
	assert.False(t, status.OK())
	require.Len(t, sent, 1)
	assert.Equal(t, status, sent[0])

	device.ClearTxStatus()
	_, ok = device.LastTxStatus()
	assert.False(t, ok)
}

func TestHandleFrame_HooksFallThrough(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		claim         bool
		wantCallbacks int
	}{
		{name: "hook declines", claim: false, wantCallbacks: 1},
		{name: "hook claims", claim: true, wantCallbacks: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			received, sent := 0, 0
			variant := &hookVariant{claimRx: tt.claim, claimTx: tt.claim}
			device, _ := newTestDevice(t, variant, WithCallbacks(Callbacks{
				OnReceive: func(*Device, any) { received++ },
				OnSend:    func(*Device, TxStatus) { sent++ },
			}))

			device.HandleFrame(Frame{Type: FrameTypeLRRxPacket, Data: []byte{0x02, 0xAB}})
			device.HandleFrame(Frame{Type: FrameTypeLRExplicitTxStatus, Data: []byte{0x01, 0x00}})

			assert.Len(t, variant.rxFrames, 1)
			assert.Len(t, variant.txStatuses, 1)
			assert.Equal(t, tt.wantCallbacks, received)
			assert.Equal(t, tt.wantCallbacks, sent)

			_, ok := device.LastTxStatus()
			assert.Equal(t, !tt.claim, ok)
		})
	}
}

func TestHandleFrame_TransmitStatusResolvesPendingBeforeHook(t *testing.T) {
	t.Parallel()
	variant := &hookVariant{claimTx: true}
	device, _ := newTestDevice(t, variant)
	device.pending = &pendingExchange{
		frameID:    9,
		frameTypes: []FrameType{FrameTypeTxStatus, FrameTypeLRExplicitTxStatus},
	}

	device.HandleFrame(Frame{Type: FrameTypeLRExplicitTxStatus, Data: []byte{0x09, 0x00}})
	assert.True(t, device.pending.resolved)
	assert.Len(t, variant.txStatuses, 1)
}

func TestHandleFrame_SocketStatusHook(t *testing.T) {
	t.Parallel()
	variant := &hookVariant{}
	device, _ := newTestDevice(t, variant)

	device.HandleFrame(Frame{Type: FrameTypeSocketStatus, Data: []byte{0x02, 0x07}})
	device.HandleFrame(Frame{Type: FrameTypeSocketStatus, Data: []byte{0x02}})

	assert.Equal(t, [][2]byte{{0x02, 0x07}}, variant.socketStatuses)
}

func TestHandleFrame_UnknownIsNoop(t *testing.T) {
	t.Parallel()
	received := 0
	device, _ := newTestDevice(t, nil, WithCallbacks(Callbacks{
		OnReceive: func(*Device, any) { received++ },
	}))

	assert.NotPanics(t, func() {
		device.HandleFrame(Frame{Type: FrameType(0x3F), Data: nil})
		device.HandleFrame(Frame{Type: FrameTypeModemStatus})
		device.HandleFrame(Frame{Type: FrameTypeTxStatus, Data: []byte{0x01}})
	})
	assert.Zero(t, received)
	_, ok := device.LastModemStatus()
	assert.False(t, ok)
}

func TestProcess_DispatchesThroughVariant(t *testing.T) {
	t.Parallel()
	variant := &stubVariant{}
	device, port := newTestDevice(t, variant)

	require.NoError(t, device.Process())

	port.Queue(testutil.BuildModemStatus(byte(ModemStatusJoined)))
	require.NoError(t, device.Process())
	status, ok := device.LastModemStatus()
	require.True(t, ok)
	assert.Equal(t, ModemStatusJoined, status)

	port.Queue([]byte{0x7E, 0x00, 0x01, 0x8A, 0x00})
	require.ErrorIs(t, device.Process(), ErrChecksumMismatch)

	assert.Equal(t, []string{"init", "process", "process", "process"}, variant.calls)
}
