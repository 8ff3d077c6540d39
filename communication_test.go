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
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/ZaparooProject/go-xbee/internal/frame"
	testutil "github.com/ZaparooProject/go-xbee/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiveFrame_RoundTrip(t *testing.T) {
	t.Parallel()

	long := bytes.Repeat([]byte{0xA5}, frame.MaxDataSize)
	tests := []struct {
		name      string
		payload   []byte
		frameType FrameType
	}{
		{name: "empty payload", frameType: FrameTypeModemStatus, payload: []byte{}},
		{name: "tx request", frameType: FrameTypeTxRequest, payload: []byte{0x01, 0x02, 0x03}},
		{name: "contains delimiter", frameType: FrameTypeSocketSend, payload: []byte{0x7E, 0x7D, 0x11, 0x13}},
		{name: "max size", frameType: FrameTypeSocketSend, payload: long},
		{name: "unknown type", frameType: FrameType(0x77), payload: []byte{0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			device, port := newTestDevice(t, nil)

			encoded, err := frame.Encode(byte(tt.frameType), tt.payload)
			require.NoError(t, err)
			port.Queue(encoded)

			got, err := device.ReceiveFrame()
			require.NoError(t, err)
			assert.Equal(t, tt.frameType, got.Type)
			assert.Equal(t, tt.payload, got.Data)
		})
	}
}

func TestReceiveFrame_ByteAtATime(t *testing.T) {
	t.Parallel()
	device, port := newTestDevice(t, nil)

	encoded := testutil.BuildFrame(0x10, []byte{0x01, 0x02, 0x03})
	for i, b := range encoded {
		port.QueueAt(int64(i*10), []byte{b})
	}

	got, err := device.ReceiveFrame()
	require.NoError(t, err)
	assert.Equal(t, FrameTypeTxRequest, got.Type)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, got.Data)
}

func TestReceiveFrame_ChecksumCorruption(t *testing.T) {
	t.Parallel()
	device, port := newTestDevice(t, nil)

	encoded := testutil.BuildFrame(0x10, []byte{0x01, 0x02, 0x03})
	good := encoded[len(encoded)-1]
	require.Equal(t, byte(0xE9), good)

	for c := 0; c < 256; c++ {
		if byte(c) == good {
			continue
		}
		corrupted := append([]byte(nil), encoded...)
		corrupted[len(corrupted)-1] = byte(c)
		port.Queue(corrupted)

		_, err := device.ReceiveFrame()
		require.ErrorIs(t, err, ErrChecksumMismatch, "checksum 0x%02X", c)
	}
	assert.Zero(t, port.Pending())
}

func TestReceiveFrame_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr error
		name    string
		input   []byte
	}{
		{name: "nothing arrives", input: nil, wantErr: ErrTimeoutStartDelimiter},
		{name: "wrong delimiter", input: []byte{0x55}, wantErr: ErrInvalidDelimiter},
		{name: "length stalls", input: []byte{0x7E, 0x00}, wantErr: ErrTimeoutLength},
		{name: "body stalls", input: []byte{0x7E, 0x00, 0x04, 0x10, 0x01}, wantErr: ErrTimeoutBody},
		{name: "checksum stalls", input: []byte{0x7E, 0x00, 0x04, 0x10, 0x01, 0x02, 0x03}, wantErr: ErrTimeoutBody},
		{name: "zero length", input: []byte{0x7E, 0x00, 0x00}, wantErr: ErrInvalidLength},
		{name: "declared length over capacity", input: []byte{0x7E, 0x01, 0x01}, wantErr: ErrFrameTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			device, port := newTestDevice(t, nil)
			port.Queue(tt.input)

			_, err := device.ReceiveFrame()
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestReceiveFrame_TimeoutUsesPortClock(t *testing.T) {
	t.Parallel()
	device, port := newTestDevice(t, nil, WithReadTimeout(250*time.Millisecond))

	_, err := device.ReceiveFrame()
	require.ErrorIs(t, err, ErrTimeoutStartDelimiter)
	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, int64(250), port.Millis())
}

func TestReceiveFrame_OversizeRejectedBeforeBody(t *testing.T) {
	t.Parallel()
	device, port := newTestDevice(t, nil)

	port.Queue([]byte{0x7E, 0xFF, 0xFF}, bytes.Repeat([]byte{0x00}, 16))
	_, err := device.ReceiveFrame()
	require.ErrorIs(t, err, ErrFrameTooLarge)
	assert.Equal(t, 16, port.Pending())
}

func TestReceiveFrame_ReadError(t *testing.T) {
	t.Parallel()
	device, port := newTestDevice(t, nil)
	port.SetReadError(errors.New("device unplugged"))

	_, err := device.ReceiveFrame()
	require.ErrorIs(t, err, ErrTransportRead)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "read", te.Op)
	assert.Equal(t, "mock", te.Port)
	assert.True(t, IsRetryable(err))
}

func TestSendFrame_EncodesVector(t *testing.T) {
	t.Parallel()
	device, port := newTestDevice(t, nil)

	require.NoError(t, device.SendFrame(FrameTypeTxRequest, []byte{0x01, 0x02, 0x03}))

	writes := port.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, []byte{0x7E, 0x00, 0x04, 0x10, 0x01, 0x02, 0x03, 0xE9}, writes[0])
}

func TestSendFrame_WriteFailures(t *testing.T) {
	t.Parallel()

	t.Run("short write", func(t *testing.T) {
		t.Parallel()
		device, port := newTestDevice(t, nil)
		port.SetShortWrite(true)

		err := device.SendFrame(FrameTypeTxRequest, []byte{0x01})
		require.ErrorIs(t, err, ErrUARTFailure)
	})

	t.Run("write error", func(t *testing.T) {
		t.Parallel()
		device, port := newTestDevice(t, nil)
		port.SetWriteError(errors.New("broken pipe"))

		err := device.SendFrame(FrameTypeTxRequest, []byte{0x01})
		require.ErrorIs(t, err, ErrUARTFailure)
		assert.Equal(t, ErrorTypeTransient, GetErrorType(err))
	})

	t.Run("too large", func(t *testing.T) {
		t.Parallel()
		device, port := newTestDevice(t, nil)

		err := device.SendFrame(FrameTypeSocketSend, make([]byte, frame.MaxDataSize+1))
		require.ErrorIs(t, err, ErrFrameTooLarge)
		assert.Empty(t, port.Writes())
	})
}

func TestSendATCommand_Frame(t *testing.T) {
	t.Parallel()
	device, port := newTestDevice(t, nil)

	require.NoError(t, device.SendATCommand(ATAccessPoint, []byte("hologram")))

	frames := port.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, byte(FrameTypeATCommand), frames[0].Type)
	assert.Equal(t, append([]byte{0x01, 'A', 'N'}, "hologram"...), frames[0].Data)
	assert.Equal(t, byte(2), device.NextFrameID())
}

func TestSendATCommand_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr error
		name    string
		cmd     ATCommand
		param   []byte
	}{
		{name: "unknown command", cmd: "ZZ", wantErr: ErrInvalidCommand},
		{name: "empty command", cmd: "", wantErr: ErrInvalidArgument},
		{name: "three letters", cmd: "AIX", wantErr: ErrInvalidArgument},
		{name: "parameter too large", cmd: ATAccessPoint, param: make([]byte, MaxATParamSize+1), wantErr: ErrFrameTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			device, port := newTestDevice(t, nil)

			err := device.SendATCommand(tt.cmd, tt.param)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, port.Writes())
			assert.Equal(t, byte(1), device.NextFrameID())
		})
	}
}

func TestFrameID_WrapsSkippingZero(t *testing.T) {
	t.Parallel()
	device, port := newTestDevice(t, nil)
	device.frameID = 254

	for i := 0; i < 3; i++ {
		require.NoError(t, device.SendATCommand(ATFirmware, nil))
	}

	var ids []byte
	for _, f := range port.Frames() {
		ids = append(ids, f.Data[0])
	}
	assert.Equal(t, []byte{254, 255, 1}, ids)
	assert.Equal(t, byte(2), device.NextFrameID())
}

func TestSendATCommandAndGetResponse_Success(t *testing.T) {
	t.Parallel()
	metrics := newRecordingMetrics()
	device, port := newTestDevice(t, nil, WithMetrics(metrics))
	port.SetResponder(testutil.ATResponder(func(cmd string, _ []byte) testutil.ATReply {
		if cmd == "VR" {
			return testutil.ATReply{Value: []byte{0x11, 0x00, 0x7E, 0x01}}
		}
		return testutil.ATReply{Drop: true}
	}))

	value, err := device.SendATCommandAndGetResponse(ATFirmware, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x11, 0x00, 0x7E, 0x01}, value)
	assert.Nil(t, device.pending)
	assert.Equal(t, []string{ResultOK}, metrics.results[ATFirmware])
	assert.Equal(t, 1, metrics.sent[FrameTypeATCommand])
	assert.Equal(t, 1, metrics.received[FrameTypeATResponse])
}

func TestSendATCommandAndGetResponse_IgnoresOtherFrameIDs(t *testing.T) {
	t.Parallel()
	device, port := newTestDevice(t, nil)

	port.QueueAt(10, testutil.BuildATResponse(0x42, "VR", 0x00, []byte{0xDE, 0xAD}))
	port.QueueAt(20, testutil.BuildATResponse(0x01, "VR", 0x00, []byte{0xBE, 0xEF}))

	value, err := device.SendATCommandAndGetResponse(ATFirmware, nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xBE, 0xEF}, value)
}

func TestSendATCommandAndGetResponse_TimeoutDespiteUnrelatedFrames(t *testing.T) {
	t.Parallel()
	var received []any
	device, port := newTestDevice(t, nil, WithCallbacks(Callbacks{
		OnReceive: func(_ *Device, packet any) { received = append(received, packet) },
	}))

	port.QueueAt(100, testutil.BuildModemStatus(byte(ModemStatusJoined)))
	port.QueueAt(1500, testutil.BuildRxIPv4([4]byte{10, 0, 0, 1}, 5000, 6000, 0, []byte("hi")))
	port.QueueAt(2500, testutil.BuildATResponse(0x09, "AI", 0x00, []byte{0x00}))
	port.QueueAt(4000, testutil.BuildATResponse(0x01, "AI", 0x00, []byte{0x00}))

	_, err := device.SendATCommandAndGetResponse(ATAssociation, nil, 3*time.Second)
	require.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, port.Millis(), int64(3000))

	status, ok := device.LastModemStatus()
	require.True(t, ok)
	assert.Equal(t, ModemStatusJoined, status)

	require.Len(t, received, 1)
	assert.Equal(t, RawPacket{Type: FrameTypeRxIPv4, Payload: []byte{10, 0, 0, 1, 0x13, 0x88, 0x17, 0x70, 0, 0, 'h', 'i'}}, received[0])

	assert.Nil(t, device.pending)
}

func TestSendATCommandAndGetResponse_Rejected(t *testing.T) {
	t.Parallel()
	metrics := newRecordingMetrics()
	device, port := newTestDevice(t, nil, WithMetrics(metrics))
	port.SetResponder(testutil.ATResponder(func(string, []byte) testutil.ATReply {
		return testutil.ATReply{Status: byte(ATStatusInvalidParameter)}
	}))

	_, err := device.SendATCommandAndGetResponse(ATAccessPoint, []byte("bad"), 0)
	require.ErrorIs(t, err, ErrDeviceRejected)

	var atErr *ATError
	require.ErrorAs(t, err, &atErr)
	assert.Equal(t, ATAccessPoint, atErr.Command)
	assert.Equal(t, ATStatusInvalidParameter, atErr.Status)
	assert.Equal(t, []string{ResultRejected}, metrics.results[ATAccessPoint])
}

func TestSendATCommandAndGetResponse_SkipsCorruptFrames(t *testing.T) {
	t.Parallel()
	device, port := newTestDevice(t, nil)

	bad := testutil.BuildATResponse(0x01, "VR", 0x00, []byte{0x01})
	bad[len(bad)-1] ^= 0xFF
	port.QueueAt(5, bad)
	port.QueueAt(10, testutil.BuildATResponse(0x01, "VR", 0x00, []byte{0x02}))

	value, err := device.SendATCommandAndGetResponse(ATFirmware, nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02}, value)
}

func TestSendATCommandAndGetResponse_BusyFromCallback(t *testing.T) {
	t.Parallel()
	var nestedErr error
	device, port := newTestDevice(t, nil, WithCallbacks(Callbacks{
		OnReceive: func(d *Device, _ any) {
			_, nestedErr = d.SendATCommandAndGetResponse(ATAssociation, nil, time.Second)
		},
	}))
	port.SetResponder(testutil.FrameResponder(func(f testutil.Frame) []byte {
		if f.Type != byte(FrameTypeATCommand) {
			return nil
		}
		rx := testutil.BuildRxIPv4([4]byte{1, 2, 3, 4}, 1, 2, 0, []byte{0xAA})
		return append(rx, testutil.BuildATResponse(f.Data[0], "VR", 0x00, []byte{0x01})...)
	}))

	value, err := device.SendATCommandAndGetResponse(ATFirmware, nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, value)
	require.ErrorIs(t, nestedErr, ErrBusy)
	assert.Len(t, port.Writes(), 1)
}

func TestSendATCommandAndGetResponse_TransportReadError(t *testing.T) {
	t.Parallel()
	device, port := newTestDevice(t, nil)
	port.SetReadError(errors.New("gone"))

	_, err := device.SendATCommandAndGetResponse(ATFirmware, nil, time.Second)
	require.ErrorIs(t, err, ErrTransportRead)
	assert.Nil(t, device.pending)
}

func TestAwaitFrame_Busy(t *testing.T) {
	t.Parallel()
	device, _ := newTestDevice(t, nil)
	device.pending = &pendingExchange{frameID: 7, frameTypes: []FrameType{FrameTypeATResponse}}

	_, err := device.AwaitFrame(t.Context(), 8, time.Second, FrameTypeSocketCreateResp)
	require.ErrorIs(t, err, ErrBusy)
}

func TestExchange(t *testing.T) {
	t.Parallel()
	device, port := newTestDevice(t, nil)
	port.SetResponder(testutil.FrameResponder(func(f testutil.Frame) []byte {
		return testutil.BuildSocketResponse(byte(FrameTypeSocketCreateResp), f.Data[0], 0x03, 0x00)
	}))

	f, err := device.Exchange(t.Context(), FrameTypeSocketCreate, []byte{0x01}, time.Second, FrameTypeSocketCreateResp)
	require.NoError(t, err)
	assert.Equal(t, FrameTypeSocketCreateResp, f.Type)
	assert.Equal(t, []byte{0x01, 0x01}, port.Frames()[0].Data)
}

func TestExchange_BusyWritesNothing(t *testing.T) {
	t.Parallel()
	device, port := newTestDevice(t, nil)
	device.pending = &pendingExchange{frameID: 7, frameTypes: []FrameType{FrameTypeATResponse}}

	_, err := device.Exchange(t.Context(), FrameTypeSocketCreate, []byte{0x01}, time.Second, FrameTypeSocketCreateResp)
	require.ErrorIs(t, err, ErrBusy)
	assert.Empty(t, port.Writes())
	assert.Equal(t, byte(1), device.NextFrameID())
}
