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

package cellular

import (
	"context"
	"net/netip"
	"testing"
	"time"

	xbee "github.com/ZaparooProject/go-xbee"
	testutil "github.com/ZaparooProject/go-xbee/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// socketResponder answers socket create/connect/bind requests like a module
// that hands out IDs starting at firstID.
func socketResponder(firstID, status byte) func(p []byte) []byte {
	next := firstID
	return testutil.FrameResponder(func(f testutil.Frame) []byte {
		switch xbee.FrameType(f.Type) {
		case xbee.FrameTypeSocketCreate:
			id := next
			next++
			return testutil.BuildSocketResponse(byte(xbee.FrameTypeSocketCreateResp), f.Data[0], id, status)
		case xbee.FrameTypeSocketConnect:
			return testutil.BuildSocketResponse(byte(xbee.FrameTypeSocketConnectResp), f.Data[0], f.Data[1], status)
		case xbee.FrameTypeSocketBind:
			return testutil.BuildSocketResponse(byte(xbee.FrameTypeSocketBindResp), f.Data[0], f.Data[1], status)
		default:
			return nil
		}
	})
}

func TestSocketCreate(t *testing.T) {
	t.Parallel()
	modem, port := newTestModem(t)
	port.SetResponder(socketResponder(4, 0x00))

	id, err := modem.SocketCreate(context.Background(), ProtocolTCP)
	require.NoError(t, err)
	assert.Equal(t, byte(4), id)

	frames := port.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, byte(xbee.FrameTypeSocketCreate), frames[0].Type)
	assert.Equal(t, []byte{0x01, byte(ProtocolTCP)}, frames[0].Data)
	assert.Equal(t, []Session{{ID: 4, Protocol: ProtocolTCP, State: SessionOpen}}, modem.Sessions())
}

func TestSocketCreate_Failures(t *testing.T) {
	t.Parallel()

	t.Run("rejected", func(t *testing.T) {
		t.Parallel()
		modem, port := newTestModem(t)
		port.SetResponder(socketResponder(0, 0x22))

		_, err := modem.SocketCreate(context.Background(), ProtocolUDP)
		require.ErrorIs(t, err, xbee.ErrSocketCreateRejected)
		require.ErrorIs(t, err, xbee.ErrDeviceRejected)
		assert.Empty(t, modem.Sessions())
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		modem, port := newTestModem(t)
		require.NoError(t, modem.SetSocketTimeout(300*time.Millisecond))

		_, err := modem.SocketCreate(context.Background(), ProtocolUDP)
		require.ErrorIs(t, err, xbee.ErrSocketCreateTimeout)
		require.ErrorIs(t, err, xbee.ErrTimeout)
		assert.Empty(t, modem.Sessions())
		assert.Len(t, port.Writes(), 1)
	})

	t.Run("write failure", func(t *testing.T) {
		t.Parallel()
		modem, port := newTestModem(t)
		port.SetWriteError(assert.AnError)

		_, err := modem.SocketCreate(context.Background(), ProtocolUDP)
		require.ErrorIs(t, err, xbee.ErrUARTFailure)
	})
}

func TestSocketCreate_BusyWritesNothing(t *testing.T) {
	t.Parallel()

	var modem *Modem
	var nestedErr error
	modem, port := newTestModem(t, xbee.WithCallbacks(xbee.Callbacks{
		OnReceive: func(*xbee.Device, any) {
			_, nestedErr = modem.SocketCreate(context.Background(), ProtocolTCP)
		},
	}))
	port.SetResponder(testutil.FrameResponder(func(f testutil.Frame) []byte {
		if xbee.FrameType(f.Type) != xbee.FrameTypeATCommand {
			return nil
		}
		rx := testutil.BuildRxIPv4([4]byte{10, 0, 0, 1}, 7, 7, 0, []byte{0x01})
		return append(rx, testutil.BuildATResponse(f.Data[0], "VR", 0x00, []byte{0x11, 0x41, 0x05})...)
	}))

	version, err := modem.FirmwareVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint32(0x114105), version)
	require.ErrorIs(t, nestedErr, xbee.ErrBusy)
	assert.Len(t, port.Writes(), 1)
	assert.Empty(t, modem.Sessions())
}

func TestSocketTimeout_UsesPortClock(t *testing.T) {
	t.Parallel()
	modem, port := newTestModem(t)

	_, err := modem.SocketCreate(context.Background(), ProtocolTCP)
	require.ErrorIs(t, err, xbee.ErrSocketCreateTimeout)
	assert.GreaterOrEqual(t, port.Millis(), xbee.DefaultSocketTimeout.Milliseconds())

	require.ErrorIs(t, modem.SetSocketTimeout(0), xbee.ErrInvalidArgument)
}

func TestSocketConnect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		host     string
		wantAddr []byte
	}{
		{name: "hostname", host: "numbersapi.com", wantAddr: append([]byte{0x01}, "numbersapi.com"...)},
		{name: "IPv4 literal", host: "52.43.121.77", wantAddr: []byte{0x00, 52, 43, 121, 77}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			modem, port := newTestModem(t)
			port.SetResponder(socketResponder(0, 0x00))

			id, err := modem.SocketCreate(context.Background(), ProtocolTCP)
			require.NoError(t, err)
			require.NoError(t, modem.SocketConnect(context.Background(), id, tt.host, 80, false))

			frames := port.Frames()
			require.Len(t, frames, 2)
			want := append([]byte{0x02, id, 0x00, 0x50}, tt.wantAddr...)
			assert.Equal(t, want, frames[1].Data)

			sessions := modem.Sessions()
			require.Len(t, sessions, 1)
			assert.Equal(t, SessionConnected, sessions[0].State)
			assert.Equal(t, tt.host+":80", sessions[0].Remote)
		})
	}
}

func TestSocketConnect_Failures(t *testing.T) {
	t.Parallel()

	t.Run("rejected", func(t *testing.T) {
		t.Parallel()
		modem, port := newTestModem(t)
		port.SetResponder(socketResponder(0, 0x01))
		modem.v.sessions[0] = &Session{ID: 0, Protocol: ProtocolTCP}

		err := modem.SocketConnect(context.Background(), 0, "example.com", 443, false)
		require.ErrorIs(t, err, xbee.ErrSocketConnectRejected)
		assert.Equal(t, SessionOpen, modem.Sessions()[0].State)
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		modem, _ := newTestModem(t)
		require.NoError(t, modem.SetSocketTimeout(100*time.Millisecond))

		err := modem.SocketConnect(context.Background(), 0, "example.com", 443, false)
		require.ErrorIs(t, err, xbee.ErrSocketConnectTimeout)
	})

	t.Run("TLS on a TCP socket", func(t *testing.T) {
		t.Parallel()
		modem, port := newTestModem(t)
		modem.v.sessions[1] = &Session{ID: 1, Protocol: ProtocolTCP}

		err := modem.SocketConnect(context.Background(), 1, "example.com", 443, true)
		require.ErrorIs(t, err, xbee.ErrInvalidArgument)
		assert.Empty(t, port.Writes())
	})

	t.Run("empty host", func(t *testing.T) {
		t.Parallel()
		modem, port := newTestModem(t)

		err := modem.SocketConnect(context.Background(), 1, "", 80, false)
		require.ErrorIs(t, err, xbee.ErrInvalidArgument)
		assert.Empty(t, port.Writes())
	})
}

func TestSocketConnect_TLS(t *testing.T) {
	t.Parallel()
	modem, port := newTestModem(t)
	port.SetResponder(socketResponder(7, 0x00))

	id, err := modem.SocketCreate(context.Background(), ProtocolTLS)
	require.NoError(t, err)
	require.NoError(t, modem.SocketConnect(context.Background(), id, "example.com", 443, true))
}

func TestSocketSend_NilPayloadWritesNothing(t *testing.T) {
	t.Parallel()
	modem, port := newTestModem(t)

	require.ErrorIs(t, modem.SocketSend(context.Background(), 1, nil), xbee.ErrNullPayload)
	require.ErrorIs(t, modem.SocketSend(context.Background(), 1, []byte{}), xbee.ErrNullPayload)
	assert.Empty(t, port.Writes())
	assert.Equal(t, byte(1), modem.NextFrameID())
}

func TestSocketSend(t *testing.T) {
	t.Parallel()
	modem, port := newTestModem(t)

	require.NoError(t, modem.SocketSend(context.Background(), 2, []byte("GET / HTTP/1.1\r\n\r\n")))

	frames := port.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, byte(xbee.FrameTypeSocketSend), frames[0].Type)
	assert.Equal(t, append([]byte{0x01, 0x02, 0x00}, "GET / HTTP/1.1\r\n\r\n"...), frames[0].Data)
}

func TestSocketSend_Oversize(t *testing.T) {
	t.Parallel()

	t.Run("stream sockets chunk", func(t *testing.T) {
		t.Parallel()
		modem, port := newTestModem(t)
		modem.v.sessions[1] = &Session{ID: 1, Protocol: ProtocolTCP}

		payload := make([]byte, 2*MaxSocketPayload+10)
		for i := range payload {
			payload[i] = byte(i)
		}
		require.NoError(t, modem.SocketSend(context.Background(), 1, payload))

		frames := port.Frames()
		require.Len(t, frames, 3)
		var joined []byte
		for i, f := range frames {
			assert.Equal(t, byte(i+1), f.Data[0])
			assert.Equal(t, byte(1), f.Data[1])
			joined = append(joined, f.Data[3:]...)
		}
		assert.Equal(t, payload, joined)
		assert.Len(t, frames[0].Data, 3+MaxSocketPayload)
	})

	t.Run("UDP rejects", func(t *testing.T) {
		t.Parallel()
		modem, port := newTestModem(t)
		modem.v.sessions[1] = &Session{ID: 1, Protocol: ProtocolUDP}

		err := modem.SocketSend(context.Background(), 1, make([]byte, MaxSocketPayload+1))
		require.ErrorIs(t, err, xbee.ErrPayloadTooLarge)
		assert.Empty(t, port.Writes())
	})
}

func TestSocketSendTo(t *testing.T) {
	t.Parallel()
	modem, port := newTestModem(t)

	err := modem.SocketSendTo(context.Background(), 3, netip.MustParseAddr("52.43.121.77"), 10001, []byte("ping"))
	require.NoError(t, err)

	frames := port.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, byte(xbee.FrameTypeSocketSendTo), frames[0].Type)
	assert.Equal(t, []byte{0x01, 0x03, 52, 43, 121, 77, 0x27, 0x11, 0x00, 'p', 'i', 'n', 'g'}, frames[0].Data)

	require.ErrorIs(t, modem.SocketSendTo(context.Background(), 3, netip.MustParseAddr("::1"), 1, []byte{1}),
		xbee.ErrInvalidArgument)
	require.ErrorIs(t, modem.SocketSendTo(context.Background(), 3, netip.MustParseAddr("1.2.3.4"), 1, nil),
		xbee.ErrNullPayload)
	require.ErrorIs(t, modem.SocketSendTo(context.Background(), 3, netip.MustParseAddr("1.2.3.4"), 1,
		make([]byte, MaxSocketToPayload+1)), xbee.ErrPayloadTooLarge)
	assert.Len(t, port.Writes(), 1)
}

func TestSocketBind(t *testing.T) {
	t.Parallel()

	modem, port := newTestModem(t)
	port.SetResponder(socketResponder(0, 0x00))
	require.NoError(t, modem.SocketBind(context.Background(), 5, 0x1234))
	assert.Equal(t, []byte{0x01, 0x05, 0x12, 0x34}, port.Frames()[0].Data)

	modem, port = newTestModem(t)
	port.SetResponder(socketResponder(0, 0x02))
	require.ErrorIs(t, modem.SocketBind(context.Background(), 5, 0x1234), xbee.ErrDeviceRejected)

	modem, _ = newTestModem(t)
	require.NoError(t, modem.SetSocketTimeout(50*time.Millisecond))
	require.ErrorIs(t, modem.SocketBind(context.Background(), 5, 0x1234), xbee.ErrTimeout)
}

func TestSocketSetOption(t *testing.T) {
	t.Parallel()
	modem, port := newTestModem(t)

	require.NoError(t, modem.SocketSetOption(context.Background(), 1, 2, []byte{0xAA, 0xBB}))

	frames := port.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, byte(xbee.FrameTypeSocketOption), frames[0].Type)
	assert.Equal(t, []byte{0x01, 0x01, 0x02, 0xAA, 0xBB}, frames[0].Data)
}

func TestSocketClose(t *testing.T) {
	t.Parallel()

	t.Run("removes session", func(t *testing.T) {
		t.Parallel()
		modem, port := newTestModem(t)
		modem.v.sessions[2] = &Session{ID: 2, Protocol: ProtocolTCP, State: SessionConnected}

		require.NoError(t, modem.SocketClose(context.Background(), 2))
		assert.Empty(t, modem.Sessions())
		assert.Equal(t, []byte{0x01, 0x02}, port.Frames()[0].Data)
	})

	t.Run("write failure is not retried", func(t *testing.T) {
		t.Parallel()
		modem, port := newTestModem(t)
		modem.v.sessions[2] = &Session{ID: 2, Protocol: ProtocolTCP}
		port.SetWriteError(assert.AnError)

		err := modem.SocketClose(context.Background(), 2)
		require.ErrorIs(t, err, xbee.ErrUARTFailure)
		assert.Len(t, port.Writes(), 1)
		assert.Len(t, modem.Sessions(), 1)
	})
}

func TestSocketStatus_ClosesSession(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zap.InfoLevel)
	modem, port := newTestModem(t, xbee.WithLogger(zap.New(core)))
	modem.v.sessions[1] = &Session{ID: 1, Protocol: ProtocolTCP}
	modem.v.sessions[2] = &Session{ID: 2, Protocol: ProtocolTCP}

	port.Queue(testutil.BuildSocketStatus(1, 0x00), testutil.BuildSocketStatus(2, 0x0C))
	require.NoError(t, modem.Process())
	require.NoError(t, modem.Process())

	sessions := modem.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, byte(1), sessions[0].ID)
	assert.Equal(t, SessionConnected, sessions[0].State)

	closed := logs.FilterMessage("socket closed by module").All()
	require.Len(t, closed, 1)
	assert.Equal(t, "xbee", closed[0].LoggerName)
	assert.EqualValues(t, 2, closed[0].ContextMap()["socket"])
}

func TestSessions_SortedByID(t *testing.T) {
	t.Parallel()
	modem, _ := newTestModem(t)
	for _, id := range []byte{9, 3, 5} {
		modem.v.sessions[id] = &Session{ID: id}
	}

	var ids []byte
	for _, s := range modem.Sessions() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []byte{3, 5, 9}, ids)
}
