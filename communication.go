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
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-xbee/internal/frame"
	"github.com/ZaparooProject/go-xbee/internal/retry"
	"go.uber.org/zap"
)

// ReceiveFrame reads and validates one frame from the port
func (d *Device) ReceiveFrame() (Frame, error) {
	return d.ReceiveFrameContext(context.Background())
}

// ReceiveFrameContext reads and validates one frame. Each phase (delimiter,
// length, body and checksum) may stall for at most the read timeout. It never
// retries; callers decide whether to poll again.
func (d *Device) ReceiveFrameContext(ctx context.Context) (Frame, error) {
	if err := d.checkUsable(); err != nil {
		return Frame{}, err
	}
	return d.receiveFrame(ctx, d.config.ReadTimeout)
}

// receiveFrame bounds the delimiter phase by startTimeout and the remaining
// phases by the configured read timeout.
func (d *Device) receiveFrame(ctx context.Context, startTimeout time.Duration) (Frame, error) {
	var delim [1]byte
	if err := d.readFull(ctx, delim[:], startTimeout, ErrTimeoutStartDelimiter); err != nil {
		return Frame{}, err
	}
	if delim[0] != frame.StartDelimiter {
		return Frame{}, fmt.Errorf("%w: got 0x%02X", ErrInvalidDelimiter, delim[0])
	}

	var lenBuf [2]byte
	if err := d.readFull(ctx, lenBuf[:], d.config.ReadTimeout, ErrTimeoutLength); err != nil {
		return Frame{}, err
	}
	n := frame.Length(lenBuf[:])
	if n == 0 {
		return Frame{}, ErrInvalidLength
	}
	if n > frame.MaxFrameDataSize {
		return Frame{}, fmt.Errorf("declared length %d exceeds %d: %w", n, frame.MaxFrameDataSize, ErrFrameTooLarge)
	}

	// type + data + checksum
	body := make([]byte, n+1)
	if err := d.readFull(ctx, body, d.config.ReadTimeout, ErrTimeoutBody); err != nil {
		return Frame{}, err
	}

	frameType, data, checksum := body[0], body[1:n], body[n]
	if !frame.Verify(frameType, data, checksum) {
		return Frame{}, fmt.Errorf("%w: type 0x%02X checksum 0x%02X, want 0x%02X",
			ErrChecksumMismatch, frameType, checksum, frame.Checksum(frameType, data))
	}

	f := Frame{Type: FrameType(frameType), Data: data}
	d.metrics.FrameReceived(f.Type)
	d.logger.Debug("frame received", zap.Stringer("type", f.Type), zap.String("data", hex.EncodeToString(data)))
	return f, nil
}

// readFull fills buf from the port, delaying 1ms between empty reads, and
// fails with timeoutErr once timeout has elapsed.
func (d *Device) readFull(ctx context.Context, buf []byte, timeout time.Duration, timeoutErr error) error {
	deadline := d.port.Millis() + timeout.Milliseconds()
	got := 0
	for got < len(buf) {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := d.port.Read(buf[got:])
		if err != nil {
			return NewTransportError("read", portName(d.port), fmt.Errorf("%w: %w", ErrTransportRead, err), ErrorTypeTransient)
		}
		got += n
		if got == len(buf) {
			break
		}

		if d.port.Millis() >= deadline {
			return timeoutErr
		}
		if n == 0 {
			d.port.Delay(time.Millisecond)
		}
	}
	return nil
}

// SendFrame encodes and writes one frame
func (d *Device) SendFrame(frameType FrameType, data []byte) error {
	return d.SendFrameContext(context.Background(), frameType, data)
}

// SendFrameContext encodes and writes one frame. A write error or a write
// that does not accept every byte fails with ErrUARTFailure.
func (d *Device) SendFrameContext(ctx context.Context, frameType FrameType, data []byte) error {
	if err := d.checkUsable(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	buf, err := frame.Encode(byte(frameType), data)
	if err != nil {
		return NewDataTooLargeError("send "+frameType.String(), portName(d.port))
	}

	n, err := d.port.Write(buf)
	if err != nil {
		d.metrics.FrameError("write")
		return NewTransportError("write", portName(d.port), fmt.Errorf("%w: %w", ErrUARTFailure, err), ErrorTypeTransient)
	}
	if n != len(buf) {
		d.metrics.FrameError("write")
		return NewTransportError("write", portName(d.port),
			fmt.Errorf("%w: wrote %d of %d bytes", ErrUARTFailure, n, len(buf)), ErrorTypeTransient)
	}

	d.metrics.FrameSent(frameType)
	d.logger.Debug("frame sent", zap.Stringer("type", frameType), zap.String("data", hex.EncodeToString(data)))
	return nil
}

// SendFrameWithID prepends the current frame ID to body, sends the frame and
// advances the counter. It returns the ID the frame carried.
func (d *Device) SendFrameWithID(ctx context.Context, frameType FrameType, body []byte) (byte, error) {
	frameID := d.frameID
	data := make([]byte, 0, 1+len(body))
	data = append(data, frameID)
	data = append(data, body...)

	if err := d.SendFrameContext(ctx, frameType, data); err != nil {
		return 0, err
	}
	d.advanceFrameID()
	return frameID, nil
}

// Exchange sends body with the next frame ID and waits up to timeout for the
// reply of one of types carrying that ID. When another exchange is pending it
// fails with ErrBusy before anything is written.
func (d *Device) Exchange(
	ctx context.Context, frameType FrameType, body []byte, timeout time.Duration, types ...FrameType,
) (Frame, error) {
	if d.pending != nil {
		return Frame{}, ErrBusy
	}
	frameID, err := d.SendFrameWithID(ctx, frameType, body)
	if err != nil {
		return Frame{}, err
	}
	return d.AwaitFrame(ctx, frameID, timeout, types...)
}

// SendATCommand sends an AT command without waiting for its response
func (d *Device) SendATCommand(cmd ATCommand, param []byte) error {
	return d.SendATCommandContext(context.Background(), cmd, param)
}

// SendATCommandContext validates cmd, frames it with the current frame ID and
// hands it to the port. It returns once the bytes are written.
func (d *Device) SendATCommandContext(ctx context.Context, cmd ATCommand, param []byte) error {
	_, err := d.sendATCommand(ctx, cmd, param)
	return err
}

func (d *Device) sendATCommand(ctx context.Context, cmd ATCommand, param []byte) (byte, error) {
	if !cmd.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCommand, string(cmd))
	}
	if len(param) > MaxATParamSize {
		return 0, fmt.Errorf("AT%s parameter of %d bytes: %w", cmd, len(param), ErrFrameTooLarge)
	}

	body := make([]byte, 0, 2+len(param))
	body = append(body, cmd[0], cmd[1])
	body = append(body, param...)
	return d.SendFrameWithID(ctx, FrameTypeATCommand, body)
}

// SendATCommandAndGetResponse sends an AT command and waits for its response
func (d *Device) SendATCommandAndGetResponse(cmd ATCommand, param []byte, timeout time.Duration) ([]byte, error) {
	return d.SendATCommandAndGetResponseContext(context.Background(), cmd, param, timeout)
}

// SendATCommandAndGetResponseContext sends an AT command and pumps incoming
// frames until the response carrying the same frame ID arrives. Unrelated
// frames are dispatched normally while waiting. A zero timeout uses the
// configured AT timeout. The returned value is a fresh slice.
func (d *Device) SendATCommandAndGetResponseContext(
	ctx context.Context, cmd ATCommand, param []byte, timeout time.Duration,
) ([]byte, error) {
	if timeout <= 0 {
		timeout = d.config.ATTimeout
	}
	if d.pending != nil {
		return nil, ErrBusy
	}

	start := d.port.Millis()
	frameID, err := d.sendATCommand(ctx, cmd, param)
	if err != nil {
		return nil, err
	}

	f, err := d.AwaitFrame(ctx, frameID, timeout, FrameTypeATResponse)
	elapsed := time.Duration(d.port.Millis()-start) * time.Millisecond
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			d.metrics.ATCommandCompleted(cmd, ResultTimeout, elapsed)
			return nil, fmt.Errorf("AT%s response: %w", cmd, err)
		}
		d.metrics.ATCommandCompleted(cmd, ResultError, elapsed)
		return nil, err
	}

	resp, _ := parseATResponse(f)
	if resp.Status != ATStatusOK {
		d.metrics.ATCommandCompleted(cmd, ResultRejected, elapsed)
		return nil, &ATError{Command: cmd, Status: resp.Status}
	}

	d.metrics.ATCommandCompleted(cmd, ResultOK, elapsed)
	return resp.Value, nil
}

// AwaitFrame registers a pending exchange for frameID and pumps the
// receive-and-dispatch step until the dispatcher resolves it with a frame of
// one of the given types, or the deadline computed at entry passes. Only one
// exchange may be pending; a second fails with ErrBusy.
func (d *Device) AwaitFrame(ctx context.Context, frameID byte, timeout time.Duration, types ...FrameType) (Frame, error) {
	if err := d.checkUsable(); err != nil {
		return Frame{}, err
	}
	if d.pending != nil {
		return Frame{}, ErrBusy
	}

	p := &pendingExchange{frameTypes: types, frameID: frameID}
	d.pending = p
	defer func() { d.pending = nil }()

	deadline := d.port.Millis() + timeout.Milliseconds()
	f, err := retry.Until(ctx, d.port, timeout, func(ctx context.Context) (Frame, bool, error) {
		if err := d.dispatchNext(ctx, retry.Remaining(d.port, deadline)); err != nil {
			if !IsFramingError(err) && !errors.Is(err, ErrTimeout) {
				return Frame{}, false, err
			}
			d.logger.Debug("discarding bad frame while waiting", zap.Error(err))
		}
		if p.resolved {
			return p.frame, false, nil
		}
		return Frame{}, true, nil
	})
	if errors.Is(err, retry.ErrDeadline) {
		return Frame{}, ErrTimeout
	}
	return f, err
}

// DispatchNext receives one frame and dispatches it. A timeout before any
// frame byte arrives is not an error. Variants call this from Process.
func (d *Device) DispatchNext(ctx context.Context) error {
	if err := d.checkUsable(); err != nil {
		return err
	}
	return d.dispatchNext(ctx, d.config.ReadTimeout)
}

// dispatchNext is the decode-and-dispatch step shared by Process and every
// blocking wait.
func (d *Device) dispatchNext(ctx context.Context, startTimeout time.Duration) error {
	f, err := d.receiveFrame(ctx, startTimeout)
	if err != nil {
		if isIdle(err) {
			return nil
		}
		d.metrics.FrameError(frameErrorKind(err))
		return err
	}
	d.HandleFrame(f)
	return nil
}
