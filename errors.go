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
	"errors"
	"fmt"

	"github.com/ZaparooProject/go-xbee/internal/frame"
)

// Category errors. Every error returned by this package matches one of these
// with errors.Is, except the framing errors, which GetErrorType classifies.
var (
	ErrTimeout          = errors.New("operation timeout")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrDeviceRejected   = errors.New("device rejected request")
	ErrUARTFailure      = errors.New("uart write failed")
	ErrTransportRead    = errors.New("transport read failed")
	ErrPortInit         = errors.New("port initialization failed")
	ErrInvalidDelimiter = errors.New("invalid start delimiter")
	ErrInvalidLength    = errors.New("invalid frame length")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrFrameTooLarge    = frame.ErrFrameTooLarge
)

// Receive phase timeouts
var (
	ErrTimeoutStartDelimiter = fmt.Errorf("start delimiter: %w", ErrTimeout)
	ErrTimeoutLength         = fmt.Errorf("frame length: %w", ErrTimeout)
	ErrTimeoutBody           = fmt.Errorf("frame body: %w", ErrTimeout)
)

// Exchange errors
var (
	ErrSocketCreateTimeout   = fmt.Errorf("socket create: %w", ErrTimeout)
	ErrSocketConnectTimeout  = fmt.Errorf("socket connect: %w", ErrTimeout)
	ErrSocketCreateRejected  = fmt.Errorf("socket create: %w", ErrDeviceRejected)
	ErrSocketConnectRejected = fmt.Errorf("socket connect: %w", ErrDeviceRejected)
	ErrAttachFailed          = fmt.Errorf("network attach failed: %w", ErrTimeout)
)

// Argument errors
var (
	ErrInvalidCommand  = fmt.Errorf("unknown AT command: %w", ErrInvalidArgument)
	ErrNullPayload     = fmt.Errorf("nil or empty payload: %w", ErrInvalidArgument)
	ErrPayloadTooLarge = fmt.Errorf("payload too large: %w", ErrInvalidArgument)
)

// Device state errors
var (
	ErrBusy         = errors.New("another exchange is pending")
	ErrClosed       = errors.New("device closed")
	ErrNotSupported = errors.New("operation not supported")
)

// ErrorType classifies errors for retry decisions
type ErrorType int

const (
	// ErrorTypePermanent errors will not go away on retry.
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeTransient errors may succeed on a later attempt.
	ErrorTypeTransient
	// ErrorTypeTimeout errors ran out of time waiting on the device.
	ErrorTypeTimeout
)

// String returns the error type name
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return "permanent"
	}
}

// TransportError wraps a failure on the serial link with the operation and
// port it happened on.
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

// Error implements error
func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s on %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a transport error. Everything except permanent
// errors is retryable.
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       err,
		Type:      errType,
		Retryable: errType != ErrorTypePermanent,
	}
}

// NewDataTooLargeError creates a permanent frame size error
func NewDataTooLargeError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrFrameTooLarge, ErrorTypePermanent)
}

// ATError reports a non-zero status in an AT command response.
type ATError struct {
	Command ATCommand
	Status  ATStatus
}

// Error implements error
func (e *ATError) Error() string {
	return fmt.Sprintf("AT%s failed: %s", e.Command, e.Status)
}

// Unwrap makes ATError match ErrDeviceRejected
func (*ATError) Unwrap() error {
	return ErrDeviceRejected
}

// DeliveryError reports a non-zero transmit status.
type DeliveryError struct {
	FrameID byte
	Status  DeliveryStatus
}

// Error implements error
func (e *DeliveryError) Error() string {
	return fmt.Sprintf("frame %d not delivered: status 0x%02X", e.FrameID, byte(e.Status))
}

// Unwrap makes DeliveryError match ErrDeviceRejected
func (*DeliveryError) Unwrap() error {
	return ErrDeviceRejected
}

// IsRetryable reports whether an operation that failed with err may succeed
// when repeated.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}

	switch {
	case errors.Is(err, ErrTimeout),
		errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrUARTFailure),
		errors.Is(err, ErrChecksumMismatch),
		errors.Is(err, ErrInvalidDelimiter):
		return true
	default:
		return false
	}
}

// GetErrorType returns the retry classification of err
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}

	switch {
	case errors.Is(err, ErrTimeout):
		return ErrorTypeTimeout
	case errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrUARTFailure),
		errors.Is(err, ErrChecksumMismatch),
		errors.Is(err, ErrInvalidDelimiter):
		return ErrorTypeTransient
	default:
		return ErrorTypePermanent
	}
}

// IsFramingError reports whether err is a malformed frame on the wire.
func IsFramingError(err error) bool {
	return errors.Is(err, ErrInvalidDelimiter) ||
		errors.Is(err, ErrInvalidLength) ||
		errors.Is(err, ErrFrameTooLarge) ||
		errors.Is(err, ErrChecksumMismatch)
}
