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

package resetpin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
)

// fakeOut records levels. Only Out and String are implemented.
type fakeOut struct {
	gpio.PinOut
	err    error
	levels []gpio.Level
}

func (f *fakeOut) Out(l gpio.Level) error {
	f.levels = append(f.levels, l)
	if f.err != nil && l == gpio.Low {
		return f.err
	}
	return nil
}

func (*fakeOut) String() string { return "GPIO17" }

func TestPulse_LowThenHigh(t *testing.T) {
	t.Parallel()
	out := &fakeOut{}
	pin := New(out, WithPulseWidth(time.Millisecond))

	start := time.Now()
	require.NoError(t, pin.Pulse(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), time.Millisecond)
	assert.Equal(t, []gpio.Level{gpio.Low, gpio.High}, out.levels)
	assert.Equal(t, "GPIO17", pin.String())
}

func TestPulse_CanceledStillReleases(t *testing.T) {
	t.Parallel()
	out := &fakeOut{}
	pin := New(out, WithPulseWidth(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, pin.Pulse(ctx), context.Canceled)
	assert.Equal(t, []gpio.Level{gpio.Low, gpio.High}, out.levels)
}

func TestPulse_AssertFailure(t *testing.T) {
	t.Parallel()
	out := &fakeOut{err: errors.New("export failed")}
	pin := New(out)

	err := pin.Pulse(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GPIO17")
	assert.Equal(t, []gpio.Level{gpio.Low}, out.levels)
}

func TestWithPulseWidth_IgnoresNonPositive(t *testing.T) {
	t.Parallel()
	pin := New(&fakeOut{}, WithPulseWidth(0))
	assert.Equal(t, DefaultPulseWidth, pin.width)
}
