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
	"testing"
	"time"

	testutil "github.com/ZaparooProject/go-xbee/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigCommands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		call  func(ctx context.Context, d *Device) error
		name  string
		cmd   ATCommand
		param []byte
	}{
		{name: "write config", call: func(ctx context.Context, d *Device) error { return d.WriteConfig(ctx) }, cmd: ATWrite},
		{name: "apply changes", call: func(ctx context.Context, d *Device) error { return d.ApplyChanges(ctx) }, cmd: ATApplyChanges},
		{
			name:  "api options",
			call:  func(ctx context.Context, d *Device) error { return d.SetAPIOptions(ctx, 0x01) },
			cmd:   ATAPIOptions,
			param: []byte{0x01},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			t.Run("accepted", func(t *testing.T) {
				t.Parallel()
				device, port := newTestDevice(t, nil)
				port.SetResponder(testutil.ATResponder(func(string, []byte) testutil.ATReply {
					return testutil.ATReply{}
				}))

				require.NoError(t, tt.call(t.Context(), device))
				frames := port.Frames()
				require.Len(t, frames, 1)
				assert.Equal(t, byte(FrameTypeATCommand), frames[0].Type)
				want := append([]byte{0x01, tt.cmd[0], tt.cmd[1]}, tt.param...)
				assert.Equal(t, want, frames[0].Data)
			})

			t.Run("rejected", func(t *testing.T) {
				t.Parallel()
				device, port := newTestDevice(t, nil)
				port.SetResponder(testutil.ATResponder(func(string, []byte) testutil.ATReply {
					return testutil.ATReply{Status: byte(ATStatusError)}
				}))

				err := tt.call(t.Context(), device)
				require.ErrorIs(t, err, ErrDeviceRejected)
				var atErr *ATError
				require.ErrorAs(t, err, &atErr)
				assert.Equal(t, tt.cmd, atErr.Command)
				assert.Equal(t, ATStatusError, atErr.Status)
			})

			t.Run("unanswered", func(t *testing.T) {
				t.Parallel()
				device, _ := newTestDevice(t, nil, WithATTimeout(100*time.Millisecond))
				require.ErrorIs(t, tt.call(t.Context(), device), ErrTimeout)
			})
		})
	}
}
