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

// Package lr implements the XBee LR (LoRaWAN) variant: network keys and
// region settings, over-the-air join, uplinks and downlink delivery.
package lr

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	xbee "github.com/ZaparooProject/go-xbee"
	"go.uber.org/zap"
)

// DefaultTxStatusTimeout bounds the wait for an uplink's transmit status
const DefaultTxStatusTimeout = 5000 * time.Millisecond

// Config holds the LoRaWAN settings applied before joining. Zero values are
// left unchanged on the module.
type Config struct {
	AppEUI       string `mapstructure:"app_eui" yaml:"app_eui"`
	AppKey       string `mapstructure:"app_key" yaml:"app_key"`
	NwkKey       string `mapstructure:"nwk_key" yaml:"nwk_key"`
	ChannelsMask string `mapstructure:"channels_mask" yaml:"channels_mask"`
	JoinRX1Delay uint32 `mapstructure:"join_rx1_delay" yaml:"join_rx1_delay"`
	RX2Frequency uint32 `mapstructure:"rx2_frequency" yaml:"rx2_frequency"`
	// Region is the module's region code, e.g. 8 for US915
	Region byte `mapstructure:"region" yaml:"region"`
	// Class is the device class as an ASCII letter: 'A', 'B' or 'C'
	Class byte `mapstructure:"class" yaml:"class"`
	// APIOptions is written with AO; 1 selects explicit receive frames
	APIOptions byte `mapstructure:"api_options" yaml:"api_options"`
}

// Modem is an XBee LR module
type Modem struct {
	*xbee.Device
	v *variant
}

type variant struct {
	config    Config
	txTimeout time.Duration
}

// New creates an LR modem on port
func New(port xbee.Port, opts ...xbee.Option) (*Modem, error) {
	v := &variant{txTimeout: DefaultTxStatusTimeout}
	device, err := xbee.New(port, v, opts...)
	if err != nil {
		return nil, err
	}
	return &Modem{Device: device, v: v}, nil
}

// SetTxStatusTimeout changes how long SendAndWait waits for the transmit status
func (m *Modem) SetTxStatusTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("tx status timeout must be positive: %w", xbee.ErrInvalidArgument)
	}
	m.v.txTimeout = timeout
	return nil
}

// CurrentConfig returns the stored configuration
func (m *Modem) CurrentConfig() Config {
	return m.v.config
}

// SetAppEUI writes the 8-byte join EUI given as 16 hex digits (AE)
func (m *Modem) SetAppEUI(ctx context.Context, eui string) error {
	return setHex(ctx, m.Device, xbee.ATAppEUI, eui, 8)
}

// SetAppKey writes the 16-byte application key given as 32 hex digits (AK)
func (m *Modem) SetAppKey(ctx context.Context, key string) error {
	return setHex(ctx, m.Device, xbee.ATAppKey, key, 16)
}

// SetNwkKey writes the 16-byte network key given as 32 hex digits (NK)
func (m *Modem) SetNwkKey(ctx context.Context, key string) error {
	return setHex(ctx, m.Device, xbee.ATNwkKey, key, 16)
}

// SetRegion selects the regional channel plan (LR)
func (m *Modem) SetRegion(ctx context.Context, region byte) error {
	return m.SetAndConfirm(ctx, xbee.ATRegion, []byte{region})
}

// SetClass selects the LoRaWAN device class (LC)
func (m *Modem) SetClass(ctx context.Context, class byte) error {
	switch class {
	case 'A', 'B', 'C':
	default:
		return fmt.Errorf("class %q: %w", class, xbee.ErrInvalidArgument)
	}
	return m.SetAndConfirm(ctx, xbee.ATClass, []byte{class})
}

// SetJoinRX1Delay sets the join accept RX1 delay in milliseconds (J1)
func (m *Modem) SetJoinRX1Delay(ctx context.Context, delay uint32) error {
	return m.SetAndConfirm(ctx, xbee.ATJoinRX1Delay, binary.BigEndian.AppendUint32(nil, delay))
}

// SetRX2Frequency sets the RX2 window frequency in Hz (XF)
func (m *Modem) SetRX2Frequency(ctx context.Context, freq uint32) error {
	return m.SetAndConfirm(ctx, xbee.ATRX2Frequency, binary.BigEndian.AppendUint32(nil, freq))
}

// SetChannelsMask sets the enabled channel mask, given as hex digits (CM)
func (m *Modem) SetChannelsMask(ctx context.Context, mask string) error {
	b, err := xbee.EvenHex(mask)
	if err != nil {
		return fmt.Errorf("channels mask: %w", err)
	}
	return m.SetAndConfirm(ctx, xbee.ATChannelsMask, b)
}

// DevEUI reads the device EUI as upper-case hex (DE)
func (m *Modem) DevEUI(ctx context.Context) (string, error) {
	value, err := m.SendATCommandAndGetResponseContext(ctx, xbee.ATDevEUI, nil, 0)
	if err != nil {
		return "", fmt.Errorf("read DevEUI: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(value)), nil
}

func setHex(ctx context.Context, d *xbee.Device, cmd xbee.ATCommand, s string, size int) error {
	b, err := xbee.ASCIIToHex(s, size)
	if err != nil {
		return fmt.Errorf("AT%s: %w", cmd, err)
	}
	return d.SetAndConfirm(ctx, cmd, b)
}

func (*variant) Init(_ context.Context, d *xbee.Device) error {
	d.Logger().Debug("LR variant initialized")
	return nil
}

func (v *variant) Configure(config any) error {
	switch c := config.(type) {
	case Config:
		v.config = c
	case *Config:
		if c == nil {
			return fmt.Errorf("nil LR config: %w", xbee.ErrInvalidArgument)
		}
		v.config = *c
	default:
		return fmt.Errorf("unsupported LR config %T: %w", config, xbee.ErrInvalidArgument)
	}
	return nil
}

// Connect writes the stored settings, requests a join and polls the join
// status until the module reports it has joined.
func (v *variant) Connect(ctx context.Context, d *xbee.Device) error {
	return d.Attach(ctx, func(ctx context.Context) error {
		if err := v.applyConfig(ctx, d); err != nil {
			return err
		}
		_, err := d.SendFrameWithID(ctx, xbee.FrameTypeLRJoinRequest, nil)
		return err
	}, func(ctx context.Context) (bool, error) {
		return v.Connected(ctx, d)
	})
}

func (v *variant) applyConfig(ctx context.Context, d *xbee.Device) error {
	m := &Modem{Device: d, v: v}
	c := v.config
	if c.AppEUI != "" {
		if err := m.SetAppEUI(ctx, c.AppEUI); err != nil {
			return err
		}
	}
	if c.AppKey != "" {
		if err := m.SetAppKey(ctx, c.AppKey); err != nil {
			return err
		}
	}
	if c.NwkKey != "" {
		if err := m.SetNwkKey(ctx, c.NwkKey); err != nil {
			return err
		}
	}
	if c.Region != 0 {
		if err := m.SetRegion(ctx, c.Region); err != nil {
			return err
		}
	}
	if c.Class != 0 {
		if err := m.SetClass(ctx, c.Class); err != nil {
			return err
		}
	}
	if c.JoinRX1Delay != 0 {
		if err := m.SetJoinRX1Delay(ctx, c.JoinRX1Delay); err != nil {
			return err
		}
	}
	if c.RX2Frequency != 0 {
		if err := m.SetRX2Frequency(ctx, c.RX2Frequency); err != nil {
			return err
		}
	}
	if c.ChannelsMask != "" {
		if err := m.SetChannelsMask(ctx, c.ChannelsMask); err != nil {
			return err
		}
	}
	if c.APIOptions != 0 {
		if err := d.SetAPIOptions(ctx, c.APIOptions); err != nil {
			return err
		}
	}
	return nil
}

// Disconnect has no module-side counterpart; the module stays joined.
func (*variant) Disconnect(_ context.Context, d *xbee.Device) error {
	d.Logger().Debug("LR disconnect is a no-op")
	return nil
}

// SoftReset resets the network stack (NR). The module may restart before it
// answers, so the response is not awaited.
func (*variant) SoftReset(ctx context.Context, d *xbee.Device) error {
	return d.SendATCommandContext(ctx, xbee.ATNetworkReset, nil)
}

func (*variant) HardReset(ctx context.Context, d *xbee.Device) error {
	return d.PulseReset(ctx)
}

// Connected reports whether JS reads one
func (*variant) Connected(ctx context.Context, d *xbee.Device) (bool, error) {
	value, err := d.SendATCommandAndGetResponseContext(ctx, xbee.ATJoinStatus, nil, 0)
	if err != nil {
		if errors.Is(err, xbee.ErrTimeout) || errors.Is(err, xbee.ErrDeviceRejected) {
			d.Logger().Debug("join status unanswered", zap.Error(err))
			return false, nil
		}
		return false, err
	}
	return len(value) > 0 && value[0] == 1, nil
}

func (*variant) Process(ctx context.Context, d *xbee.Device) error {
	return d.DispatchNext(ctx)
}
