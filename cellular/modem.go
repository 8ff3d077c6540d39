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

// Package cellular implements the XBee 3 Cellular variant: network attach,
// IPv4 transmit/receive and the extended socket API.
package cellular

import (
	"context"
	"errors"
	"fmt"
	"time"

	xbee "github.com/ZaparooProject/go-xbee"
	"go.uber.org/zap"
)

// Config holds the values applied before attaching. Empty fields are not sent.
type Config struct {
	// APN is the access point name, e.g. "hologram"
	APN string `mapstructure:"apn" yaml:"apn"`
	// SIMPin unlocks the SIM
	SIMPin string `mapstructure:"sim_pin" yaml:"sim_pin"`
	// Carrier selects the carrier profile
	Carrier string `mapstructure:"carrier" yaml:"carrier"`
}

// Modem is an XBee 3 Cellular module. It embeds the generic device, so all
// device-level calls are available directly.
type Modem struct {
	*xbee.Device
	v *variant
}

type variant struct {
	sessions      map[byte]*Session
	config        Config
	socketTimeout time.Duration
}

// New creates a cellular modem on port. Options are the generic device options.
func New(port xbee.Port, opts ...xbee.Option) (*Modem, error) {
	v := &variant{
		sessions:      make(map[byte]*Session),
		socketTimeout: xbee.DefaultSocketTimeout,
	}
	device, err := xbee.New(port, v, opts...)
	if err != nil {
		return nil, err
	}
	return &Modem{Device: device, v: v}, nil
}

// SetSocketTimeout changes how long socket create, connect and bind wait for
// their response.
func (m *Modem) SetSocketTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("socket timeout must be positive: %w", xbee.ErrInvalidArgument)
	}
	m.v.socketTimeout = timeout
	return nil
}

// CurrentConfig returns the stored configuration
func (m *Modem) CurrentConfig() Config {
	return m.v.config
}

func (*variant) Init(_ context.Context, d *xbee.Device) error {
	d.Logger().Debug("cellular variant initialized")
	return nil
}

func (v *variant) Configure(config any) error {
	switch c := config.(type) {
	case Config:
		v.config = c
	case *Config:
		if c == nil {
			return fmt.Errorf("nil cellular config: %w", xbee.ErrInvalidArgument)
		}
		v.config = *c
	default:
		return fmt.Errorf("unsupported cellular config %T: %w", config, xbee.ErrInvalidArgument)
	}
	return nil
}

// Connect sends the SIM PIN, APN and carrier profile, then polls the
// association indicator until the module reports it is attached.
func (v *variant) Connect(ctx context.Context, d *xbee.Device) error {
	return d.Attach(ctx, func(ctx context.Context) error {
		return v.applyConfig(ctx, d)
	}, func(ctx context.Context) (bool, error) {
		return v.Connected(ctx, d)
	})
}

func (v *variant) applyConfig(ctx context.Context, d *xbee.Device) error {
	settings := []struct {
		cmd   xbee.ATCommand
		value string
	}{
		{xbee.ATSIMPin, v.config.SIMPin},
		{xbee.ATAccessPoint, v.config.APN},
		{xbee.ATCarrierProfile, v.config.Carrier},
	}
	for _, s := range settings {
		if s.value == "" {
			continue
		}
		if err := d.SendATCommandContext(ctx, s.cmd, []byte(s.value)); err != nil {
			return fmt.Errorf("apply AT%s: %w", s.cmd, err)
		}
	}
	return nil
}

func (v *variant) Disconnect(ctx context.Context, d *xbee.Device) error {
	return v.shutdown(ctx, d)
}

func (v *variant) SoftReset(ctx context.Context, d *xbee.Device) error {
	return v.shutdown(ctx, d)
}

func (v *variant) shutdown(ctx context.Context, d *xbee.Device) error {
	if err := d.SendATCommandContext(ctx, xbee.ATShutdown, nil); err != nil {
		return err
	}
	v.dropSessions()
	return nil
}

func (v *variant) HardReset(ctx context.Context, d *xbee.Device) error {
	if err := d.PulseReset(ctx); err != nil {
		return err
	}
	v.dropSessions()
	return nil
}

// Connected reports whether AI reads zero. A module that times out or rejects
// the query counts as not attached.
func (*variant) Connected(ctx context.Context, d *xbee.Device) (bool, error) {
	value, err := d.SendATCommandAndGetResponseContext(ctx, xbee.ATAssociation, nil, 0)
	if err != nil {
		if errors.Is(err, xbee.ErrTimeout) || errors.Is(err, xbee.ErrDeviceRejected) {
			d.Logger().Debug("association query unanswered", zap.Error(err))
			return false, nil
		}
		return false, err
	}
	return len(value) > 0 && value[0] == 0, nil
}

func (*variant) Process(ctx context.Context, d *xbee.Device) error {
	return d.DispatchNext(ctx)
}

func (v *variant) dropSessions() {
	for id, s := range v.sessions {
		s.State = SessionClosed
		delete(v.sessions, id)
	}
}
