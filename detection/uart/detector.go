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

// Package uart finds XBee modules on USB serial ports. Importing it registers
// the detector with the detection package.
package uart

import (
	"context"
	"fmt"
	"strings"
	"time"

	xbee "github.com/ZaparooProject/go-xbee"
	"github.com/ZaparooProject/go-xbee/detection"
	"github.com/ZaparooProject/go-xbee/transport/uart"
	"go.bug.st/serial/enumerator"
)

// probeTimeout bounds one port probe
const probeTimeout = time.Second

type (
	listFunc  func() ([]*enumerator.PortDetails, error)
	probeFunc func(ctx context.Context, path string, baud int) (map[string]string, error)
)

// detector implements detection.Detector for USB serial ports
type detector struct {
	list  listFunc
	probe probeFunc
}

// New creates a UART detector
func New() detection.Detector {
	return &detector{
		list:  enumerator.GetDetailedPortsList,
		probe: probePort,
	}
}

func init() {
	detection.RegisterDetector(New())
}

// Transport returns the transport type
func (*detector) Transport() string {
	return "uart"
}

// Detect lists USB serial ports and, with opts.Probe, asks each candidate for
// its firmware version.
func (d *detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	ports, err := d.list()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}

	devices := candidates(ports, opts)
	if !opts.Probe {
		return devices, nil
	}

	for i := range devices {
		if err := ctx.Err(); err != nil {
			return devices, err
		}
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		meta, err := d.probe(probeCtx, devices[i].Path, opts.BaudRate)
		cancel()
		if err != nil {
			devices[i].Metadata["probe_error"] = err.Error()
			continue
		}
		devices[i].Known = true
		for k, v := range meta {
			devices[i].Metadata[k] = v
		}
	}
	return devices, nil
}

// usbID returns the port's VID:PID. Some drivers leave VID and PID empty and
// only describe the device in Product, which is parsed instead.
func usbID(p *enumerator.PortDetails) string {
	if p.VID != "" && p.PID != "" {
		return strings.ToUpper(p.VID + ":" + p.PID)
	}
	return detection.ParseVIDPID(p.Product)
}

// candidates filters the enumerated ports down to the ones worth reporting
func candidates(ports []*enumerator.PortDetails, opts *detection.Options) []detection.DeviceInfo {
	devices := make([]detection.DeviceInfo, 0, len(ports))
	for _, p := range ports {
		if p == nil || !p.IsUSB {
			continue
		}
		if detection.IsPathIgnored(p.Name, opts.IgnorePaths) {
			continue
		}
		vidpid := usbID(p)
		if detection.IsBlocked(vidpid, opts.Blocklist) {
			continue
		}

		board, known := detection.KnownBoard(vidpid)
		if !known && !opts.IncludeUnknown {
			continue
		}
		name := board
		if name == "" {
			name = p.Product
		}
		if name == "" {
			name = "USB serial device"
		}

		devices = append(devices, detection.DeviceInfo{
			Transport: "uart",
			Path:      p.Name,
			Name:      name,
			Known:     known,
			Metadata: map[string]string{
				"vid_pid":       vidpid,
				"serial_number": p.SerialNumber,
				"product":       p.Product,
			},
		})
	}
	return devices
}

func probePort(ctx context.Context, path string, baud int) (map[string]string, error) {
	dev, err := xbee.New(uart.New(), probeVariant{},
		xbee.WithOwnedPort(),
		xbee.WithATTimeout(probeTimeout),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = dev.Close() }()

	if err := dev.InitContext(ctx, baud, path); err != nil {
		return nil, err
	}
	return identify(ctx, dev)
}

// identify reads VR and DD from an initialized device
func identify(ctx context.Context, dev *xbee.Device) (map[string]string, error) {
	fw, err := dev.FirmwareVersion(ctx)
	if err != nil {
		return nil, err
	}
	meta := map[string]string{"firmware": fmt.Sprintf("%X", fw)}
	if dd, err := dev.QueryUint(ctx, xbee.ATDeviceType); err == nil {
		meta["device_type"] = fmt.Sprintf("%08X", dd)
	}
	return meta, nil
}

// probeVariant supports only the generic AT exchange a probe needs
type probeVariant struct{}

func (probeVariant) Init(context.Context, *xbee.Device) error { return nil }
func (probeVariant) Configure(any) error                      { return xbee.ErrNotSupported }

func (probeVariant) Connect(context.Context, *xbee.Device) error {
	return xbee.ErrNotSupported
}

func (probeVariant) Disconnect(context.Context, *xbee.Device) error {
	return xbee.ErrNotSupported
}

func (probeVariant) SendData(context.Context, *xbee.Device, any) error {
	return xbee.ErrNotSupported
}

func (probeVariant) SoftReset(context.Context, *xbee.Device) error {
	return xbee.ErrNotSupported
}

func (probeVariant) HardReset(ctx context.Context, d *xbee.Device) error {
	return d.PulseReset(ctx)
}

func (probeVariant) Connected(context.Context, *xbee.Device) (bool, error) {
	return false, nil
}

func (probeVariant) Process(ctx context.Context, d *xbee.Device) error {
	return d.DispatchNext(ctx)
}
