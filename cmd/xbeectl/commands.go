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

package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"time"

	xbee "github.com/ZaparooProject/go-xbee"
	"github.com/ZaparooProject/go-xbee/cellular"
	"github.com/ZaparooProject/go-xbee/detection"
	"github.com/ZaparooProject/go-xbee/lr"
	"github.com/ZaparooProject/go-xbee/polling"
	"go.uber.org/zap"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(fs.Output(), "Usage: xbeectl %s\n", commands[name].usage)
		fs.PrintDefaults()
	}
	return fs
}

func runDetect(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("detect")
	probe := fs.Bool("probe", false, "Open each port and read its firmware version")
	all := fs.Bool("all", false, "Include USB serial ports with unknown VID:PID")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := detection.DefaultOptions()
	opts.Probe = *probe
	opts.IncludeUnknown = *all
	opts.BaudRate = a.cfg.Device.BaudRate

	devices, err := detection.DetectAll(ctx, &opts)
	if err != nil {
		return err
	}
	for _, d := range devices {
		mark := " "
		if d.Known {
			mark = "*"
		}
		_, _ = fmt.Printf("%s %-24s %-10s %s", mark, d.Path, d.Metadata["vid_pid"], d.Name)
		if fw := d.Metadata["firmware"]; fw != "" {
			_, _ = fmt.Printf(" (firmware %s)", fw)
		}
		_, _ = fmt.Println()
	}
	return nil
}

func runInfo(ctx context.Context, a *app, _ []string) error {
	s, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	fw, err := s.dev.FirmwareVersion(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Printf("Firmware:    %X\n", fw)

	if dd, err := s.dev.QueryUint(ctx, xbee.ATDeviceType); err == nil {
		_, _ = fmt.Printf("Device type: %08X\n", dd)
	}
	sh, errH := s.dev.QueryUint(ctx, xbee.ATSerialHigh)
	sl, errL := s.dev.QueryUint(ctx, xbee.ATSerialLow)
	if errH == nil && errL == nil {
		_, _ = fmt.Printf("Serial:      %08X%08X\n", sh, sl)
	}

	switch {
	case s.cell != nil:
		if imei, err := s.dev.SendATCommandAndGetResponseContext(ctx, xbee.ATIMEI, nil, 0); err == nil {
			_, _ = fmt.Printf("IMEI:        %s\n", strings.TrimSpace(string(imei)))
		}
		attached, err := s.dev.ConnectedContext(ctx)
		if err != nil {
			return err
		}
		_, _ = fmt.Printf("Attached:    %t\n", attached)
	case s.lr != nil:
		eui, err := s.lr.DevEUI(ctx)
		if err != nil {
			return err
		}
		_, _ = fmt.Printf("DevEUI:      %s\n", eui)
		joined, err := s.dev.ConnectedContext(ctx)
		if err != nil {
			return err
		}
		_, _ = fmt.Printf("Joined:      %t\n", joined)
	}
	return nil
}

func runAttach(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("attach")
	save := fs.Bool("save", false, "Write the applied settings to non-volatile memory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	start := time.Now()
	err = s.dev.ConnectContext(ctx)
	a.logger.Info("attach finished",
		zap.Stringer("state", s.dev.AttachState()),
		zap.Duration("elapsed", time.Since(start)))
	if err != nil {
		return err
	}
	_, _ = fmt.Println(s.dev.AttachState())
	if *save {
		return saveSettings(ctx, s.dev)
	}
	return nil
}

// saveSettings persists the settings Connect wrote, then applies them
func saveSettings(ctx context.Context, d *xbee.Device) error {
	if err := d.WriteConfig(ctx); err != nil {
		return err
	}
	return d.ApplyChanges(ctx)
}

func runReset(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("reset")
	hard := fs.Bool("hard", false, "Pulse the reset line instead of sending a command")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	if *hard {
		return s.dev.HardResetContext(ctx)
	}
	return s.dev.SoftResetContext(ctx)
}

func runHTTPGet(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("http-get")
	useTLS := fs.Bool("tls", false, "Use a TLS socket")
	port := fs.Uint("port", 0, "Remote port (default 80, or 443 with -tls)")
	wait := fs.Duration("wait", 30*time.Second, "How long to read the response")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return flag.ErrHelp
	}
	host := fs.Arg(0)
	path := "/"
	if fs.NArg() > 1 {
		path = fs.Arg(1)
	}
	remotePort, err := httpPort(*port, *useTLS)
	if err != nil {
		return err
	}

	s, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer s.close()
	if err := s.requireCellular(); err != nil {
		return err
	}
	if err := s.dev.ConnectContext(ctx); err != nil {
		return err
	}

	proto := cellular.ProtocolTCP
	if *useTLS {
		proto = cellular.ProtocolTLS
	}
	id, err := s.cell.SocketCreate(ctx, proto)
	if err != nil {
		return err
	}
	defer func() { _ = s.cell.SocketClose(context.Background(), id) }()

	if err := s.cell.SocketConnect(ctx, id, host, remotePort, *useTLS); err != nil {
		return err
	}
	if err := s.cell.SocketSend(ctx, id, httpRequest(host, path)); err != nil {
		return err
	}

	deadline := time.Now().Add(*wait)
	for time.Now().Before(deadline) && sessionOpen(s.cell, id) {
		if err := s.dev.ProcessContext(ctx); err != nil {
			return err
		}
		drainSocket(a.received, id)
	}
	drainSocket(a.received, id)
	return nil
}

func runUDPEcho(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("udp-echo")
	wait := fs.Duration("wait", 10*time.Second, "How long to wait for replies")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return flag.ErrHelp
	}
	remote, err := netip.ParseAddrPort(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("remote %q: %w", fs.Arg(0), xbee.ErrInvalidArgument)
	}

	s, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer s.close()
	if err := s.requireCellular(); err != nil {
		return err
	}
	if err := s.dev.ConnectContext(ctx); err != nil {
		return err
	}

	actor := polling.NewDeviceActor(s.dev, nil, polling.DeviceCallbacks{
		OnProcessError: func(err error) { a.logger.Debug("process", zap.Error(err)) },
	})
	if err := actor.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = actor.Stop(context.Background()) }()

	packet := &cellular.Packet{
		IP:       remote.Addr(),
		Port:     remote.Port(),
		Protocol: cellular.ProtocolUDP,
		Payload:  []byte(fs.Arg(1)),
	}
	err = actor.Do(ctx, func(ctx context.Context, d *xbee.Device) error {
		return d.SendDataContext(ctx, packet)
	})
	if err != nil {
		return err
	}

	timer := time.NewTimer(*wait)
	defer timer.Stop()
	for {
		select {
		case p := <-a.received:
			if pkt, ok := p.(*cellular.Packet); ok {
				_, _ = fmt.Printf("%s:%d %q\n", pkt.IP, pkt.Port, pkt.Payload)
			}
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func runJoin(ctx context.Context, a *app, _ []string) error {
	s, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer s.close()
	if err := s.requireLR(); err != nil {
		return err
	}

	if err := s.dev.ConnectContext(ctx); err != nil {
		return err
	}
	eui, err := s.lr.DevEUI(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Printf("joined as %s\n", eui)
	return nil
}

func runUplink(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("uplink")
	ack := fs.Bool("ack", false, "Request a confirmed uplink")
	isHex := fs.Bool("hex", false, "Payload is hex encoded")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return flag.ErrHelp
	}
	packet, err := uplinkPacket(fs.Arg(0), fs.Arg(1), *isHex, *ack)
	if err != nil {
		return err
	}

	s, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer s.close()
	if err := s.requireLR(); err != nil {
		return err
	}

	joined, err := s.dev.ConnectedContext(ctx)
	if err != nil {
		return err
	}
	if !joined {
		if err := s.dev.ConnectContext(ctx); err != nil {
			return err
		}
	}
	if err := s.lr.SendAndWait(ctx, packet); err != nil {
		return err
	}
	_, _ = fmt.Printf("uplink delivered on port %d (%d bytes)\n", packet.Port, len(packet.Payload))

	// a class A downlink arrives right after the uplink
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if err := s.dev.ProcessContext(ctx); err != nil {
			return err
		}
		select {
		case p := <-a.received:
			if down, ok := p.(*lr.Packet); ok {
				_, _ = fmt.Printf("downlink port %d: %X\n", down.Port, down.Payload)
			}
		default:
		}
	}
	return nil
}

func httpPort(port uint, useTLS bool) (uint16, error) {
	switch {
	case port == 0 && useTLS:
		return 443, nil
	case port == 0:
		return 80, nil
	case port > 65535:
		return 0, fmt.Errorf("port %d: %w", port, xbee.ErrInvalidArgument)
	default:
		return uint16(port), nil
	}
}

func httpRequest(host, path string) []byte {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return []byte("GET " + path + " HTTP/1.1\r\nHost: " + host + "\r\nConnection: close\r\n\r\n")
}

func uplinkPacket(port, payload string, isHex, ack bool) (*lr.Packet, error) {
	n, err := strconv.ParseUint(port, 10, 8)
	if err != nil {
		return nil, fmt.Errorf("uplink port %q: %w", port, xbee.ErrInvalidArgument)
	}
	data := []byte(payload)
	if isHex {
		if data, err = hex.DecodeString(payload); err != nil {
			return nil, fmt.Errorf("uplink payload: %w", xbee.ErrInvalidArgument)
		}
	}
	return &lr.Packet{Port: byte(n), Ack: ack, Payload: data}, nil
}

func sessionOpen(m *cellular.Modem, id byte) bool {
	for _, s := range m.Sessions() {
		if s.ID == id {
			return true
		}
	}
	return false
}

// drainSocket prints queued payloads received on socket id
func drainSocket(received <-chan any, id byte) {
	for {
		select {
		case p := <-received:
			if pkt, ok := p.(*cellular.Packet); ok && pkt.SocketID == id {
				_, _ = fmt.Print(string(pkt.Payload))
			}
		default:
			return
		}
	}
}
