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
	"errors"
	"fmt"
	"net/http"
	"time"

	xbee "github.com/ZaparooProject/go-xbee"
	"github.com/ZaparooProject/go-xbee/cellular"
	"github.com/ZaparooProject/go-xbee/detection"
	_ "github.com/ZaparooProject/go-xbee/detection/uart" // registers the serial detector
	"github.com/ZaparooProject/go-xbee/internal/config"
	"github.com/ZaparooProject/go-xbee/lr"
	"github.com/ZaparooProject/go-xbee/metrics"
	"github.com/ZaparooProject/go-xbee/resetpin"
	"github.com/ZaparooProject/go-xbee/transport/uart"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// app holds what every command shares
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	recorder *metrics.Recorder
	server   *http.Server
	received chan any
	sent     chan xbee.TxStatus
}

// session is one opened module
type session struct {
	dev  *xbee.Device
	cell *cellular.Modem
	lr   *lr.Modem
}

func newApp(cfg *config.Config, logger *zap.Logger) *app {
	reg := metrics.NewRegistry()
	a := &app{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		recorder: metrics.NewRecorder(reg),
		received: make(chan any, 64),
		sent:     make(chan xbee.TxStatus, 16),
	}
	if cfg.Metrics.Enable {
		a.serveMetrics()
	}
	return a
}

func (a *app) serveMetrics() {
	mux := http.NewServeMux()
	mux.Handle(a.cfg.Metrics.Path, metrics.Handler(a.registry))
	a.server = &http.Server{
		Addr:              a.cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	a.logger.Info("serving metrics",
		zap.String("addr", a.cfg.Metrics.Addr),
		zap.String("path", a.cfg.Metrics.Path))
}

func (a *app) shutdown() {
	if a.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = a.server.Shutdown(ctx)
}

// callbacks forward device events to channels. Full channels drop events.
func (a *app) callbacks() xbee.Callbacks {
	return xbee.Callbacks{
		OnReceive: func(_ *xbee.Device, packet any) {
			select {
			case a.received <- packet:
			default:
				a.logger.Warn("receive queue full, dropping packet")
			}
		},
		OnSend: func(_ *xbee.Device, status xbee.TxStatus) {
			select {
			case a.sent <- status:
			default:
			}
		},
	}
}

// resolvePort returns the configured port, or the best detected one
func (a *app) resolvePort(ctx context.Context) (string, error) {
	if a.cfg.Device.Port != "" {
		return a.cfg.Device.Port, nil
	}
	opts := detection.DefaultOptions()
	opts.BaudRate = a.cfg.Device.BaudRate
	devices, err := detection.DetectAll(ctx, &opts)
	if err != nil {
		return "", fmt.Errorf("auto-detect: %w", err)
	}
	a.logger.Info("using detected device",
		zap.String("path", devices[0].Path),
		zap.String("name", devices[0].Name))
	return devices[0].Path, nil
}

// open creates, initializes and configures the module named by the config
func (a *app) open(ctx context.Context) (*session, error) {
	path, err := a.resolvePort(ctx)
	if err != nil {
		return nil, err
	}

	opts := []xbee.Option{
		xbee.WithLogger(a.logger),
		xbee.WithCallbacks(a.callbacks()),
		xbee.WithMetrics(a.recorder),
		xbee.WithReadTimeout(a.cfg.Device.ReadTimeout),
		xbee.WithATTimeout(a.cfg.Device.ATTimeout),
		xbee.WithAttachPolicy(a.cfg.Device.AttachPolicy()),
		xbee.WithOwnedPort(),
	}
	if a.cfg.Device.ResetPin != "" {
		pin, err := resetpin.Open(a.cfg.Device.ResetPin)
		if err != nil {
			return nil, err
		}
		opts = append(opts, xbee.WithResetPin(pin))
	}

	s := &session{}
	port := uart.New()
	switch a.cfg.Device.Variant {
	case config.VariantLR:
		s.lr, err = lr.New(port, opts...)
		if err == nil {
			s.dev = s.lr.Device
			var lrCfg lr.Config
			if lrCfg, err = a.cfg.LR.Modem(); err == nil {
				err = s.dev.Configure(lrCfg)
			}
		}
	default:
		s.cell, err = cellular.New(port, opts...)
		if err == nil {
			s.dev = s.cell.Device
			err = s.dev.Configure(a.cfg.Cellular)
		}
	}
	if err != nil {
		return nil, err
	}

	if err := s.dev.InitContext(ctx, a.cfg.Device.BaudRate, path); err != nil {
		_ = s.dev.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) close() {
	_ = s.dev.Close()
}

func (s *session) requireCellular() error {
	if s.cell == nil {
		return fmt.Errorf("command needs a cellular module: %w", xbee.ErrNotSupported)
	}
	return nil
}

func (s *session) requireLR() error {
	if s.lr == nil {
		return fmt.Errorf("command needs an LR module: %w", xbee.ErrNotSupported)
	}
	return nil
}
