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

// Command xbeectl drives an XBee Cellular or LR module over a serial port.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZaparooProject/go-xbee/internal/config"
	"github.com/ZaparooProject/go-xbee/internal/logging"
	"go.uber.org/zap"
)

type globalFlags struct {
	configPath  *string
	port        *string
	variant     *string
	debug       *bool
	printConfig *bool
}

type command struct {
	run     func(ctx context.Context, a *app, args []string) error
	usage   string
	summary string
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"detect":   {run: runDetect, usage: "detect [-probe] [-all]", summary: "list serial ports with XBee modules"},
		"info":     {run: runInfo, usage: "info", summary: "print firmware, serial number and identity"},
		"attach":   {run: runAttach, usage: "attach [-save]", summary: "apply the configuration and attach to the network"},
		"reset":    {run: runReset, usage: "reset [-hard]", summary: "restart the module"},
		"http-get": {run: runHTTPGet, usage: "http-get [-tls] [-port N] host [path]", summary: "cellular: fetch a page over a TCP socket"},
		"udp-echo": {run: runUDPEcho, usage: "udp-echo [-wait D] ip:port message", summary: "cellular: send a datagram and print replies"},
		"join":     {run: runJoin, usage: "join", summary: "lr: join the LoRaWAN network"},
		"uplink":   {run: runUplink, usage: "uplink [-ack] [-hex] port payload", summary: "lr: send one uplink"},
	}
}

func usage() {
	out := flag.CommandLine.Output()
	_, _ = fmt.Fprintf(out, "Usage: xbeectl [flags] <command> [args]\n\nCommands:\n")
	for _, name := range []string{"detect", "info", "attach", "reset", "http-get", "udp-echo", "join", "uplink"} {
		_, _ = fmt.Fprintf(out, "  %-40s %s\n", commands[name].usage, commands[name].summary)
	}
	_, _ = fmt.Fprintf(out, "\nFlags:\n")
	flag.PrintDefaults()
}

func parseFlags() *globalFlags {
	flags := &globalFlags{
		configPath:  flag.String("config", "", "Config file (default: ./xbeectl.yaml or ~/.config/xbeectl/xbeectl.yaml)"),
		port:        flag.String("port", "", "Serial device path, overrides device.port. Empty means auto-detect."),
		variant:     flag.String("variant", "", "Module family: cellular or lr, overrides device.variant"),
		debug:       flag.Bool("debug", false, "Enable debug logging"),
		printConfig: flag.Bool("print-config", false, "Print the effective configuration and exit"),
	}
	flag.Usage = usage
	flag.Parse()
	return flags
}

func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(*flags.configPath)
	if err != nil {
		return nil, err
	}
	if *flags.port != "" {
		cfg.Device.Port = *flags.port
	}
	if *flags.variant != "" {
		cfg.Device.Variant = *flags.variant
	}
	if *flags.debug {
		cfg.Logging.Level = "debug"
	}
	return cfg, cfg.Validate()
}

func main() {
	os.Exit(run())
}

func run() int {
	flags := parseFlags()

	cfg, err := loadConfig(flags)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "xbeectl: %v\n", err)
		return 2
	}

	if *flags.printConfig {
		out, err := cfg.YAML()
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "xbeectl: %v\n", err)
			return 1
		}
		_, _ = os.Stdout.Write(out)
		return 0
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		return 2
	}
	cmd, ok := commands[args[0]]
	if !ok {
		_, _ = fmt.Fprintf(os.Stderr, "xbeectl: unknown command %q\n", args[0])
		usage()
		return 2
	}

	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "xbeectl: %v\n", err)
		return 1
	}
	defer func() {
		_ = logger.Sync()
		_ = closer.Close()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg, logger)
	defer a.shutdown()

	if err := cmd.run(ctx, a, args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 2
		}
		logger.Error("command failed", zap.String("command", args[0]), zap.Error(err))
		return 1
	}
	return 0
}
