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

// Package config loads xbeectl settings from a file, XBEE_ environment
// variables and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	xbee "github.com/ZaparooProject/go-xbee"
	"github.com/ZaparooProject/go-xbee/cellular"
	"github.com/ZaparooProject/go-xbee/lr"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Variant names
const (
	VariantCellular = "cellular"
	VariantLR       = "lr"
)

// DeviceConfig selects and opens the module
type DeviceConfig struct {
	// Variant is "cellular" or "lr"
	Variant string `mapstructure:"variant" yaml:"variant"`
	// Port is the serial device; empty means auto-detect
	Port     string `mapstructure:"port" yaml:"port"`
	BaudRate int    `mapstructure:"baud_rate" yaml:"baud_rate"`
	// ResetPin names a host GPIO wired to the module's RESET line
	ResetPin       string        `mapstructure:"reset_pin" yaml:"reset_pin"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	ATTimeout      time.Duration `mapstructure:"at_timeout" yaml:"at_timeout"`
	AttachAttempts int           `mapstructure:"attach_attempts" yaml:"attach_attempts"`
	AttachInterval time.Duration `mapstructure:"attach_interval" yaml:"attach_interval"`
}

// AttachPolicy converts the attach settings
func (c DeviceConfig) AttachPolicy() xbee.AttachPolicy {
	return xbee.AttachPolicy{Attempts: c.AttachAttempts, Interval: c.AttachInterval}
}

// LRConfig mirrors lr.Config with the device class as a letter
type LRConfig struct {
	AppEUI       string `mapstructure:"app_eui" yaml:"app_eui"`
	AppKey       string `mapstructure:"app_key" yaml:"app_key"`
	NwkKey       string `mapstructure:"nwk_key" yaml:"nwk_key"`
	ChannelsMask string `mapstructure:"channels_mask" yaml:"channels_mask"`
	Class        string `mapstructure:"class" yaml:"class"`
	JoinRX1Delay uint32 `mapstructure:"join_rx1_delay" yaml:"join_rx1_delay"`
	RX2Frequency uint32 `mapstructure:"rx2_frequency" yaml:"rx2_frequency"`
	Region       uint8  `mapstructure:"region" yaml:"region"`
	APIOptions   uint8  `mapstructure:"api_options" yaml:"api_options"`
}

// Modem converts to the lr package's config
func (c LRConfig) Modem() (lr.Config, error) {
	out := lr.Config{
		AppEUI:       c.AppEUI,
		AppKey:       c.AppKey,
		NwkKey:       c.NwkKey,
		ChannelsMask: c.ChannelsMask,
		JoinRX1Delay: c.JoinRX1Delay,
		RX2Frequency: c.RX2Frequency,
		Region:       c.Region,
		APIOptions:   c.APIOptions,
	}
	switch class := strings.ToUpper(strings.TrimSpace(c.Class)); class {
	case "":
	case "A", "B", "C":
		out.Class = class[0]
	default:
		return lr.Config{}, fmt.Errorf("lr class %q: %w", c.Class, xbee.ErrInvalidArgument)
	}
	return out, nil
}

// LumberjackConfig controls log file rotation
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename" yaml:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// LoggingConfig holds the log level, encoding and optional file output
type LoggingConfig struct {
	Level  string           `mapstructure:"level" yaml:"level"`
	Format string           `mapstructure:"format" yaml:"format"`
	File   LumberjackConfig `mapstructure:"file" yaml:"file"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Addr   string `mapstructure:"addr" yaml:"addr"`
	Path   string `mapstructure:"path" yaml:"path"`
	Enable bool   `mapstructure:"enable" yaml:"enable"`
}

// Config is the top-level configuration
type Config struct {
	Cellular cellular.Config `mapstructure:"cellular" yaml:"cellular"`
	Logging  LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Metrics  MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	LR       LRConfig        `mapstructure:"lr" yaml:"lr"`
	Device   DeviceConfig    `mapstructure:"device" yaml:"device"`
}

// Load reads path, or xbeectl.yaml from the working directory or
// $HOME/.config/xbeectl when path is empty. A missing default file is not
// an error. XBEE_ variables override file values, with dots replaced by
// underscores (XBEE_DEVICE_PORT).
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/xbeectl")
		v.SetConfigName("xbeectl")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix("XBEE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("device.variant", VariantCellular)
	v.SetDefault("device.port", "")
	v.SetDefault("device.baud_rate", xbee.DefaultBaudRate)
	v.SetDefault("device.reset_pin", "")
	v.SetDefault("device.read_timeout", xbee.DefaultReadTimeout)
	v.SetDefault("device.at_timeout", xbee.DefaultATTimeout)
	v.SetDefault("device.attach_attempts", xbee.DefaultAttachPolicy().Attempts)
	v.SetDefault("device.attach_interval", xbee.DefaultAttachPolicy().Interval)

	v.SetDefault("cellular.apn", "")
	v.SetDefault("cellular.sim_pin", "")
	v.SetDefault("cellular.carrier", "")

	v.SetDefault("lr.app_eui", "")
	v.SetDefault("lr.app_key", "")
	v.SetDefault("lr.nwk_key", "")
	v.SetDefault("lr.channels_mask", "")
	v.SetDefault("lr.class", "")
	v.SetDefault("lr.join_rx1_delay", 0)
	v.SetDefault("lr.rx2_frequency", 0)
	v.SetDefault("lr.region", 0)
	v.SetDefault("lr.api_options", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.max_size", 10)
	v.SetDefault("logging.file.max_backups", 3)
	v.SetDefault("logging.file.max_age", 28)
	v.SetDefault("logging.file.compress", false)

	v.SetDefault("metrics.enable", false)
	v.SetDefault("metrics.addr", ":9110")
	v.SetDefault("metrics.path", "/metrics")
}

// Validate checks values the device layer would otherwise reject later
func (c *Config) Validate() error {
	switch c.Device.Variant {
	case VariantCellular, VariantLR:
	default:
		return fmt.Errorf("device.variant %q: %w", c.Device.Variant, xbee.ErrInvalidArgument)
	}
	if c.Device.BaudRate <= 0 {
		return fmt.Errorf("device.baud_rate %d: %w", c.Device.BaudRate, xbee.ErrInvalidArgument)
	}
	if c.Device.ReadTimeout <= 0 || c.Device.ATTimeout <= 0 {
		return fmt.Errorf("device timeouts must be positive: %w", xbee.ErrInvalidArgument)
	}
	if c.Device.AttachAttempts <= 0 || c.Device.AttachInterval < 0 {
		return fmt.Errorf("device attach policy: %w", xbee.ErrInvalidArgument)
	}
	if _, err := c.LR.Modem(); err != nil {
		return err
	}
	return nil
}

// YAML renders the effective configuration
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return out, nil
}
