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

import "fmt"

// ATCommand is a two-character AT command mnemonic
type ATCommand string

// Common commands
const (
	ATExitCommandMode ATCommand = "CN"
	ATAPIEnable       ATCommand = "AP"
	ATAPIOptions      ATCommand = "AO"
	ATBaudRate        ATCommand = "BD"
	ATWrite           ATCommand = "WR"
	ATRestoreDefaults ATCommand = "RE"
	ATFirmware        ATCommand = "VR"
	ATApplyChanges    ATCommand = "AC"
	ATNetworkReset    ATCommand = "NR"
	ATDeviceType      ATCommand = "DD"
	ATNodeID          ATCommand = "NI"
	ATSerialHigh      ATCommand = "SH"
	ATSerialLow       ATCommand = "SL"
	ATPowerLevel      ATCommand = "PL"
	ATAssociation     ATCommand = "AI"
	ATSleepMode       ATCommand = "SM"
	ATShutdown        ATCommand = "SD"
)

// Cellular commands
const (
	ATSIMPin         ATCommand = "PN"
	ATAccessPoint    ATCommand = "AN"
	ATCarrierProfile ATCommand = "CP"
	ATIPAddress      ATCommand = "MY"
	ATModemVersion   ATCommand = "VL"
	ATIMEI           ATCommand = "IM"
)

// LoRaWAN commands
const (
	ATDevEUI          ATCommand = "DE"
	ATAppKey          ATCommand = "AK"
	ATAppEUI          ATCommand = "AE"
	ATNwkKey          ATCommand = "NK"
	ATJoinStatus      ATCommand = "JS"
	ATRegion          ATCommand = "LR"
	ATClass           ATCommand = "LC"
	ATJoinRX1Delay    ATCommand = "J1"
	ATRX2Frequency    ATCommand = "XF"
	ATChannelsMask    ATCommand = "CM"
	ATTestFrequency   ATCommand = "FQ"
	ATTestPower       ATCommand = "PW"
	ATJoinRX2Delay    ATCommand = "J2"
	ATAdaptiveRate    ATCommand = "AD"
	ATDataRate        ATCommand = "DR"
	ATUplinkCounter   ATCommand = "UC"
	ATDownlinkCounter ATCommand = "DC"
)

// knownCommands is the closed set accepted by SendATCommand
var knownCommands = map[ATCommand]struct{}{
	ATExitCommandMode: {}, ATAPIEnable: {}, ATAPIOptions: {}, ATBaudRate: {},
	ATWrite: {}, ATRestoreDefaults: {}, ATFirmware: {}, ATApplyChanges: {},
	ATNetworkReset: {}, ATDeviceType: {}, ATNodeID: {}, ATSerialHigh: {},
	ATSerialLow: {}, ATPowerLevel: {}, ATAssociation: {}, ATSleepMode: {},
	ATShutdown: {},

	ATSIMPin: {}, ATAccessPoint: {}, ATCarrierProfile: {}, ATIPAddress: {},
	ATModemVersion: {}, ATIMEI: {},

	ATDevEUI: {}, ATAppKey: {}, ATAppEUI: {}, ATNwkKey: {}, ATJoinStatus: {},
	ATRegion: {}, ATClass: {}, ATJoinRX1Delay: {}, ATRX2Frequency: {},
	ATChannelsMask: {}, ATTestFrequency: {}, ATTestPower: {}, ATJoinRX2Delay: {},
	ATAdaptiveRate: {}, ATDataRate: {}, ATUplinkCounter: {}, ATDownlinkCounter: {},
}

// Valid reports whether c belongs to the known command set
func (c ATCommand) Valid() bool {
	_, ok := knownCommands[c]
	return ok
}

// MaxATParamSize bounds the parameter bytes of a single AT command frame.
const MaxATParamSize = 128

// ATStatus is the status byte of an AT command response
type ATStatus byte

// AT response statuses
const (
	ATStatusOK               ATStatus = 0x00
	ATStatusError            ATStatus = 0x01
	ATStatusInvalidCommand   ATStatus = 0x02
	ATStatusInvalidParameter ATStatus = 0x03
	ATStatusTxFailure        ATStatus = 0x04
)

// String returns a readable status
func (s ATStatus) String() string {
	switch s {
	case ATStatusOK:
		return "OK"
	case ATStatusError:
		return "ERROR"
	case ATStatusInvalidCommand:
		return "invalid command"
	case ATStatusInvalidParameter:
		return "invalid parameter"
	case ATStatusTxFailure:
		return "tx failure"
	default:
		return fmt.Sprintf("status 0x%02X", byte(s))
	}
}

// ATResponse is a decoded AT command response frame:
// [frameID, c0, c1, status, value...]
type ATResponse struct {
	Command ATCommand
	Value   []byte
	FrameID byte
	Status  ATStatus
}

func parseATResponse(f Frame) (ATResponse, bool) {
	if len(f.Data) < 4 {
		return ATResponse{}, false
	}
	return ATResponse{
		FrameID: f.Data[0],
		Command: ATCommand(f.Data[1:3]),
		Status:  ATStatus(f.Data[3]),
		Value:   append([]byte(nil), f.Data[4:]...),
	}, true
}
