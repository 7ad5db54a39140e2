// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package omada

import (
	"fmt"
	"strings"
)

// Device types as reported in the "type" field of device records
const (
	DeviceTypeAccessPoint = "ap"
	DeviceTypeSwitch      = "switch"
	DeviceTypeGateway     = "gateway"
)

// DeviceStatus is the detailed device status code
type DeviceStatus int

// Known device status codes
const (
	DeviceStatusDisconnected                     DeviceStatus = 0
	DeviceStatusDisconnectedMigrating            DeviceStatus = 1
	DeviceStatusProvisioning                     DeviceStatus = 10
	DeviceStatusConfiguring                      DeviceStatus = 11
	DeviceStatusUpgrading                        DeviceStatus = 12
	DeviceStatusRebooting                        DeviceStatus = 13
	DeviceStatusConnected                        DeviceStatus = 14
	DeviceStatusConnectedWireless                DeviceStatus = 15
	DeviceStatusConnectedMigrating               DeviceStatus = 16
	DeviceStatusConnectedWirelessMigrating       DeviceStatus = 17
	DeviceStatusPending                          DeviceStatus = 20
	DeviceStatusPendingWireless                  DeviceStatus = 21
	DeviceStatusAdopting                         DeviceStatus = 22
	DeviceStatusAdoptingWireless                 DeviceStatus = 23
	DeviceStatusAdoptFailed                      DeviceStatus = 24
	DeviceStatusAdoptFailedWireless              DeviceStatus = 25
	DeviceStatusManagedExternally                DeviceStatus = 26
	DeviceStatusManagedExternallyWireless        DeviceStatus = 27
	DeviceStatusHeartbeatMissed                  DeviceStatus = 30
	DeviceStatusHeartbeatMissedWireless          DeviceStatus = 31
	DeviceStatusHeartbeatMissedMigrating         DeviceStatus = 32
	DeviceStatusHeartbeatMissedWirelessMigrating DeviceStatus = 33
	DeviceStatusIsolated                         DeviceStatus = 40
	DeviceStatusIsolatedMigrating                DeviceStatus = 41
)

var deviceStatusNames = map[DeviceStatus]string{
	DeviceStatusDisconnected:                     "disconnected",
	DeviceStatusDisconnectedMigrating:            "disconnected (migrating)",
	DeviceStatusProvisioning:                     "provisioning",
	DeviceStatusConfiguring:                      "configuring",
	DeviceStatusUpgrading:                        "upgrading",
	DeviceStatusRebooting:                        "rebooting",
	DeviceStatusConnected:                        "connected",
	DeviceStatusConnectedWireless:                "connected (wireless)",
	DeviceStatusConnectedMigrating:               "connected (migrating)",
	DeviceStatusConnectedWirelessMigrating:       "connected (wireless, migrating)",
	DeviceStatusPending:                          "pending",
	DeviceStatusPendingWireless:                  "pending (wireless)",
	DeviceStatusAdopting:                         "adopting",
	DeviceStatusAdoptingWireless:                 "adopting (wireless)",
	DeviceStatusAdoptFailed:                      "adopt failed",
	DeviceStatusAdoptFailedWireless:              "adopt failed (wireless)",
	DeviceStatusManagedExternally:                "managed externally",
	DeviceStatusManagedExternallyWireless:        "managed externally (wireless)",
	DeviceStatusHeartbeatMissed:                  "heartbeat missed",
	DeviceStatusHeartbeatMissedWireless:          "heartbeat missed (wireless)",
	DeviceStatusHeartbeatMissedMigrating:         "heartbeat missed (migrating)",
	DeviceStatusHeartbeatMissedWirelessMigrating: "heartbeat missed (wireless, migrating)",
	DeviceStatusIsolated:                         "isolated",
	DeviceStatusIsolatedMigrating:                "isolated (migrating)",
}

func (s DeviceStatus) String() string {
	if name, ok := deviceStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// DeviceStatusCategory groups device status codes
type DeviceStatusCategory int

const (
	StatusCategoryDisconnected    DeviceStatusCategory = 0
	StatusCategoryConnected       DeviceStatusCategory = 1
	StatusCategoryPending         DeviceStatusCategory = 2
	StatusCategoryHeartbeatMissed DeviceStatusCategory = 3
	StatusCategoryIsolated        DeviceStatusCategory = 4
)

func (c DeviceStatusCategory) String() string {
	switch c {
	case StatusCategoryDisconnected:
		return "disconnected"
	case StatusCategoryConnected:
		return "connected"
	case StatusCategoryPending:
		return "pending"
	case StatusCategoryHeartbeatMissed:
		return "heartbeat missed"
	case StatusCategoryIsolated:
		return "isolated"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// PortType is the physical type of a switch port
type PortType int

const (
	PortTypeCopper PortType = 1
	PortTypeCombo  PortType = 2
	PortTypeSFP    PortType = 3
)

// GatewayPortType is the role a gateway port can take
type GatewayPortType int

const (
	GatewayPortTypeWAN    GatewayPortType = 0
	GatewayPortTypeWANLAN GatewayPortType = 1
	GatewayPortTypeLAN    GatewayPortType = 2
	GatewayPortTypeSFPWAN GatewayPortType = 3
)

// GatewayPortMode is the role a gateway port currently has
type GatewayPortMode int

const (
	GatewayPortModeDisabled GatewayPortMode = -1
	GatewayPortModeWAN      GatewayPortMode = 0
	GatewayPortModeLAN      GatewayPortMode = 1
)

func (m GatewayPortMode) String() string {
	switch m {
	case GatewayPortModeDisabled:
		return "disabled"
	case GatewayPortModeWAN:
		return "WAN"
	case GatewayPortModeLAN:
		return "LAN"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// LinkStatus is the link state of a port
type LinkStatus int

const (
	LinkStatusDown LinkStatus = 0
	LinkStatusUp   LinkStatus = 1
)

func (s LinkStatus) String() string {
	if s == LinkStatusUp {
		return "up"
	}
	return "down"
}

// LinkSpeed is the negotiated or configured port speed
type LinkSpeed int

const (
	LinkSpeedAuto    LinkSpeed = 0
	LinkSpeed10Mbps  LinkSpeed = 1
	LinkSpeed100Mbps LinkSpeed = 2
	LinkSpeed1Gbps   LinkSpeed = 3
	LinkSpeed2_5Gbps LinkSpeed = 4
	LinkSpeed10Gbps  LinkSpeed = 5
)

func (s LinkSpeed) String() string {
	switch s {
	case LinkSpeedAuto:
		return "auto"
	case LinkSpeed10Mbps:
		return "10M"
	case LinkSpeed100Mbps:
		return "100M"
	case LinkSpeed1Gbps:
		return "1G"
	case LinkSpeed2_5Gbps:
		return "2.5G"
	case LinkSpeed10Gbps:
		return "10G"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// LinkDuplex is the duplex mode of a port
type LinkDuplex int

const (
	LinkDuplexAuto LinkDuplex = 0
	LinkDuplexHalf LinkDuplex = 1
	LinkDuplexFull LinkDuplex = 2
)

// Eth802Dot1X is the 802.1X control mode of a port
type Eth802Dot1X int

const (
	Dot1XForceUnauthorized Eth802Dot1X = 0
	Dot1XForceAuthorized   Eth802Dot1X = 1
	Dot1XAuto              Eth802Dot1X = 2
)

// BandwidthControl is the bandwidth control mode of a port
type BandwidthControl int

const (
	BandwidthControlOff          BandwidthControl = 0
	BandwidthControlRateLimit    BandwidthControl = 1
	BandwidthControlStormControl BandwidthControl = 2
)

// PoEMode is the PoE setting of a port
type PoEMode int

const (
	// PoEModeNone means the port does not support PoE
	PoEModeNone              PoEMode = -1
	PoEModeDisabled          PoEMode = 0
	PoEModeEnabled           PoEMode = 1
	PoEModeUseDeviceSettings PoEMode = 2
)

func (m PoEMode) String() string {
	switch m {
	case PoEModeNone:
		return "none"
	case PoEModeDisabled:
		return "disabled"
	case PoEModeEnabled:
		return "enabled"
	case PoEModeUseDeviceSettings:
		return "device settings"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// ConnectType is how a client is connected to the network
type ConnectType int

const (
	ConnectTypeGuestWireless ConnectType = 0
	ConnectTypeWireless      ConnectType = 1
	ConnectTypeWired         ConnectType = 2
)

func (t ConnectType) String() string {
	switch t {
	case ConnectTypeGuestWireless:
		return "guest wireless"
	case ConnectTypeWireless:
		return "wireless"
	case ConnectTypeWired:
		return "wired"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// LEDSetting is the onboard LED mode of a device
type LEDSetting int

const (
	LEDOff          LEDSetting = 0
	LEDOn           LEDSetting = 1
	LEDSiteSettings LEDSetting = 2
)

func (s LEDSetting) String() string {
	switch s {
	case LEDOff:
		return "OFF"
	case LEDOn:
		return "ON"
	case LEDSiteSettings:
		return "SITE_SETTINGS"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// ParseLEDSetting converts "ON", "OFF" or "SITE_SETTINGS" (case-insensitive) into a LEDSetting
func ParseLEDSetting(s string) (LEDSetting, error) {
	name := strings.ReplaceAll(s, "-", "_")
	for _, v := range []LEDSetting{LEDOff, LEDOn, LEDSiteSettings} {
		if strings.EqualFold(v.String(), name) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("invalid LED setting: %q (valid values: ON, OFF, SITE_SETTINGS)", s)
}
