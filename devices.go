// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package omada

import "strings"

// Device is an entry of the site device list
type Device struct {
	Type            string               `json:"type"`
	MAC             string               `json:"mac"`
	Name            string               `json:"name"`
	Model           string               `json:"model"`
	ShowModel       string               `json:"showModel"`
	Status          DeviceStatus         `json:"status"`
	StatusCategory  DeviceStatusCategory `json:"statusCategory"`
	IP              string               `json:"ip"`
	Uptime          string               `json:"uptime"`
	UptimeSeconds   int64                `json:"uptimeLong"`
	CPUUtil         int                  `json:"cpuUtil"`
	MemUtil         int                  `json:"memUtil"`
	FirmwareVersion string               `json:"firmwareVersion"`
	NeedUpgrade     bool                 `json:"needUpgrade"`
	FwDownload      bool                 `json:"fwDownload"`
	LEDSetting      LEDSetting           `json:"ledSetting"`
}

// Connected reports whether the device is adopted and online
func (d Device) Connected() bool {
	return d.StatusCategory == StatusCategoryConnected
}

// DisplayModel returns the marketing model name, falling back to the raw model
func (d Device) DisplayModel() string {
	if d.ShowModel != "" {
		return d.ShowModel
	}
	return d.Model
}

// ResourcePath returns the site-relative path of the device's detail resource
// ("eaps/{mac}", "switches/{mac}" or "gateways/{mac}"), or "" for unknown types.
func (d Device) ResourcePath() string {
	switch d.Type {
	case DeviceTypeAccessPoint:
		return "eaps/" + d.MAC
	case DeviceTypeSwitch:
		return "switches/" + d.MAC
	case DeviceTypeGateway:
		return "gateways/" + d.MAC
	default:
		return ""
	}
}

// matches reports whether macOrName identifies the device
func (d Device) matches(macOrName string) bool {
	return normalizeMAC(d.MAC) == normalizeMAC(macOrName) || d.Name == macOrName
}

// Uplink describes the upstream connection of a device
type Uplink struct {
	MAC        string     `json:"mac"`
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Port       int        `json:"port"`
	LinkSpeed  LinkSpeed  `json:"linkSpeed"`
	Duplex     LinkDuplex `json:"duplex"`
	UplinkMAC  string     `json:"uplinkMac"`
	UplinkName string     `json:"uplinkDeviceName"`
}

// SwitchPortStatus is the runtime state of a switch port
type SwitchPortStatus struct {
	LinkStatus    LinkStatus `json:"linkStatus"`
	LinkSpeed     LinkSpeed  `json:"linkSpeed"`
	Duplex        LinkDuplex `json:"duplex"`
	PoE           bool       `json:"poe"`
	PoEPower      float64    `json:"poePower"`
	TX            int64      `json:"tx"`
	RX            int64      `json:"rx"`
	STPDiscarding bool       `json:"stpDiscarding"`
}

// SwitchPort is a port as listed in the switch detail record
type SwitchPort struct {
	Port        int      `json:"port"`
	Name        string   `json:"name"`
	ProfileID   string   `json:"profileId"`
	ProfileName string   `json:"profileName"`
	Type        PortType `json:"type"`
	Operation   string   `json:"operation"`
	Disable     bool     `json:"disable"`
	PoESupport  bool     `json:"poeSupport"`
	SwitchPortStatus
}

// Switch is the detail record of a switch
type Switch struct {
	Device
	PortNum    int          `json:"portNum"`
	Ports      []SwitchPort `json:"ports"`
	Uplink     *Uplink      `json:"uplink"`
	Downlinks  []Uplink     `json:"downlinkList"`
	PoEPortNum int          `json:"poePortNum"`
}

// SwitchPortDetails is the full configuration of a single switch port
type SwitchPortDetails struct {
	ID                    string           `json:"id"`
	Port                  int              `json:"port"`
	Name                  string           `json:"name"`
	ProfileID             string           `json:"profileId"`
	ProfileName           string           `json:"profileName"`
	ProfileOverrideEnable bool             `json:"profileOverrideEnable"`
	Type                  PortType         `json:"type"`
	Operation             string           `json:"operation"`
	Disable               bool             `json:"disable"`
	MaxSpeed              LinkSpeed        `json:"maxSpeed"`
	LinkSpeed             LinkSpeed        `json:"linkSpeed"`
	Duplex                LinkDuplex       `json:"duplex"`
	PoE                   *PoEMode         `json:"poe"`
	BandwidthControl      BandwidthControl `json:"bandWidthCtrlType"`
	Dot1X                 Eth802Dot1X      `json:"dot1x"`
	LLDPMedEnable         bool             `json:"lldpMedEnable"`
	TopoNotifyEnable      bool             `json:"topoNotifyEnable"`
	SpanningTreeEnable    bool             `json:"spanningTreeEnable"`
	LoopbackDetectEnable  bool             `json:"loopbackDetectEnable"`
	PortIsolationEnable   bool             `json:"portIsolationEnable"`
	NativeNetworkID       string           `json:"nativeNetworkId"`
	PortStatus            SwitchPortStatus `json:"portStatus"`
}

// PoEMode returns the configured PoE mode, PoEModeNone if the port has no PoE
func (p SwitchPortDetails) PoEMode() PoEMode {
	if p.PoE == nil {
		return PoEModeNone
	}
	return *p.PoE
}

// PortProfile is a LAN port profile that can be applied to switch ports
type PortProfile struct {
	ID                   string           `json:"id"`
	Site                 string           `json:"site"`
	Name                 string           `json:"name"`
	PoE                  *PoEMode         `json:"poe"`
	BandwidthControl     BandwidthControl `json:"bandWidthCtrlType"`
	Dot1X                Eth802Dot1X      `json:"dot1x"`
	LLDPMedEnable        bool             `json:"lldpMedEnable"`
	TopoNotifyEnable     bool             `json:"topoNotifyEnable"`
	SpanningTreeEnable   bool             `json:"spanningTreeEnable"`
	LoopbackDetectEnable bool             `json:"loopbackDetectEnable"`
	PortIsolationEnable  bool             `json:"portIsolationEnable"`
}

// AccessPointLANPort is the configuration of a wired LAN port on an access point
type AccessPointLANPort struct {
	ID              string `json:"id"`
	LANPort         string `json:"lanPort"`
	SupportVLAN     bool   `json:"supportVlan"`
	LocalVLANEnable bool   `json:"localVlanEnable"`
	LocalVLANID     int    `json:"localVlanId"`
	SupportPoE      bool   `json:"supportPoe"`
	PoEOutEnable    bool   `json:"poeOutEnable"`
}

// AccessPointMisc holds capability flags of an access point
type AccessPointMisc struct {
	Support5G   bool `json:"support5g"`
	Support5G2  bool `json:"support5g2"`
	Support6G   bool `json:"support6g"`
	Support11AC bool `json:"support11ac"`
	SupportMesh bool `json:"supportMesh"`
	PortNum     int  `json:"portNum"`
}

// AccessPoint is the detail record of an access point
type AccessPoint struct {
	Device
	WirelessLinked  bool                 `json:"wirelessLinked"`
	Misc            AccessPointMisc      `json:"deviceMisc"`
	LANPortSettings []AccessPointLANPort `json:"lanPortSettings"`
	WiredUplink     *Uplink              `json:"wiredUplink"`
}

// GatewayPortStatus is the runtime state of a gateway port
type GatewayPortStatus struct {
	Port              int             `json:"port"`
	Name              string          `json:"name"`
	PortDesc          string          `json:"portDesc"`
	Type              GatewayPortType `json:"type"`
	Mode              GatewayPortMode `json:"mode"`
	Status            LinkStatus      `json:"status"`
	TX                int64           `json:"tx"`
	RX                int64           `json:"rx"`
	PoE               int             `json:"poe"`
	InternetState     int             `json:"internetState"`
	OnlineDetection   int             `json:"onlineDetection"`
	IP                string          `json:"ip"`
	Speed             LinkSpeed       `json:"speed"`
	Duplex            LinkDuplex      `json:"duplex"`
	Proto             string          `json:"proto"`
	WANPortIPv6Config *WANIPv6Config  `json:"wanPortIpv6Config"`
}

// WANIPv6Config is the IPv6 part of a WAN port status
type WANIPv6Config struct {
	Enable        int    `json:"enable"`
	Addr          string `json:"addr"`
	InternetState int    `json:"internetState"`
}

// DisplayName returns the port description, falling back to the port name
func (p GatewayPortStatus) DisplayName() string {
	if p.PortDesc != "" {
		return p.PortDesc
	}
	return p.Name
}

// WANConnected reports whether the port is connected to the internet over IPv4
func (p GatewayPortStatus) WANConnected() bool {
	return p.InternetState != 0
}

// IPv6WANConnected reports whether the port is connected to the internet over IPv6
func (p GatewayPortStatus) IPv6WANConnected() bool {
	return p.WANPortIPv6Config != nil && p.WANPortIPv6Config.InternetState != 0
}

// GatewayPortConfig is the configuration of a gateway port
type GatewayPortConfig struct {
	Port         int               `json:"port"`
	Duplex       LinkDuplex        `json:"duplex"`
	LinkSpeed    LinkSpeed         `json:"linkSpeed"`
	MirrorEnable bool              `json:"mirrorEnable"`
	PortStatus   GatewayPortStatus `json:"portStat"`

	// PoEMode is filled from the gateway poeSettings
	PoEMode PoEMode `json:"-"`
}

// GatewayPoESetting is one entry of the gateway poeSettings list
type GatewayPoESetting struct {
	PortID int  `json:"portId"`
	Enable bool `json:"enable"`
}

// Gateway is the detail record of a gateway
type Gateway struct {
	Device
	PortNum     int                 `json:"portNum"`
	SupportPoE  bool                `json:"supportPoe"`
	LLDPEnable  bool                `json:"lldpEnable"`
	EchoServer  string              `json:"echoServer"`
	PortStats   []GatewayPortStatus `json:"portStats"`
	PortConfigs []GatewayPortConfig `json:"portConfigs"`
	PoESettings []GatewayPoESetting `json:"poeSettings"`
}

// resolvePoE fills PoEMode on every port config from PoESettings
func (g *Gateway) resolvePoE() {
	poe := make(map[int]bool, len(g.PoESettings))
	for _, s := range g.PoESettings {
		poe[s.PortID] = s.Enable
	}
	for i := range g.PortConfigs {
		enabled, ok := poe[g.PortConfigs[i].Port]
		switch {
		case !ok:
			g.PortConfigs[i].PoEMode = PoEModeNone
		case enabled:
			g.PortConfigs[i].PoEMode = PoEModeEnabled
		default:
			g.PortConfigs[i].PoEMode = PoEModeDisabled
		}
	}
}

// PortConfig returns the configuration of port n
func (g Gateway) PortConfig(n int) (GatewayPortConfig, bool) {
	for _, p := range g.PortConfigs {
		if p.Port == n {
			return p, true
		}
	}
	return GatewayPortConfig{}, false
}

// FirmwareDetails describes the running and latest available firmware of a device
type FirmwareDetails struct {
	CurrentVersion string `json:"curFwVer"`
	LatestVersion  string `json:"lastFwVer"`
	ReleaseLog     string `json:"fwReleaseLog"`
}

// UpgradeAvailable reports whether a newer firmware is published
func (f FirmwareDetails) UpgradeAvailable() bool {
	return f.LatestVersion != "" && f.LatestVersion != f.CurrentVersion
}

// normalizeMAC upper-cases a MAC address and uses '-' as separator, the form the controller uses in paths
func normalizeMAC(mac string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(mac), ":", "-"))
}
