// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package omada

// NetworkClient is a client device (laptop, phone, printer) seen by the controller
type NetworkClient struct {
	MAC         string      `json:"mac"`
	Name        string      `json:"name"`
	HostName    string      `json:"hostName"`
	IP          string      `json:"ip"`
	Active      bool        `json:"active"`
	Blocked     bool        `json:"block"`
	Guest       bool        `json:"guest"`
	LastSeen    int64       `json:"lastSeen"`
	Uptime      int64       `json:"uptime"`
	Activity    int64       `json:"activity"`
	ConnectType ConnectType `json:"connectType"`
	DeviceType  string      `json:"deviceType"`
	TrafficDown int64       `json:"trafficDown"`
	TrafficUp   int64       `json:"trafficUp"`
	Wireless    bool        `json:"wireless"`
	NetworkName string      `json:"networkName"`
	VID         int         `json:"vid"`

	// Wireless clients
	APMAC       string `json:"apMac"`
	APName      string `json:"apName"`
	SSID        string `json:"ssid"`
	SignalLevel int    `json:"signalLevel"`
	RSSI        int    `json:"rssi"`

	// Wired clients
	SwitchMAC  string `json:"switchMac"`
	SwitchName string `json:"switchName"`
	Port       int    `json:"port"`
}

// DisplayName returns the user-assigned name, falling back to host name and MAC
func (n NetworkClient) DisplayName() string {
	switch {
	case n.Name != "":
		return n.Name
	case n.HostName != "":
		return n.HostName
	default:
		return n.MAC
	}
}

// ConnectedTo returns the name of the access point or switch the client is attached to
func (n NetworkClient) ConnectedTo() string {
	if n.Wireless {
		if n.APName != "" {
			return n.APName
		}
		return n.APMAC
	}
	if n.SwitchName != "" {
		return n.SwitchName
	}
	return n.SwitchMAC
}

func (n NetworkClient) matches(macOrName string) bool {
	return normalizeMAC(n.MAC) == normalizeMAC(macOrName) || n.Name == macOrName
}

// ClientIPSetting is the fixed IP reservation of a client
type ClientIPSetting struct {
	UseFixedAddr bool   `json:"useFixedAddr"`
	NetID        string `json:"netId,omitempty"`
	IP           string `json:"ip,omitempty"`
}

// ClientLockToAPSetting pins a wireless client to a set of access points
type ClientLockToAPSetting struct {
	Enabled bool     `json:"enable"`
	MACs    []string `json:"aps"`
}

// ClientUpdate lists client settings to change; nil fields are left untouched
type ClientUpdate struct {
	Name           *string
	LockToAP       *ClientLockToAPSetting
	FixedIPSetting *ClientIPSetting
}

func (u ClientUpdate) body() Body {
	b := Body{}
	if u.Name != nil {
		b = b.Set("name", *u.Name)
	}
	if u.LockToAP != nil {
		b = b.Set("clientLockToApSetting", *u.LockToAP)
	}
	if u.FixedIPSetting != nil {
		b = b.Set("ipSetting", *u.FixedIPSetting)
	}
	return b
}
