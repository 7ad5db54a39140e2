// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package omada

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/netascode/go-omada/internal/omadatest"
)

const (
	testAPMAC      = "AA-BB-CC-00-00-01"
	testSwitchMAC  = "AA-BB-CC-00-00-02"
	testGatewayMAC = "AA-BB-CC-00-00-03"
)

var testDevices = []map[string]any{
	{"type": "ap", "mac": testAPMAC, "name": "ap-lobby", "model": "EAP650", "statusCategory": 1, "status": 14},
	{"type": "switch", "mac": testSwitchMAC, "name": "core", "model": "TL-SG3428", "showModel": "SG3428", "statusCategory": 1, "status": 14},
	{"type": "gateway", "mac": testGatewayMAC, "name": "edge", "model": "ER605", "statusCategory": 0, "status": 0},
}

// newTestSite starts a fake controller with three devices in the default site
func newTestSite(t *testing.T, opts ...omadatest.Option) (*omadatest.Controller, *SiteClient) {
	t.Helper()
	ctrl := omadatest.New(opts...)
	t.Cleanup(ctrl.Close)
	ctrl.HandleResult(http.MethodGet, "sites/"+omadatest.DefaultSiteID+"/devices", testDevices)

	client := newTestClient(t, ctrl)
	site, err := client.Site(context.Background(), omadatest.DefaultSiteName)
	if err != nil {
		t.Fatalf("Site() error = %v", err)
	}
	return ctrl, site
}

// sitePath returns the API path of a default site resource
func sitePath(p string) string {
	return "sites/" + omadatest.DefaultSiteID + "/" + p
}

// lastBody returns the body of the most recent request for method and path
func lastBody(t *testing.T, ctrl *omadatest.Controller, method, path string) string {
	t.Helper()
	reqs := ctrl.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Method == method && reqs[i].Path == path {
			return reqs[i].Body
		}
	}
	t.Fatalf("no %s %s request recorded", method, path)
	return ""
}

func TestSites(t *testing.T) {
	ctrl := omadatest.New()
	defer ctrl.Close()
	ctrl.SetSites(map[string]string{"s1": "Home", "s2": "Office"})

	client := newTestClient(t, ctrl)
	ctx := context.Background()

	sites, err := client.Sites(ctx)
	if err != nil {
		t.Fatalf("Sites() error = %v", err)
	}
	if len(sites) != 2 {
		t.Fatalf("expected 2 sites, got %d", len(sites))
	}

	byName, err := client.Site(ctx, "Office")
	if err != nil {
		t.Fatalf("Site(name) error = %v", err)
	}
	if byName.ID() != "s2" {
		t.Errorf("ID() = %q, want s2", byName.ID())
	}
	byID, err := client.Site(ctx, "s1")
	if err != nil || byID.ID() != "s1" {
		t.Errorf("Site(id) = %v, %v", byID, err)
	}

	if _, err := client.Site(ctx, "Warehouse"); !errors.Is(err, ErrSiteNotFound) {
		t.Errorf("Site(unknown) error = %v, want ErrSiteNotFound", err)
	}
}

func TestControllerName(t *testing.T) {
	ctrl := omadatest.New()
	defer ctrl.Close()

	name, err := newTestClient(t, ctrl).ControllerName(context.Background())
	if err != nil {
		t.Fatalf("ControllerName() error = %v", err)
	}
	if name != "Test Controller" {
		t.Errorf("ControllerName() = %q", name)
	}
}

func TestDevices(t *testing.T) {
	_, site := newTestSite(t)
	ctx := context.Background()

	devices, err := site.Devices(ctx)
	if err != nil {
		t.Fatalf("Devices() error = %v", err)
	}
	if len(devices) != 3 {
		t.Fatalf("expected 3 devices, got %d", len(devices))
	}
	if devices[1].DisplayModel() != "SG3428" || devices[0].DisplayModel() != "EAP650" {
		t.Errorf("unexpected models %q, %q", devices[1].DisplayModel(), devices[0].DisplayModel())
	}
	if devices[2].Connected() {
		t.Error("gateway with statusCategory 0 should be disconnected")
	}

	tests := []struct {
		name    string
		lookup  string
		wantMAC string
	}{
		{name: "by name", lookup: "core", wantMAC: testSwitchMAC},
		{name: "by colon MAC", lookup: "aa:bb:cc:00:00:03", wantMAC: testGatewayMAC},
		{name: "by dash MAC", lookup: testAPMAC, wantMAC: testAPMAC},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := site.DeviceByMACOrName(ctx, tt.lookup)
			if err != nil {
				t.Fatalf("DeviceByMACOrName(%q) error = %v", tt.lookup, err)
			}
			if d.MAC != tt.wantMAC {
				t.Errorf("MAC = %q, want %q", d.MAC, tt.wantMAC)
			}
		})
	}

	if _, err := site.Device(ctx, "AA-BB-CC-FF-FF-FF"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Device(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestSwitch_WrongDeviceType(t *testing.T) {
	_, site := newTestSite(t)

	_, err := site.Switch(context.Background(), "ap-lobby")
	if !errors.Is(err, ErrInvalidDevice) {
		t.Errorf("Switch(ap) error = %v, want ErrInvalidDevice", err)
	}
	_, err = site.AccessPoint(context.Background(), "core")
	if !errors.Is(err, ErrInvalidDevice) {
		t.Errorf("AccessPoint(switch) error = %v, want ErrInvalidDevice", err)
	}
}

func TestSwitchPorts(t *testing.T) {
	ctrl, site := newTestSite(t)
	ctrl.HandleResult(http.MethodGet, sitePath("switches/"+testSwitchMAC+"/ports"), []map[string]any{
		{"port": 1, "name": "Uplink", "profileId": "p-all", "poe": -1},
		{"port": 2, "name": "Camera", "profileId": "p-all", "poe": 1},
	})

	ports, err := site.SwitchPorts(context.Background(), "core")
	if err != nil {
		t.Fatalf("SwitchPorts() error = %v", err)
	}
	if len(ports) != 2 {
		t.Fatalf("expected 2 ports, got %d", len(ports))
	}
	if ports[0].PoEMode() != PoEModeNone || ports[1].PoEMode() != PoEModeEnabled {
		t.Errorf("PoE modes = %v, %v", ports[0].PoEMode(), ports[1].PoEMode())
	}
}

// registerSwitchPort serves port 5 of the test switch and its profile
func registerSwitchPort(ctrl *omadatest.Controller, override bool) {
	ctrl.HandleResult(http.MethodGet, sitePath("switches/"+testSwitchMAC+"/ports/5"), map[string]any{
		"port": 5, "name": "Port5", "profileId": "p-all", "profileOverrideEnable": override,
		"linkSpeed": 0, "duplex": 0, "poe": 1, "dot1x": 1, "lldpMedEnable": true,
		"spanningTreeEnable": false, "loopbackDetectEnable": true, "portIsolationEnable": false,
		"nativeNetworkId": "net-1",
	})
	ctrl.HandleResult(http.MethodGet, sitePath("setting/lan/profileSummary"), map[string]any{
		"data": []map[string]any{
			{"id": "p-all", "name": "All", "poe": 2, "dot1x": 2, "lldpMedEnable": false,
				"spanningTreeEnable": true, "loopbackDetectEnable": false, "portIsolationEnable": true},
		},
	})
	ctrl.HandleResult(http.MethodPatch, sitePath("switches/"+testSwitchMAC+"/ports/5"), nil)
}

func TestUpdateSwitchPort_Name(t *testing.T) {
	ctrl, site := newTestSite(t)
	registerSwitchPort(ctrl, false)

	name := "Printer"
	if _, err := site.UpdateSwitchPort(context.Background(), "core", 5, SwitchPortUpdate{Name: &name}); err != nil {
		t.Fatalf("UpdateSwitchPort() error = %v", err)
	}

	body := lastBody(t, ctrl, http.MethodPatch, sitePath("switches/"+testSwitchMAC+"/ports/5"))
	if gjson.Get(body, "name").String() != "Printer" {
		t.Errorf("name not sent: %s", body)
	}
	if gjson.Get(body, "profileOverrideEnable").Bool() {
		t.Errorf("override must stay off: %s", body)
	}
	if gjson.Get(body, "poe").Exists() || gjson.Get(body, "operation").Exists() {
		t.Errorf("override fields must not be sent without override: %s", body)
	}
	if gjson.Get(body, "nativeNetworkId").String() != "net-1" {
		t.Errorf("nativeNetworkId not kept: %s", body)
	}
	if ctrl.Calls(http.MethodGet, sitePath("switches/"+testSwitchMAC+"/ports/5")) != 2 {
		t.Error("port should be read back after the update")
	}
}

func TestUpdateSwitchPort_PoEOverride(t *testing.T) {
	tests := []struct {
		name          string
		version       string
		override      bool
		wantDot1X     int64
		wantLLDPMed   bool
		wantTopo      bool
		wantDHCPRelay bool
	}{
		{name: "from profile on 5.x", version: "5.13.30", override: false, wantDot1X: 2, wantLLDPMed: false, wantTopo: true},
		{name: "from overrides on 6.x", version: "6.0.0.24", override: true, wantDot1X: 1, wantLLDPMed: true, wantDHCPRelay: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, site := newTestSite(t, omadatest.WithVersion(tt.version))
			registerSwitchPort(ctrl, tt.override)

			off := false
			if _, err := site.UpdateSwitchPort(context.Background(), testSwitchMAC, 5, SwitchPortUpdate{PoE: &off}); err != nil {
				t.Fatalf("UpdateSwitchPort() error = %v", err)
			}

			body := lastBody(t, ctrl, http.MethodPatch, sitePath("switches/"+testSwitchMAC+"/ports/5"))
			if !gjson.Get(body, "profileOverrideEnable").Bool() {
				t.Errorf("PoE change must enable the override: %s", body)
			}
			if gjson.Get(body, "poe").Int() != int64(PoEModeDisabled) {
				t.Errorf("poe = %s", gjson.Get(body, "poe").Raw)
			}
			if gjson.Get(body, "operation").String() != "switching" {
				t.Errorf("operation missing: %s", body)
			}
			if gjson.Get(body, "dot1x").Int() != tt.wantDot1X {
				t.Errorf("dot1x = %s, want %d", gjson.Get(body, "dot1x").Raw, tt.wantDot1X)
			}
			if gjson.Get(body, "lldpMedEnable").Bool() != tt.wantLLDPMed {
				t.Errorf("lldpMedEnable = %s", gjson.Get(body, "lldpMedEnable").Raw)
			}
			if gjson.Get(body, "topoNotifyEnable").Exists() != tt.wantTopo {
				t.Errorf("topoNotifyEnable presence wrong: %s", body)
			}
			if gjson.Get(body, "dhcpL2RelaySettings.enable").Exists() != tt.wantDHCPRelay {
				t.Errorf("dhcpL2RelaySettings presence wrong: %s", body)
			}
		})
	}
}

func TestUpdateAccessPointPort(t *testing.T) {
	ctrl, site := newTestSite(t)
	apPath := sitePath("eaps/" + testAPMAC)
	ctrl.HandleResult(http.MethodGet, apPath, map[string]any{
		"type": "ap", "mac": testAPMAC, "name": "ap-lobby",
		"lanPortSettings": []map[string]any{
			{"id": "ETH1", "lanPort": "ETH1", "supportVlan": true, "localVlanEnable": false, "localVlanId": 1, "supportPoe": false, "poeOutEnable": false},
			{"id": "ETH2", "lanPort": "ETH2", "supportVlan": true, "localVlanEnable": false, "localVlanId": 1, "supportPoe": true, "poeOutEnable": true},
		},
	})
	ctrl.Handle(http.MethodPatch, apPath, func(_ *http.Request, body []byte) omadatest.Response {
		var settings []map[string]any
		for _, s := range gjson.GetBytes(body, "lanPortSettings").Array() {
			settings = append(settings, s.Value().(map[string]any))
		}
		return omadatest.Result(map[string]any{"type": "ap", "mac": testAPMAC, "lanPortSettings": settings})
	})

	ctx := context.Background()
	enable, vlan, poe := true, 20, true
	port, err := site.UpdateAccessPointPort(ctx, "ap-lobby", "ETH1", AccessPointPortUpdate{
		LocalVLANEnable: &enable,
		LocalVLANID:     &vlan,
		PoEOutEnable:    &poe,
	})
	if err != nil {
		t.Fatalf("UpdateAccessPointPort() error = %v", err)
	}
	if !port.LocalVLANEnable || port.LocalVLANID != 20 {
		t.Errorf("unexpected port %+v", port)
	}
	if port.PoEOutEnable {
		t.Error("PoE must not be enabled on a port without PoE support")
	}

	off := false
	port, err = site.UpdateAccessPointPort(ctx, testAPMAC, "ETH2", AccessPointPortUpdate{PoEOutEnable: &off})
	if err != nil {
		t.Fatalf("UpdateAccessPointPort(ETH2) error = %v", err)
	}
	if port.PoEOutEnable {
		t.Error("PoE should be disabled on ETH2")
	}

	if _, err := site.AccessPointPort(ctx, "ap-lobby", "ETH9"); !errors.Is(err, ErrNotFound) {
		t.Errorf("AccessPointPort(ETH9) error = %v, want ErrNotFound", err)
	}
}

// registerGateway serves the test gateway with PoE on ports 3 and 4
func registerGateway(ctrl *omadatest.Controller) {
	ctrl.HandleResult(http.MethodGet, sitePath("gateways/"+testGatewayMAC), map[string]any{
		"type": "gateway", "mac": testGatewayMAC, "name": "edge",
		"supportPoe": true, "lldpEnable": true, "echoServer": "8.8.8.8",
		"portConfigs": []map[string]any{
			{"port": 1, "portStat": map[string]any{"port": 1, "name": "WAN1", "mode": 0, "internetState": 1}},
			{"port": 2, "portStat": map[string]any{"port": 2, "name": "WAN2", "portDesc": "Backup"}},
			{"port": 3, "portStat": map[string]any{"port": 3, "name": "LAN3"}},
			{"port": 4, "portStat": map[string]any{"port": 4, "name": "LAN4"}},
		},
		"poeSettings": []map[string]any{
			{"portId": 3, "enable": true},
			{"portId": 4, "enable": false},
		},
	})
	ctrl.HandleResult(http.MethodPatch, sitePath("gateways/"+testGatewayMAC), nil)
}

func TestGatewayPort(t *testing.T) {
	ctrl, site := newTestSite(t)
	registerGateway(ctrl)
	ctx := context.Background()

	port, err := site.GatewayPort(ctx, "", 3)
	if err != nil {
		t.Fatalf("GatewayPort() error = %v", err)
	}
	if port.PoEMode != PoEModeEnabled {
		t.Errorf("PoEMode = %v, want enabled", port.PoEMode)
	}
	wan, err := site.GatewayPort(ctx, "edge", 2)
	if err != nil {
		t.Fatalf("GatewayPort(2) error = %v", err)
	}
	if wan.PortStatus.DisplayName() != "Backup" || wan.PoEMode != PoEModeNone {
		t.Errorf("unexpected WAN port %+v", wan)
	}
	if _, err := site.GatewayPort(ctx, "", 9); !errors.Is(err, ErrNotFound) {
		t.Errorf("GatewayPort(9) error = %v, want ErrNotFound", err)
	}
}

func TestSetGatewayPortPoE(t *testing.T) {
	ctrl, site := newTestSite(t)
	registerGateway(ctrl)
	ctx := context.Background()

	if _, err := site.SetGatewayPortPoE(ctx, "", 4, true); err != nil {
		t.Fatalf("SetGatewayPortPoE() error = %v", err)
	}

	body := lastBody(t, ctrl, http.MethodPatch, sitePath("gateways/"+testGatewayMAC))
	settings := gjson.Get(body, "poeSettings").Array()
	if len(settings) != 2 {
		t.Fatalf("expected settings for both PoE ports: %s", body)
	}
	if settings[0].Get("portId").Int() != 3 || !settings[0].Get("enable").Bool() {
		t.Errorf("port 3 must keep its setting: %s", settings[0].Raw)
	}
	if settings[1].Get("portId").Int() != 4 || !settings[1].Get("enable").Bool() {
		t.Errorf("port 4 must be enabled: %s", settings[1].Raw)
	}
	if gjson.Get(body, "echoServer").String() != "8.8.8.8" || !gjson.Get(body, "lldpEnable").Bool() {
		t.Errorf("gateway settings must be preserved: %s", body)
	}

	if _, err := site.SetGatewayPortPoE(ctx, "", 1, true); !errors.Is(err, ErrInvalidDevice) {
		t.Errorf("PoE on port without PoE error = %v, want ErrInvalidDevice", err)
	}
	if _, err := site.SetGatewayPortPoE(ctx, "", 7, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("PoE on missing port error = %v, want ErrNotFound", err)
	}
	if _, err := site.SetGatewayPortPoE(ctx, "core", 1, true); !errors.Is(err, ErrInvalidDevice) {
		t.Errorf("PoE on switch error = %v, want ErrInvalidDevice", err)
	}
}

func TestSetGatewayWANPortConnectState(t *testing.T) {
	ctrl, site := newTestSite(t)
	ctrl.HandleResult(http.MethodPost, sitePath("cmd/gateways/"+testGatewayMAC+"/internetState"),
		map[string]any{"port": 2, "name": "WAN2", "internetState": 0})
	ctrl.HandleResult(http.MethodPost, sitePath("cmd/gateways/"+testGatewayMAC+"/ipv6State"),
		map[string]any{"port": 2, "name": "WAN2", "wanPortIpv6Config": map[string]any{"enable": 1, "internetState": 1}})
	ctx := context.Background()

	status, err := site.SetGatewayWANPortConnectState(ctx, "", 2, false, false)
	if err != nil {
		t.Fatalf("SetGatewayWANPortConnectState() error = %v", err)
	}
	if status.WANConnected() {
		t.Error("port should be disconnected")
	}
	body := lastBody(t, ctrl, http.MethodPost, sitePath("cmd/gateways/"+testGatewayMAC+"/internetState"))
	if gjson.Get(body, "portId").Int() != 2 || gjson.Get(body, "operation").Int() != 0 {
		t.Errorf("unexpected body %s", body)
	}

	status, err = site.SetGatewayWANPortConnectState(ctx, "edge", 2, true, true)
	if err != nil {
		t.Fatalf("SetGatewayWANPortConnectState(ipv6) error = %v", err)
	}
	if !status.IPv6WANConnected() {
		t.Error("port should be connected over IPv6")
	}
}

func TestClients(t *testing.T) {
	ctrl, site := newTestSite(t)
	ctrl.HandlePaged(sitePath("clients"), []any{
		map[string]any{"mac": "11-22-33-44-55-66", "name": "laptop", "wireless": true, "apName": "ap-lobby", "active": true},
		map[string]any{"mac": "11-22-33-44-55-77", "hostName": "printer-host", "wireless": false, "switchMac": testSwitchMAC, "port": 5, "active": true},
	})
	ctrl.HandlePaged(sitePath("insight/clients"), []any{
		map[string]any{"mac": "11-22-33-44-55-66", "name": "laptop"},
		map[string]any{"mac": "11-22-33-44-55-88", "name": "tv", "block": true},
	})
	ctx := context.Background()

	clients, err := site.ConnectedClients(ctx)
	if err != nil {
		t.Fatalf("ConnectedClients() error = %v", err)
	}
	if len(clients) != 2 {
		t.Fatalf("expected 2 clients, got %d", len(clients))
	}
	if clients[0].ConnectedTo() != "ap-lobby" || clients[1].ConnectedTo() != testSwitchMAC {
		t.Errorf("ConnectedTo() = %q, %q", clients[0].ConnectedTo(), clients[1].ConnectedTo())
	}
	if clients[1].DisplayName() != "printer-host" {
		t.Errorf("DisplayName() = %q", clients[1].DisplayName())
	}

	known, err := site.KnownClients(ctx)
	if err != nil {
		t.Fatalf("KnownClients() error = %v", err)
	}
	if len(known) != 2 || !known[1].Blocked {
		t.Errorf("unexpected known clients %+v", known)
	}

	mac, err := site.ResolveClientMAC(ctx, "tv")
	if err != nil || mac != "11-22-33-44-55-88" {
		t.Errorf("ResolveClientMAC(tv) = %q, %v", mac, err)
	}
	mac, err = site.ResolveClientMAC(ctx, "11:22:33:44:55:99")
	if err != nil || mac != "11-22-33-44-55-99" {
		t.Errorf("ResolveClientMAC(mac) = %q, %v", mac, err)
	}
	if _, err := site.ResolveClientMAC(ctx, "radio"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ResolveClientMAC(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestUpdateClient(t *testing.T) {
	ctrl, site := newTestSite(t)
	clientPath := sitePath("clients/11-22-33-44-55-66")
	ctrl.HandleResult(http.MethodGet, clientPath, map[string]any{"mac": "11-22-33-44-55-66", "name": "laptop"})
	ctrl.Handle(http.MethodPatch, clientPath, func(_ *http.Request, body []byte) omadatest.Response {
		return omadatest.Result(map[string]any{"mac": "11-22-33-44-55-66", "name": gjson.GetBytes(body, "name").String()})
	})
	ctx := context.Background()

	updated, err := site.SetClientName(ctx, "11:22:33:44:55:66", "work-laptop")
	if err != nil {
		t.Fatalf("SetClientName() error = %v", err)
	}
	if updated.Name != "work-laptop" {
		t.Errorf("Name = %q", updated.Name)
	}

	lock := ClientLockToAPSetting{Enabled: true, MACs: []string{testAPMAC}}
	if _, err := site.UpdateClient(ctx, "11-22-33-44-55-66", ClientUpdate{LockToAP: &lock}); err != nil {
		t.Fatalf("UpdateClient() error = %v", err)
	}
	body := lastBody(t, ctrl, http.MethodPatch, clientPath)
	if !gjson.Get(body, "clientLockToApSetting.enable").Bool() || gjson.Get(body, "clientLockToApSetting.aps.0").String() != testAPMAC {
		t.Errorf("unexpected lock body %s", body)
	}
	if gjson.Get(body, "name").Exists() {
		t.Errorf("unchanged fields must not be sent: %s", body)
	}

	patches := ctrl.Calls(http.MethodPatch, clientPath)
	current, err := site.UpdateClient(ctx, "11-22-33-44-55-66", ClientUpdate{})
	if err != nil || current.Name != "laptop" {
		t.Errorf("empty UpdateClient() = %+v, %v", current, err)
	}
	if ctrl.Calls(http.MethodPatch, clientPath) != patches {
		t.Error("empty update must not send a PATCH")
	}
}

func TestClientCommands(t *testing.T) {
	ctrl, site := newTestSite(t)
	for _, cmd := range []string{"block", "unblock", "reconnect"} {
		ctrl.HandleResult(http.MethodPost, sitePath("cmd/clients/11-22-33-44-55-66/"+cmd), nil)
	}
	ctx := context.Background()

	if err := site.BlockClient(ctx, "11:22:33:44:55:66"); err != nil {
		t.Errorf("BlockClient() error = %v", err)
	}
	if err := site.UnblockClient(ctx, "11-22-33-44-55-66"); err != nil {
		t.Errorf("UnblockClient() error = %v", err)
	}
	if err := site.ReconnectClient(ctx, "11-22-33-44-55-66"); err != nil {
		t.Errorf("ReconnectClient() error = %v", err)
	}
	for _, cmd := range []string{"block", "unblock", "reconnect"} {
		if ctrl.Calls(http.MethodPost, sitePath("cmd/clients/11-22-33-44-55-66/"+cmd)) != 1 {
			t.Errorf("%s not sent", cmd)
		}
	}
}

func TestFirmware(t *testing.T) {
	ctrl, site := newTestSite(t)
	ctrl.HandleResult(http.MethodGet, sitePath("devices/"+testAPMAC+"/firmware"),
		map[string]any{"curFwVer": "1.0.3", "lastFwVer": "1.1.0", "fwReleaseLog": "fixes"})
	ctrl.HandleResult(http.MethodPost, sitePath("cmd/devices/"+testAPMAC+"/onlineUpgrade"), nil)
	ctx := context.Background()

	fw, err := site.FirmwareDetails(ctx, "ap-lobby")
	if err != nil {
		t.Fatalf("FirmwareDetails() error = %v", err)
	}
	if !fw.UpgradeAvailable() {
		t.Errorf("expected upgrade to be available: %+v", fw)
	}

	if err := site.StartFirmwareUpgrade(ctx, "ap-lobby"); err != nil {
		t.Fatalf("StartFirmwareUpgrade() error = %v", err)
	}
	body := lastBody(t, ctrl, http.MethodPost, sitePath("cmd/devices/"+testAPMAC+"/onlineUpgrade"))
	if gjson.Get(body, "mac").String() != testAPMAC {
		t.Errorf("unexpected body %s", body)
	}
}

func TestSetLEDSetting(t *testing.T) {
	ctrl, site := newTestSite(t)
	ctrl.HandleResult(http.MethodPatch, sitePath("switches/"+testSwitchMAC), nil)

	if err := site.SetLEDSetting(context.Background(), "core", LEDOff); err != nil {
		t.Fatalf("SetLEDSetting() error = %v", err)
	}
	body := lastBody(t, ctrl, http.MethodPatch, sitePath("switches/"+testSwitchMAC))
	if gjson.Get(body, "ledSetting").Int() != int64(LEDOff) || gjson.Get(body, "mac").String() != testSwitchMAC {
		t.Errorf("unexpected body %s", body)
	}
}

func TestParseLEDSetting(t *testing.T) {
	tests := []struct {
		input   string
		want    LEDSetting
		wantErr bool
	}{
		{input: "ON", want: LEDOn},
		{input: "off", want: LEDOff},
		{input: "Site_Settings", want: LEDSiteSettings},
		{input: "site-settings", want: LEDSiteSettings},
		{input: "blink", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseLEDSetting(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLEDSetting(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseLEDSetting(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParsePortNumber(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{input: "1", want: 1},
		{input: "28", want: 28},
		{input: "0", wantErr: true},
		{input: "-3", wantErr: true},
		{input: "eth1", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParsePortNumber(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePortNumber(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParsePortNumber(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}
