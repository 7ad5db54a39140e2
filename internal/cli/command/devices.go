// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/netascode/go-omada"
	"github.com/netascode/go-omada/internal/cli/output"
)

func (a *App) newDevicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "devices",
		Aliases: []string{"d"},
		Short:   "List the devices of the site",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSite(cmd.Context(), func(s *session) error {
				devices, err := s.site.Devices(cmd.Context())
				if err != nil {
					return err
				}
				tbl := output.Table{Headers: []string{"MAC", "IP", "TYPE", "NAME", "MODEL", "STATUS"}}
				for _, d := range devices {
					tbl.Append(d.MAC, orDash(d.IP), d.Type, d.Name, d.DisplayModel(), d.StatusCategory.String())
				}
				return a.render(tbl, nonNil(devices))
			})
		},
	}
}

func (a *App) newSwitchesCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "switches",
		Aliases: []string{"s"},
		Short:   "List the switches of the site with their port states",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSite(cmd.Context(), func(s *session) error {
				switches, err := s.site.Switches(cmd.Context())
				if err != nil {
					return err
				}
				tbl := output.Table{Headers: []string{"MAC", "IP", "NAME", "MODEL", "PORTS"}}
				for _, sw := range switches {
					var ports strings.Builder
					for _, p := range sw.Ports {
						switch {
						case p.Disable:
							ports.WriteString("x")
						default:
							ports.WriteString(linkChar(p.LinkStatus))
						}
						if p.PoE {
							ports.WriteString(power)
						}
					}
					tbl.Append(sw.MAC, orDash(sw.IP), sw.Name, sw.DisplayModel(), ports.String())
				}
				return a.render(tbl, nonNil(switches))
			})
		},
	}
}

func (a *App) newSwitchPortsCommand() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "switch-ports MAC|NAME",
		Short: "Show the ports of a switch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSite(cmd.Context(), func(s *session) error {
				ports, err := s.site.SwitchPorts(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if port > 0 {
					var filtered []omada.SwitchPortDetails
					for _, p := range ports {
						if p.Port == port {
							filtered = append(filtered, p)
						}
					}
					if len(filtered) == 0 {
						return fmt.Errorf("%w: port %d on switch %s", omada.ErrNotFound, port, args[0])
					}
					ports = filtered
				}

				tbl := output.Table{Headers: []string{"PORT", "NAME", "PROFILE", "ENABLED", "OVERRIDE", "LINK", "SPEED", "POE", "POWER", "RX", "TX"}}
				for _, p := range ports {
					speed := "---"
					if p.PortStatus.LinkStatus == omada.LinkStatusUp {
						speed = p.PortStatus.LinkSpeed.String()
					}
					poe, watts := "x", "-"
					if p.PoEMode() != omada.PoEModeNone && p.Type != omada.PortTypeSFP {
						poe = checkbox(p.PoEMode() == omada.PoEModeEnabled)
						if p.PortStatus.PoE {
							poe += power
						}
						watts = strconv.FormatFloat(p.PortStatus.PoEPower, 'f', 1, 64) + "W"
					}
					tbl.Append(
						strconv.Itoa(p.Port), p.Name, p.ProfileName,
						checkbox(!p.Disable), checkbox(p.ProfileOverrideEnable),
						linkChar(p.PortStatus.LinkStatus), speed, poe, watts,
						displayBytes(p.PortStatus.RX), displayBytes(p.PortStatus.TX),
					)
				}
				return a.render(tbl, nonNil(ports))
			})
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Only show this port")
	return cmd
}

func (a *App) newSwitchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "switch MAC|NAME",
		Short: "Show details of a switch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSite(cmd.Context(), func(s *session) error {
				sw, err := s.site.Switch(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fields := []string{
					"Name", sw.Name,
					"Address", fmt.Sprintf("%s (%s)", sw.MAC, orDash(sw.IP)),
					"Status", fmt.Sprintf("%s (%s)", sw.Status, sw.StatusCategory),
					"Model", sw.DisplayModel(),
					"Ports", strconv.Itoa(sw.PortNum),
					"Supports PoE", strconv.FormatBool(sw.PoEPortNum > 0),
				}
				if sw.PoEPortNum > 0 {
					fields = append(fields, "PoE ports", strconv.Itoa(sw.PoEPortNum))
				}
				fields = append(fields,
					"Uptime", (time.Duration(sw.UptimeSeconds) * time.Second).String(),
					"Uplink", uplinkName(sw.Uplink),
				)
				downlinks := make([]string, 0, len(sw.Downlinks))
				for _, d := range sw.Downlinks {
					downlinks = append(downlinks, d.MAC+" "+d.Name)
				}
				fields = append(fields, "Downlinks", orDash(strings.Join(downlinks, ", ")))
				return a.render(output.Fields(fields...), sw)
			})
		},
	}
}

func (a *App) newAccessPointsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "access-points",
		Aliases: []string{"ap"},
		Short:   "List the access points of the site",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSite(cmd.Context(), func(s *session) error {
				aps, err := s.site.AccessPoints(cmd.Context())
				if err != nil {
					return err
				}
				tbl := output.Table{Headers: []string{"MAC", "IP", "NAME", "MODEL", "11AC", "5G", "5G2", "6G", "MESH"}}
				for _, ap := range aps {
					m := ap.Misc
					tbl.Append(ap.MAC, orDash(ap.IP), ap.Name, ap.DisplayModel(),
						checkbox(m.Support11AC), checkbox(m.Support5G), checkbox(m.Support5G2),
						checkbox(m.Support6G), checkbox(m.SupportMesh))
				}
				return a.render(tbl, nonNil(aps))
			})
		},
	}
}

func (a *App) newAccessPointCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "access-point MAC|NAME",
		Short: "Show details of an access point",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSite(cmd.Context(), func(s *session) error {
				ap, err := s.site.AccessPoint(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				ports := make([]string, 0, len(ap.LANPortSettings))
				for _, p := range ap.LANPortSettings {
					port := p.LANPort + " PoE " + checkbox(p.SupportPoE)
					if p.PoEOutEnable {
						port += power
					}
					if p.SupportVLAN && p.LocalVLANEnable {
						port += fmt.Sprintf(" VLAN %d", p.LocalVLANID)
					}
					ports = append(ports, port)
				}
				m := ap.Misc
				return a.render(output.Fields(
					"Name", ap.Name,
					"Address", fmt.Sprintf("%s (%s)", ap.MAC, orDash(ap.IP)),
					"Status", fmt.Sprintf("%s (%s)", ap.Status, ap.StatusCategory),
					"Model", ap.DisplayModel(),
					"LAN ports", orDash(strings.Join(ports, ", ")),
					"LED setting", ap.LEDSetting.String(),
					"Uptime", (time.Duration(ap.UptimeSeconds) * time.Second).String(),
					"WiFi uplink", checkbox(ap.WirelessLinked),
					"Uplink", uplinkName(ap.WiredUplink),
					"WiFi features", fmt.Sprintf("11ac %s  5G %s  5G2 %s  6G %s  Mesh %s",
						checkbox(m.Support11AC), checkbox(m.Support5G), checkbox(m.Support5G2),
						checkbox(m.Support6G), checkbox(m.SupportMesh)),
				), ap)
			})
		},
	}
}

// uplinkName describes the device a switch or access point is wired to
func uplinkName(u *omada.Uplink) string {
	if u == nil {
		return "-"
	}
	mac, name := u.MAC, u.Name
	if mac == "" {
		mac = u.UplinkMAC
	}
	if name == "" {
		name = u.UplinkName
	}
	return strings.TrimSpace(mac + " " + name)
}

func (a *App) newGatewayCommand() *cobra.Command {
	var mac string
	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Show the site's gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSite(cmd.Context(), func(s *session) error {
				gw, err := s.site.Gateway(cmd.Context(), mac)
				if err != nil {
					return err
				}
				var wan, lan []string
				for _, p := range gw.PortStats {
					switch p.Mode {
					case omada.GatewayPortModeWAN:
						wan = append(wan, fmt.Sprintf("%d %s %s", p.Port, orDash(p.IP), checkbox(p.WANConnected())))
					case omada.GatewayPortModeLAN:
						lan = append(lan, fmt.Sprintf("%d %s", p.Port, linkChar(p.Status)))
					}
				}
				return a.render(output.Fields(
					"Name", gw.Name,
					"Address", fmt.Sprintf("%s (%s)", gw.MAC, orDash(gw.IP)),
					"Status", fmt.Sprintf("%s (%s)", gw.Status, gw.StatusCategory),
					"Model", gw.DisplayModel(),
					"Ports", strconv.Itoa(gw.PortNum),
					"Supports PoE", strconv.FormatBool(gw.SupportPoE),
					"Uptime", (time.Duration(gw.UptimeSeconds) * time.Second).String(),
					"WAN ports", strings.Join(wan, ", "),
					"LAN ports", strings.Join(lan, ", "),
					"LED setting", gw.LEDSetting.String(),
				), gw)
			})
		},
	}
	cmd.Flags().StringVar(&mac, "mac", "", "MAC address or name of the gateway (default: the site's gateway)")
	return cmd
}

func (a *App) newWANCommand() *cobra.Command {
	var (
		mac                 string
		port                int
		connect, disconnect bool
		ipv6                bool
	)
	cmd := &cobra.Command{
		Use:   "wan -p PORT",
		Short: "Show or change the internet connection of a gateway WAN port",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSite(cmd.Context(), func(s *session) error {
				ctx := cmd.Context()
				gw, err := s.site.Gateway(ctx, mac)
				if err != nil {
					return err
				}
				var status *omada.GatewayPortStatus
				for i := range gw.PortStats {
					if gw.PortStats[i].Port == port {
						status = &gw.PortStats[i]
					}
				}
				if status == nil {
					return fmt.Errorf("%w: port %d on gateway %s", omada.ErrNotFound, port, gw.Name)
				}
				if status.Mode != omada.GatewayPortModeWAN {
					return fmt.Errorf("port %d is not in WAN mode", port)
				}

				if connect || disconnect {
					if ipv6 && status.WANPortIPv6Config == nil {
						return fmt.Errorf("port %d is not configured for IPv6", port)
					}
					updated, err := s.site.SetGatewayWANPortConnectState(ctx, gw.MAC, port, connect, ipv6)
					if err != nil {
						return err
					}
					status = &updated
				}

				return a.render(output.Fields(
					"Port", strconv.Itoa(status.Port),
					"Name", fmt.Sprintf("%s (%s)", status.DisplayName(), status.Name),
					"Link", linkChar(status.Status),
					"Mode", status.Mode.String(),
					"IPv4", fmt.Sprintf("%s %s", checkbox(status.WANConnected()), status.IP),
					"IPv4 protocol", status.Proto,
					"IPv6", checkbox(status.IPv6WANConnected()),
					"Speed", status.Speed.String(),
				), status)
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&mac, "mac", "", "MAC address or name of the gateway (default: the site's gateway)")
	flags.IntVarP(&port, "port", "p", 0, "Gateway port number")
	flags.BoolVar(&connect, "connect", false, "Connect the port to the internet")
	flags.BoolVar(&disconnect, "disconnect", false, "Disconnect the port from the internet")
	flags.BoolVar(&ipv6, "ipv6", false, "Change the IPv6 connection instead of IPv4")
	_ = cmd.MarkFlagRequired("port")
	cmd.MarkFlagsMutuallyExclusive("connect", "disconnect")
	return cmd
}

// poeState is the PoE state of one port after a poe command
type poeState struct {
	Device     string        `json:"device"`
	DeviceType string        `json:"deviceType"`
	Port       int           `json:"port"`
	Mode       omada.PoEMode `json:"mode"`
}

func (a *App) newPoECommand() *cobra.Command {
	var (
		port    int
		on, off bool
	)
	cmd := &cobra.Command{
		Use:   "poe MAC|NAME -p PORT [--on|--off]",
		Short: "Show or switch PoE on a port of a gateway, switch or access point",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSite(cmd.Context(), func(s *session) error {
				ctx := cmd.Context()
				d, err := s.site.DeviceByMACOrName(ctx, args[0])
				if err != nil {
					return err
				}
				change := on || off
				state := poeState{Device: d.Name, DeviceType: d.Type, Port: port}

				switch d.Type {
				case omada.DeviceTypeGateway:
					var p omada.GatewayPortConfig
					if change {
						p, err = s.site.SetGatewayPortPoE(ctx, d.MAC, port, on)
					} else {
						p, err = s.site.GatewayPort(ctx, d.MAC, port)
					}
					state.Mode = p.PoEMode
				case omada.DeviceTypeSwitch:
					var p omada.SwitchPortDetails
					if change {
						p, err = s.site.UpdateSwitchPort(ctx, d.MAC, port, omada.SwitchPortUpdate{PoE: &on})
					} else {
						p, err = s.site.SwitchPort(ctx, d.MAC, port)
					}
					state.Mode = p.PoEMode()
				case omada.DeviceTypeAccessPoint:
					var p omada.AccessPointLANPort
					name := fmt.Sprintf("ETH%d", port)
					if change {
						p, err = s.site.UpdateAccessPointPort(ctx, d.MAC, name, omada.AccessPointPortUpdate{PoEOutEnable: &on})
					} else {
						p, err = s.site.AccessPointPort(ctx, d.MAC, name)
					}
					switch {
					case !p.SupportPoE:
						state.Mode = omada.PoEModeNone
					case p.PoEOutEnable:
						state.Mode = omada.PoEModeEnabled
					default:
						state.Mode = omada.PoEModeDisabled
					}
				default:
					return fmt.Errorf("%w: %s devices have no PoE ports", omada.ErrInvalidDevice, d.Type)
				}
				if err != nil {
					return err
				}
				if change && state.Mode == omada.PoEModeNone {
					return errors.New("port does not support PoE")
				}

				return a.render(output.Fields(
					"Device", fmt.Sprintf("%s (%s)", d.Name, d.Type),
					"Port", strconv.Itoa(port),
					"PoE", state.Mode.String(),
				), state)
			})
		},
	}
	flags := cmd.Flags()
	flags.IntVarP(&port, "port", "p", 0, "Port number on the device")
	flags.BoolVar(&on, "on", false, "Turn PoE on")
	flags.BoolVar(&off, "off", false, "Turn PoE off")
	_ = cmd.MarkFlagRequired("port")
	cmd.MarkFlagsMutuallyExclusive("on", "off")
	return cmd
}

func (a *App) newSetDeviceLEDCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-device-led MAC|NAME ON|OFF|SITE_SETTINGS",
		Short: "Set the LED mode of a device",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			setting, err := omada.ParseLEDSetting(args[1])
			if err != nil {
				return err
			}
			return a.withSite(cmd.Context(), func(s *session) error {
				if err := s.site.SetLEDSetting(cmd.Context(), args[0], setting); err != nil {
					return err
				}
				a.printf("LED of %s set to %s\n", args[0], setting)
				return nil
			})
		},
	}
}

type firmwareView struct {
	Device string `json:"device"`
	MAC    string `json:"mac"`
	omada.FirmwareDetails
	Upgrade bool `json:"upgrade"`
}

func (a *App) newFirmwareCommand() *cobra.Command {
	var releaseNotes bool
	cmd := &cobra.Command{
		Use:   "firmware",
		Short: "Show firmware versions and available updates of all devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSite(cmd.Context(), func(s *session) error {
				ctx := cmd.Context()
				devices, err := s.site.Devices(ctx)
				if err != nil {
					return err
				}
				headers := []string{"NAME", "CURRENT", "LATEST", "STATUS"}
				if releaseNotes {
					headers = append(headers, "RELEASE NOTES")
				}
				tbl := output.Table{Headers: headers}
				views := make([]firmwareView, 0, len(devices))
				for _, d := range devices {
					fw, err := s.site.FirmwareDetails(ctx, d.MAC)
					if err != nil {
						return err
					}
					v := firmwareView{Device: d.Name, MAC: d.MAC, FirmwareDetails: fw, Upgrade: fw.UpgradeAvailable()}
					views = append(views, v)

					status := "UP-TO-DATE"
					if v.Upgrade {
						status = "UPDATE"
					}
					row := []string{d.Name, fw.CurrentVersion, fw.LatestVersion, status}
					if releaseNotes {
						notes := ""
						if v.Upgrade {
							notes = fw.ReleaseLog
						}
						row = append(row, notes)
					}
					tbl.Append(row...)
				}
				return a.render(tbl, views)
			})
		},
	}
	cmd.Flags().BoolVar(&releaseNotes, "release-notes", false, "Show release notes of available updates")
	return cmd
}

func (a *App) newUpgradeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade MAC|NAME",
		Short: "Start an online firmware upgrade of a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSite(cmd.Context(), func(s *session) error {
				fw, err := s.site.FirmwareDetails(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !fw.UpgradeAvailable() {
					return fmt.Errorf("%s is already running the latest firmware %s", args[0], fw.CurrentVersion)
				}
				if err := s.site.StartFirmwareUpgrade(cmd.Context(), args[0]); err != nil {
					return err
				}
				a.printf("Upgrade of %s from %s to %s started\n", args[0], fw.CurrentVersion, fw.LatestVersion)
				return nil
			})
		},
	}
}

// nonNil keeps empty lists rendering as [] instead of null
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
