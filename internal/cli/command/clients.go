// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package command

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/netascode/go-omada"
	"github.com/netascode/go-omada/internal/cli/output"
)

// attachment describes where a connected client is attached
func attachment(c omada.NetworkClient) string {
	switch {
	case c.Wireless:
		return fmt.Sprintf("%s (%s)", c.SSID, c.ConnectedTo())
	case c.SwitchMAC != "":
		return fmt.Sprintf("%s (port %d)", c.ConnectedTo(), c.Port)
	default:
		return orDash(c.ConnectedTo())
	}
}

func (a *App) newClientsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "clients",
		Aliases: []string{"c"},
		Short:   "List the clients connected to the site",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSite(cmd.Context(), func(s *session) error {
				clients, err := s.site.ConnectedClients(cmd.Context())
				if err != nil {
					return err
				}
				tbl := output.Table{Headers: []string{"MAC", "IP", "NAME", "CONNECTION", "CONNECTED TO"}}
				for _, c := range clients {
					tbl.Append(c.MAC, orDash(c.IP), c.DisplayName(), c.ConnectType.String(), attachment(c))
				}
				return a.render(tbl, nonNil(clients))
			})
		},
	}
}

func (a *App) newKnownClientsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "known-clients",
		Short: "List every client the site has seen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSite(cmd.Context(), func(s *session) error {
				clients, err := s.site.KnownClients(cmd.Context())
				if err != nil {
					return err
				}
				tbl := output.Table{Headers: []string{"MAC", "NAME", "BLOCKED", "LAST SEEN"}}
				for _, c := range clients {
					name := c.Name
					if name == c.MAC {
						name = ""
					}
					blocked := ""
					if c.Blocked {
						blocked = "blocked"
					}
					tbl.Append(c.MAC, name, blocked, lastSeen(c.LastSeen))
				}
				return a.render(tbl, nonNil(clients))
			})
		},
	}
}

func (a *App) newClientCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "client MAC|NAME",
		Short: "Show the details of a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSite(cmd.Context(), func(s *session) error {
				ctx := cmd.Context()
				mac, err := s.site.ResolveClientMAC(ctx, args[0])
				if err != nil {
					return err
				}
				c, err := s.site.NetworkClient(ctx, mac)
				if err != nil {
					return err
				}

				fields := []string{
					"Name", c.DisplayName(),
					"MAC", c.MAC,
					"IP", orDash(c.IP),
					"Hostname", orDash(c.HostName),
					"Blocked", strconv.FormatBool(c.Blocked),
					"Connection", c.ConnectType.String(),
				}
				if c.Active {
					fields = append(fields, "Uptime", (time.Duration(c.Uptime) * time.Second).String())
				}
				switch {
				case c.Wireless:
					fields = append(fields,
						"SSID", c.SSID,
						"Access point", fmt.Sprintf("%s (%s)", c.APName, c.APMAC))
				case c.SwitchMAC != "":
					fields = append(fields,
						"Switch", fmt.Sprintf("%s (%s)", c.SwitchName, c.SwitchMAC),
						"Switch port", strconv.Itoa(c.Port))
				}
				return a.render(output.Fields(fields...), c)
			})
		},
	}
}

// clientAction builds a command that resolves a client and runs fn on its MAC
func (a *App) clientAction(use, short, done string, fn func(*omada.SiteClient, *cobra.Command, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSite(cmd.Context(), func(s *session) error {
				mac, err := s.site.ResolveClientMAC(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := fn(s.site, cmd, mac); err != nil {
					return err
				}
				a.printf("%s client %s\n", done, mac)
				return nil
			})
		},
	}
}

func (a *App) newBlockClientCommand() *cobra.Command {
	return a.clientAction("block-client MAC|NAME", "Block a client from the network", "Blocked",
		func(site *omada.SiteClient, cmd *cobra.Command, mac string) error {
			return site.BlockClient(cmd.Context(), mac)
		})
}

func (a *App) newUnblockClientCommand() *cobra.Command {
	return a.clientAction("unblock-client MAC|NAME", "Lift the block of a client", "Unblocked",
		func(site *omada.SiteClient, cmd *cobra.Command, mac string) error {
			return site.UnblockClient(cmd.Context(), mac)
		})
}

func (a *App) newReconnectClientCommand() *cobra.Command {
	return a.clientAction("reconnect-client MAC|NAME", "Force a wireless client to reconnect", "Reconnected",
		func(site *omada.SiteClient, cmd *cobra.Command, mac string) error {
			return site.ReconnectClient(cmd.Context(), mac)
		})
}

func (a *App) newSetClientNameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-client-name MAC|NAME NEW_NAME",
		Short: "Set the name of a client",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSite(cmd.Context(), func(s *session) error {
				mac, err := s.site.ResolveClientMAC(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				c, err := s.site.SetClientName(cmd.Context(), mac, args[1])
				if err != nil {
					return err
				}
				a.printf("Client %s is now named %s\n", c.MAC, c.DisplayName())
				return nil
			})
		},
	}
}
