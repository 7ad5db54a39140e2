// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/netascode/go-omada"
	"github.com/netascode/go-omada/internal/cli/config"
	"github.com/netascode/go-omada/internal/cli/output"
)

// ErrSiteMissing is returned when a target's site does not exist on the controller
var ErrSiteMissing = errors.New("site not found on controller")

type targetFlags struct {
	url         string
	username    string
	password    string
	site        string
	setDefault  bool
	verifySSL   bool
	noVerifySSL bool
	delete      bool
}

func (a *App) newTargetCommand() *cobra.Command {
	var f targetFlags
	cmd := &cobra.Command{
		Use:   "target [NAME]",
		Short: "Add, update or delete a named controller target",
		Long: `Add, update or delete a named controller target.

New and updated targets are validated by logging in to the controller and
checking that the site exists before they are saved. The password is
prompted for when it is not given. NAME defaults to the -t flag.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := a.target
			if len(args) == 1 {
				name = args[0]
			}
			if name == "" {
				return errors.New("missing target name")
			}
			return a.runTarget(cmd, name, f)
		},
	}

	flags := cmd.Flags()
	flags.SetNormalizeFunc(normalizeUserFlag)
	flags.StringVar(&f.url, "url", "", "URL of the Omada controller")
	flags.StringVar(&f.username, "username", "", "Name of the user to log in as (alias --user)")
	flags.StringVar(&f.password, "password", "", "Password of the user; prompted for when omitted")
	flags.StringVar(&f.site, "site", "", "Omada site to manage (default \""+config.DefaultSite+"\")")
	flags.BoolVar(&f.setDefault, "set-default", false, "Make this the default target")
	flags.BoolVar(&f.verifySSL, "verify-ssl", false, "Verify the controller's TLS certificate (default for new targets)")
	flags.BoolVar(&f.noVerifySSL, "no-verify-ssl", false, "Do not verify the controller's TLS certificate")
	flags.BoolVar(&f.delete, "delete", false, "Delete the target")
	cmd.MarkFlagsMutuallyExclusive("verify-ssl", "no-verify-ssl")
	return cmd
}

func (a *App) runTarget(cmd *cobra.Command, name string, f targetFlags) error {
	store, path, err := a.fileStore()
	if err != nil {
		return err
	}

	if f.delete {
		if err := store.Delete(name); err != nil {
			return err
		}
		if err := store.Save(path); err != nil {
			return err
		}
		a.printf("Deleted target %s\n", name)
		return nil
	}

	target, exists := store.Get(name)
	if exists {
		target = f.apply(target)
	} else {
		if f.url == "" || f.username == "" {
			return errors.New("--url and --user are required for new targets")
		}
		target = f.apply(config.Target{Site: config.DefaultSite, VerifySSL: true})
	}
	if target.Password == "" {
		pw, err := a.ReadPassword("Password: ")
		if err != nil {
			return err
		}
		target.Password = pw
	}

	controllerName, err := a.validateTarget(cmd.Context(), target)
	if err != nil {
		return err
	}
	if err := store.Set(name, target, f.setDefault); err != nil {
		return err
	}
	if err := store.Save(path); err != nil {
		return err
	}
	a.printf("Set target %s to controller %s and site %s\n", name, controllerName, target.Site)
	return nil
}

// apply overwrites t with the flags that were given
func (f targetFlags) apply(t config.Target) config.Target {
	if f.url != "" {
		t.URL = f.url
	}
	if f.username != "" {
		t.Username = f.username
	}
	if f.password != "" {
		t.Password = f.password
	}
	if f.site != "" {
		t.Site = f.site
	}
	if f.verifySSL {
		t.VerifySSL = true
	} else if f.noVerifySSL {
		t.VerifySSL = false
	}
	return t
}

// validateTarget logs in and checks the site, returning the controller name
func (a *App) validateTarget(ctx context.Context, t config.Target) (string, error) {
	client, err := a.newClient(t)
	if err != nil {
		return "", err
	}
	defer client.Close() //nolint:errcheck
	defer client.Logout(context.WithoutCancel(ctx)) //nolint:errcheck // best effort

	name, err := client.ControllerName(ctx)
	if err != nil {
		return "", fmt.Errorf("could not connect to controller with provided credentials, target has not been saved: %w", err)
	}
	sites, err := client.Sites(ctx)
	if err != nil {
		return "", err
	}
	available := make([]string, 0, len(sites))
	for _, s := range sites {
		if s.Name == t.Site {
			return name, nil
		}
		available = append(available, s.Name)
	}
	return "", fmt.Errorf("%w: %q (available sites: %s)", ErrSiteMissing, t.Site, strings.Join(available, ", "))
}

type targetView struct {
	Name      string `json:"name"`
	Default   bool   `json:"default"`
	URL       string `json:"url"`
	Site      string `json:"site"`
	Username  string `json:"username"`
	VerifySSL bool   `json:"verify_ssl"`
}

func (a *App) newTargetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "targets",
		Aliases: []string{"t"},
		Short:   "List the configured targets",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.store()
			if err != nil {
				return err
			}
			views := make([]targetView, 0, len(store.Targets))
			tbl := output.Table{Headers: []string{"", "NAME", "URL", "SITE", "USERNAME", "VERIFY SSL"}}
			for _, name := range store.Names() {
				t := store.Targets[name]
				v := targetView{
					Name:      name,
					Default:   name == store.DefaultTarget,
					URL:       t.URL,
					Site:      t.Site,
					Username:  t.Username,
					VerifySSL: t.VerifySSL,
				}
				views = append(views, v)
				mark := ""
				if v.Default {
					mark = "*"
				}
				tbl.Append(mark, v.Name, v.URL, v.Site, v.Username, strconv.FormatBool(v.VerifySSL))
			}
			return a.render(tbl, views)
		},
	}
}

func (a *App) newDefaultCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "default NAME",
		Short: "Set the default target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, path, err := a.fileStore()
			if err != nil {
				return err
			}
			if err := store.SetDefault(args[0]); err != nil {
				return err
			}
			if err := store.Save(path); err != nil {
				return err
			}
			a.printf("Default target is now %s\n", args[0])
			return nil
		},
	}
}

func (a *App) newControllerInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "controller-info",
		Short: "Show the version and name of the controller",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.store()
			if err != nil {
				return err
			}
			_, target, err := store.Resolve(a.target)
			if err != nil {
				return err
			}
			client, err := a.newClient(target)
			if err != nil {
				return err
			}
			defer client.Close() //nolint:errcheck
			ctx := cmd.Context()

			// the version is readable without logging in
			info, err := client.ControllerInfo(ctx)
			if err != nil {
				return err
			}
			name, err := client.ControllerName(ctx)
			if err != nil {
				return err
			}
			_ = client.Logout(ctx) //nolint:errcheck // best effort

			view := struct {
				omada.ControllerInfo
				Name string `json:"name"`
			}{info, name}
			return a.render(output.Fields(
				"Name", name,
				"Version", info.Version,
				"API version", info.APIVersion,
				"Controller ID", info.ControllerID,
			), view)
		},
	}
}
