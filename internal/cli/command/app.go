// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package command implements the omada command line interface.
//
// All state of a run lives in an App: the selected target, the config file
// location and the output streams. Command output is collected in a buffer
// and only written to stdout once the command succeeded, so a failing
// command never leaves partial results behind.
package command

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/netascode/go-omada"
	"github.com/netascode/go-omada/internal/cli/config"
	"github.com/netascode/go-omada/internal/cli/output"
)

// App holds the state of one CLI invocation
type App struct {
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader

	// ReadPassword prompts for a password without echo
	ReadPassword func(prompt string) (string, error)

	// ClientOptions are appended to the options of every controller client
	ClientOptions []func(*omada.Client)

	configPath string
	target     string
	format     string
	verbose    bool

	buf bytes.Buffer
}

// New returns an App writing to the process's standard streams
func New() *App {
	a := &App{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Stdin:  os.Stdin,
	}
	a.ReadPassword = a.promptPassword
	return a
}

// Execute runs the command line args
//
// Output is flushed to Stdout only when the command succeeds.
func (a *App) Execute(ctx context.Context, args []string) error {
	a.buf.Reset()
	root := a.NewRootCommand()
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		a.buf.Reset()
		return err
	}
	_, err := a.Stdout.Write(a.buf.Bytes())
	a.buf.Reset()
	return err
}

// NewRootCommand creates the root command and all subcommands
func (a *App) NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "omada",
		Short: "Manage TP-Link Omada controllers from the command line",
		Long: `omada talks to a TP-Link Omada SDN controller through its web API.

Controllers are addressed through named targets stored in ~/.omada.yaml.
Add one with "omada target NAME --url URL --user USER"; the first target
becomes the default, select another one with -t NAME.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := output.ParseFormat(a.format)
			return err
		},
	}
	root.SetOut(&a.buf)
	root.SetErr(a.Stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.target, "target", "t", "", "Target to use instead of the default target")
	flags.StringVar(&a.configPath, "config", "", "Config file (default $OMADA_CONFIG or ~/"+config.DefaultFileName+")")
	flags.StringVarP(&a.format, "output", "o", string(output.FormatTable), "Output format: table, json or yaml")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Log controller requests to stderr")

	root.AddCommand(
		a.newTargetCommand(),
		a.newTargetsCommand(),
		a.newDefaultCommand(),
		a.newControllerInfoCommand(),
		a.newDevicesCommand(),
		a.newSwitchesCommand(),
		a.newSwitchCommand(),
		a.newSwitchPortsCommand(),
		a.newAccessPointsCommand(),
		a.newAccessPointCommand(),
		a.newGatewayCommand(),
		a.newWANCommand(),
		a.newPoECommand(),
		a.newSetDeviceLEDCommand(),
		a.newFirmwareCommand(),
		a.newUpgradeCommand(),
		a.newClientsCommand(),
		a.newKnownClientsCommand(),
		a.newClientCommand(),
		a.newBlockClientCommand(),
		a.newUnblockClientCommand(),
		a.newReconnectClientCommand(),
		a.newSetClientNameCommand(),
	)
	return root
}

// out is where commands write their results
func (a *App) out() io.Writer {
	return &a.buf
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(&a.buf, format, args...)
}

func (a *App) render(tbl output.Table, data any) error {
	format, err := output.ParseFormat(a.format)
	if err != nil {
		return err
	}
	return output.Render(a.out(), format, tbl, data)
}

func (a *App) path() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	return config.DefaultPath()
}

// store loads the target store including environment overrides
func (a *App) store() (*config.Store, error) {
	p, err := a.path()
	if err != nil {
		return nil, err
	}
	return config.LoadWithEnv(p)
}

// fileStore loads the target store as persisted, for commands that save it
func (a *App) fileStore() (*config.Store, string, error) {
	p, err := a.path()
	if err != nil {
		return nil, "", err
	}
	s, err := config.Load(p)
	if err != nil {
		return nil, "", err
	}
	return s, p, nil
}

// newClient creates a controller client for target
func (a *App) newClient(t config.Target) (*omada.Client, error) {
	opts := []func(*omada.Client){
		omada.Username(t.Username),
		omada.Password(t.Password),
		omada.VerifyCertificate(t.VerifySSL),
	}
	if a.verbose {
		opts = append(opts, omada.WithLogger(newHCLogger(a.Stderr)))
	}
	opts = append(opts, a.ClientOptions...)
	return omada.NewClient(t.URL, opts...)
}

// session is a connection to the selected target's controller and site
type session struct {
	client *omada.Client
	site   *omada.SiteClient
	target config.Target
}

// connect opens the selected target and resolves its site
//
// The returned close function logs out and must be called.
func (a *App) connect(ctx context.Context) (*session, func(), error) {
	s, err := a.store()
	if err != nil {
		return nil, nil, err
	}
	_, target, err := s.Resolve(a.target)
	if err != nil {
		return nil, nil, err
	}
	client, err := a.newClient(target)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		_ = client.Logout(context.WithoutCancel(ctx)) //nolint:errcheck // best effort
		_ = client.Close()
	}

	site, err := client.Site(ctx, target.Site)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return &session{client: client, site: site, target: target}, closeFn, nil
}

// withSite runs fn against the selected target's site
func (a *App) withSite(ctx context.Context, fn func(*session) error) error {
	sess, closeFn, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(sess)
}

// promptPassword reads a password from the terminal without echo, or a
// line from Stdin when it is not a terminal
func (a *App) promptPassword(prompt string) (string, error) {
	if f, ok := a.Stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(a.Stderr, prompt)
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(a.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("no password provided")
	}
	return line, nil
}

// hcLogger adapts hclog to omada.Logger
type hcLogger struct {
	log hclog.Logger
}

func newHCLogger(w io.Writer) *hcLogger {
	return &hcLogger{log: hclog.New(&hclog.LoggerOptions{
		Name:   "omada",
		Level:  hclog.Debug,
		Output: w,
	})}
}

func (l *hcLogger) Debug(_ context.Context, msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l *hcLogger) Info(_ context.Context, msg string, keysAndValues ...any) {
	l.log.Info(msg, keysAndValues...)
}

func (l *hcLogger) Warn(_ context.Context, msg string, keysAndValues ...any) {
	l.log.Warn(msg, keysAndValues...)
}

func (l *hcLogger) Error(_ context.Context, msg string, keysAndValues ...any) {
	l.log.Error(msg, keysAndValues...)
}

// normalizeUserFlag lets --user stand in for --username
func normalizeUserFlag(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	if name == "user" {
		name = "username"
	}
	return pflag.NormalizedName(name)
}
