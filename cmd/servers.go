package cmd

import (
	"context"
	"fmt"
	"time"

	"grimm.is/instcfg/internal/chrony"
	"grimm.is/instcfg/internal/config"
	"grimm.is/instcfg/internal/i18n"
	"grimm.is/instcfg/internal/logging"
	"grimm.is/instcfg/internal/metrics"
	"grimm.is/instcfg/internal/ntp"
)

// ServerOptions are the flags shared by the server commands.
type ServerOptions struct {
	ConfigFile string // installer config
	ChronyFile string // overrides ntp.config_file
	Output     string // set-servers only
	Check      bool
	Checker    string
	Timeout    time.Duration
	Servers    []string
}

// ntpConfig loads the installer config and applies the command line
// overrides to its ntp block.
func (o ServerOptions) ntpConfig() (*config.Config, error) {
	cfg, err := loadConfig(o.ConfigFile)
	if err != nil {
		return nil, err
	}
	n := cfg.NTP
	if o.ChronyFile != "" {
		n.ConfigFile = o.ChronyFile
	}
	if o.Check {
		n.Check = true
	}
	if o.Checker != "" {
		n.Checker = o.Checker
	}
	return cfg, nil
}

// RunServers lists the servers declared in the chrony config.
func RunServers(o ServerOptions) error {
	cfg, err := o.ntpConfig()
	if err != nil {
		return err
	}
	opts, err := cfg.NTP.ChronyOptions()
	if err != nil {
		return err
	}

	servers, err := chrony.GetServers(opts)
	if err != nil {
		return err
	}
	if len(servers) == 0 {
		Printer.Fprintf(Stdout, i18n.MsgNoServers, cfg.NTP.ConfigFile)
		return nil
	}
	for _, s := range servers {
		fmt.Fprintln(Stdout, s)
	}
	return nil
}

// RunSetServers replaces the servers in the chrony config. Servers given on
// the command line win over ntp.servers from the installer config.
func RunSetServers(ctx context.Context, o ServerOptions) error {
	cfg, err := o.ntpConfig()
	if err != nil {
		return err
	}
	if len(o.Servers) > 0 {
		cfg.NTP.Servers = o.Servers
	}

	reg := metrics.New()
	defer writeMetrics(reg, cfg)

	return saveServers(ctx, cfg, o.Timeout, o.Output, reg, logging.WithComponent("ntp"))
}

// saveServers checks (when enabled) and writes cfg.NTP.Servers.
func saveServers(ctx context.Context, cfg *config.Config, timeout time.Duration, output string, reg *metrics.Registry, logger *logging.Logger) error {
	n := cfg.NTP
	if len(n.Servers) == 0 {
		return fmt.Errorf("no servers given")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if n.Check {
		down, err := checkServers(ctx, n, timeout, n.Servers, reg)
		if err != nil {
			return err
		}
		if len(down) > 0 {
			logger.Warn("servers not reachable", "servers", down)
			if n.RequireReachable {
				return fmt.Errorf("%d of %d servers unreachable", len(down), len(n.Servers))
			}
		}
	}

	opts, err := n.ChronyOptions()
	if err != nil {
		return err
	}
	opts.OutputPath = output

	err = chrony.SaveServers(n.Servers, opts)
	reg.ObserveRewrite(len(n.Servers), err)
	if err != nil {
		logger.Error("failed to write chrony config", "path", n.ConfigFile, "error", err)
		return err
	}

	dest := n.ConfigFile
	if output != "" {
		dest = output
	}
	logger.Info("wrote time servers", "path", dest, "servers", len(n.Servers))
	Printer.Fprintf(Stdout, i18n.MsgServersWritten, len(n.Servers), dest)
	return nil
}

// checkServers probes servers, prints one line per server and returns the
// unreachable ones.
func checkServers(ctx context.Context, n *config.NTPConfig, override time.Duration, servers []string, reg *metrics.Registry) ([]string, error) {
	timeout, err := checkTimeout(n, override)
	if err != nil {
		return nil, err
	}
	checker, err := newChecker(n.Checker, timeout)
	if err != nil {
		return nil, err
	}

	results := ntp.CheckAll(ctx, checker, servers)
	for _, r := range results {
		reg.ObserveCheck(r.Reachable)
		if r.Reachable {
			Printer.Fprintf(Stdout, i18n.MsgServerReachable, r.Server)
		} else {
			Printer.Fprintf(Stdout, i18n.MsgServerDown, r.Server)
		}
	}
	return ntp.Unreachable(results), nil
}

// RunDiff prints the change set-servers would make without writing.
func RunDiff(o ServerOptions) error {
	cfg, err := o.ntpConfig()
	if err != nil {
		return err
	}
	if len(o.Servers) > 0 {
		cfg.NTP.Servers = o.Servers
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	opts, err := cfg.NTP.ChronyOptions()
	if err != nil {
		return err
	}
	diff, err := chrony.Preview(cfg.NTP.Servers, opts)
	if err != nil {
		return err
	}
	if diff == "" {
		Printer.Fprintf(Stdout, i18n.MsgNoChanges, cfg.NTP.ConfigFile)
		return nil
	}
	fmt.Fprint(Stdout, diff)
	return nil
}

// RunCheck probes the given servers, or the ones in the chrony config when
// none are given, and fails if any is unreachable.
func RunCheck(ctx context.Context, o ServerOptions) error {
	cfg, err := o.ntpConfig()
	if err != nil {
		return err
	}

	servers := o.Servers
	if len(servers) == 0 {
		opts, err := cfg.NTP.ChronyOptions()
		if err != nil {
			return err
		}
		if servers, err = chrony.GetServers(opts); err != nil {
			return err
		}
	}
	if len(servers) == 0 {
		Printer.Fprintf(Stdout, i18n.MsgNoServers, cfg.NTP.ConfigFile)
		return nil
	}

	reg := metrics.New()
	defer writeMetrics(reg, cfg)

	down, err := checkServers(ctx, cfg.NTP, o.Timeout, servers, reg)
	if err != nil {
		return err
	}
	if len(down) > 0 {
		return fmt.Errorf("%d of %d servers unreachable", len(down), len(servers))
	}
	return nil
}
