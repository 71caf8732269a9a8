package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"grimm.is/instcfg/internal/brand"
	"grimm.is/instcfg/internal/config"
	"grimm.is/instcfg/internal/i18n"
	"grimm.is/instcfg/internal/logging"
	"grimm.is/instcfg/internal/metrics"
	"grimm.is/instcfg/internal/security"
)

// RunSELinux handles "selinux get|set <mode>|apply".
func RunSELinux(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("selinux", flag.ContinueOnError)
	fs.SetOutput(Stdout)
	configFile := fs.String("config", "", "Installer configuration file")
	fs.StringVar(configFile, "c", "", "Installer configuration file (short)")
	root := fs.String("root", "", "Installed system root (apply)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() == 0 {
		return fmt.Errorf("usage: %s selinux [-c config] get|set <mode>|apply [-root path]", brand.BinaryName)
	}

	switch fs.Arg(0) {
	case "get":
		cfg, err := loadConfig(*configFile)
		if err != nil {
			return err
		}
		Printer.Fprintf(Stdout, i18n.MsgSELinuxMode, cfg.Security.SELinux)
		return nil

	case "set":
		if fs.NArg() != 2 {
			return fmt.Errorf("usage: %s selinux set <%s|%s|%s>", brand.BinaryName,
				security.ModeEnforcing, security.ModePermissive, security.ModeDisabled)
		}
		return setSELinux(*configFile, fs.Arg(1))

	case "apply":
		// Flags after the subcommand name.
		sub := flag.NewFlagSet("selinux apply", flag.ContinueOnError)
		sub.SetOutput(Stdout)
		subRoot := sub.String("root", *root, "Installed system root")
		if err := sub.Parse(fs.Args()[1:]); err != nil {
			return err
		}

		cfg, err := loadConfig(*configFile)
		if err != nil {
			return err
		}
		if *subRoot != "" {
			cfg.Security.RootPath = *subRoot
		}

		reg := metrics.New()
		defer writeMetrics(reg, cfg)
		if err := applySecurity(ctx, cfg.Security, reg); err != nil {
			return err
		}
		Printer.Fprintf(Stdout, i18n.MsgSELinuxApplied, cfg.Security.SELinux, cfg.Security.RootPath)
		return nil

	default:
		return fmt.Errorf("unknown selinux command %q", fs.Arg(0))
	}
}

// setSELinux stores mode in the installer config file, creating the file
// from defaults when it does not exist yet.
func setSELinux(configFile, mode string) error {
	m, err := security.ParseMode(mode)
	if err != nil {
		return err
	}

	path, _ := resolveConfigPath(configFile)
	cfg, err := config.LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg.Security.SELinux = m.String()
	if err := config.SaveFile(cfg, path); err != nil {
		return err
	}
	logging.Audit("selinux.set", path, map[string]any{"mode": m.String()})
	Printer.Fprintf(Stdout, i18n.MsgConfigSaved, path)
	return nil
}

// applySecurity runs the security policy command for s.
func applySecurity(ctx context.Context, s *config.SecurityConfig, reg *metrics.Registry) error {
	mode, err := security.ParseMode(s.SELinux)
	if err != nil {
		return err
	}

	p := security.New(security.KernelEnabled(), s.RootPath)
	p.SetExecutor(executor)
	if s.Command != "" {
		p.Command = s.Command
	}
	p.SetSELinux(mode)

	names := make([]string, 0, len(security.Modes()))
	for _, m := range security.Modes() {
		names = append(names, m.String())
	}
	reg.SetSELinuxMode(p.SELinux().String(), names)

	err = p.Write(ctx)
	reg.ObservePolicyApply(err)
	return err
}
