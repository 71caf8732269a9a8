package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"grimm.is/instcfg/cmd"
	"grimm.is/instcfg/internal/brand"
	"grimm.is/instcfg/internal/chrony"
	"grimm.is/instcfg/internal/i18n"
	"grimm.is/instcfg/internal/logging"
	"grimm.is/instcfg/internal/setup"
)

var printer = i18n.NewCLIPrinter()

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Log under the name the binary was invoked as.
	logging.SetPrefix(filepath.Base(os.Args[0]))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	name := os.Args[1]
	var err error

	switch name {
	case "servers":
		fs, o := serverFlags(name)
		fs.Parse(os.Args[2:])
		err = cmd.RunServers(*o)

	case "set-servers":
		fs, o := serverFlags(name)
		fs.StringVar(&o.Output, "output", "", "Write the result here instead of replacing the chrony config")
		fs.StringVar(&o.Output, "o", "", "Output file (short)")
		fs.Parse(os.Args[2:])
		o.Servers = fs.Args()
		err = cmd.RunSetServers(ctx, *o)

	case "diff":
		fs, o := serverFlags(name)
		fs.Parse(os.Args[2:])
		o.Servers = fs.Args()
		err = cmd.RunDiff(*o)

	case "check":
		fs, o := serverFlags(name)
		fs.Parse(os.Args[2:])
		o.Servers = fs.Args()
		err = cmd.RunCheck(ctx, *o)

	case "selinux":
		err = cmd.RunSELinux(ctx, os.Args[2:])

	case "apply":
		fs := flag.NewFlagSet(name, flag.ExitOnError)
		configFile := configFlag(fs)
		fs.Parse(os.Args[2:])
		if fs.NArg() > 0 {
			*configFile = fs.Arg(0)
		}
		err = cmd.RunApply(ctx, *configFile)

	case "setup":
		fs := flag.NewFlagSet(name, flag.ExitOnError)
		configFile := configFlag(fs)
		fs.Parse(os.Args[2:])
		err = cmd.RunSetup(ctx, *configFile)
		if errors.Is(err, setup.ErrAborted) {
			os.Exit(130)
		}

	case "version", "-v", "--version":
		cmd.RunVersion()

	case "help", "-h", "--help":
		printUsage()

	default:
		printer.Printf("Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		printer.Fprintf(os.Stderr, i18n.MsgFailed, name, err)
		os.Exit(1)
	}
}

func configFlag(fs *flag.FlagSet) *string {
	configFile := fs.String("config", "", "Installer configuration file (default "+brand.DefaultConfigPath()+")")
	fs.StringVar(configFile, "c", "", "Installer configuration file (short)")
	return configFile
}

func serverFlags(name string) (*flag.FlagSet, *cmd.ServerOptions) {
	o := &cmd.ServerOptions{}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.StringVar(&o.ConfigFile, "config", "", "Installer configuration file")
	fs.StringVar(&o.ConfigFile, "c", "", "Installer configuration file (short)")
	fs.StringVar(&o.ChronyFile, "file", "", "Chrony configuration file (default "+chrony.DefaultConfigPath+")")
	fs.StringVar(&o.ChronyFile, "f", "", "Chrony configuration file (short)")
	fs.BoolVar(&o.Check, "check", false, "Check that servers answer before writing")
	fs.StringVar(&o.Checker, "checker", "", "Server checker: rdate or sntp")
	fs.DurationVar(&o.Timeout, "timeout", 0, "Per-server check timeout (e.g. 5s)")
	return fs, o
}

func printUsage() {
	printer.Printf(`%s - %s

Usage:
  %s <command> [options]

Time servers:
  servers       List the servers in the chrony config
                Options: --file (-f) <chrony.conf>, --config (-c) <file>
  set-servers   Replace the servers in the chrony config
                Options: --file (-f), --output (-o) <file>, --check,
                         --checker rdate|sntp, --timeout <duration>
  diff          Show what set-servers would change
  check         Check that servers answer
                Options: --checker rdate|sntp, --timeout <duration>

Security:
  selinux       get | set <enforcing|permissive|disabled> | apply [-root <path>]

Installer:
  apply         Apply the installer config to the target system
                Options: --config (-c) <file>
  setup         Interactive wizard writing the installer config
  version       Print version

Examples:
  %s servers
  %s set-servers --check 0.fedora.pool.ntp.org 1.fedora.pool.ntp.org
  %s diff -f /mnt/sysimage/etc/chrony.conf ntp.example.com
  %s selinux set permissive
  %s apply -c /etc/instcfg/instcfg.hcl
`,
		brand.Name, brand.Description,
		brand.BinaryName,
		brand.BinaryName, brand.BinaryName, brand.BinaryName, brand.BinaryName, brand.BinaryName)
}
