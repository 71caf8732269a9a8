// Package cmd implements the instcfg subcommands.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"grimm.is/instcfg/internal/brand"
	"grimm.is/instcfg/internal/config"
	"grimm.is/instcfg/internal/i18n"
	"grimm.is/instcfg/internal/logging"
	"grimm.is/instcfg/internal/metrics"
	"grimm.is/instcfg/internal/ntp"
	"grimm.is/instcfg/internal/system"
)

// Printer writes user facing CLI output.
var Printer = i18n.NewCLIPrinter()

// Stdout receives command output. Tests capture it.
var Stdout io.Writer = os.Stdout

// executor runs rdate and lokkit.
var executor system.CommandExecutor = system.DefaultCommandExecutor

// resolveConfigPath returns the installer config path and whether the
// caller named it explicitly.
func resolveConfigPath(path string) (string, bool) {
	if path != "" {
		return path, true
	}
	return brand.DefaultConfigPath(), false
}

// loadConfig loads and validates the installer config. A missing default
// config file yields the built-in defaults; a missing explicit one is an
// error.
func loadConfig(path string) (*config.Config, error) {
	path, explicit := resolveConfigPath(path)

	cfg, err := config.LoadFile(path)
	if err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = config.Default()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration invalid: %w", err)
	}
	return cfg, nil
}

// setupLogging installs the default logger described by cfg. The returned
// func closes the remote syslog connection, if any.
func setupLogging(cfg *config.LoggingConfig) (func(), error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var out io.Writer = os.Stderr
	closer := func() {}

	if cfg.SyslogHost != "" {
		w, err := logging.NewSyslogWriter(logging.SyslogConfig{
			Enabled:  true,
			Host:     cfg.SyslogHost,
			Port:     cfg.SyslogPort,
			Protocol: cfg.SyslogProtocol,
		})
		if err != nil {
			// Local logging still works without the remote sink.
			logging.Warn("remote syslog unavailable", "host", cfg.SyslogHost, "error", err)
		} else {
			out = logging.MultiWriter(os.Stderr, w)
			closer = func() { _ = w.Close() }
		}
	}

	logging.SetDefault(logging.New(logging.Config{
		Level:  level,
		Output: out,
		JSON:   cfg.JSON,
	}))
	return closer, nil
}

// newChecker builds the configured checker, wiring the command executor.
func newChecker(name string, timeout time.Duration) (ntp.Checker, error) {
	c, err := ntp.NewChecker(name, timeout)
	if err != nil {
		return nil, err
	}
	if cc, ok := c.(*ntp.CommandChecker); ok {
		cc.SetExecutor(executor)
	}
	return c, nil
}

// checkTimeout returns override when set and the configured timeout otherwise.
func checkTimeout(n *config.NTPConfig, override time.Duration) (time.Duration, error) {
	if override > 0 {
		return override, nil
	}
	return n.Timeout()
}

// writeMetrics exports reg to the configured textfile, if any.
func writeMetrics(reg *metrics.Registry, cfg *config.Config) {
	if err := reg.WriteTextfile(cfg.Metrics.Textfile, time.Now()); err != nil {
		logging.Warn("failed to write metrics textfile", "path", cfg.Metrics.Textfile, "error", err)
	}
}
